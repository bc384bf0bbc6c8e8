package simulator

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
	"gator-social/internal/utils"

	"go.uber.org/zap"
)

func (s *Simulator) randomActivity(rng *rand.Rand, zipf *rand.Zipf) {
	account := s.pickAccount(rng)
	roll := rng.Float64()

	switch {
	case roll < 0.30:
		s.simulatePost(rng, zipf, account)
	case roll < 0.55:
		s.simulateComment(rng, account)
	case roll < 0.80:
		s.simulateReaction(rng, account)
	case roll < 0.92:
		s.simulateFollow(zipf, account)
	default:
		s.simulateAccountFollow(rng, account)
	}
}

// send performs one timed request and books the outcome.
func (s *Simulator) send(msg interface{}) (interface{}, error) {
	start := time.Now()
	resp, err := actors.Request(s.root, s.pid, msg, s.config.RequestTimeout)
	code := ""
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			code = appErr.Code
		} else {
			code = "UNKNOWN"
		}
		s.logger.Debug("Request rejected",
			zap.String("message", fmt.Sprintf("%T", msg)),
			zap.String("code", code),
			zap.Error(err))
	}
	s.record(time.Since(start), err, code)
	if err != nil && !expectedRejections[code] {
		s.unexpected(fmt.Sprintf("%T rejected with %s: %v", msg, code, err))
	}
	return resp, err
}

// expectedRejections are the codes a random workload legitimately provokes:
// races between workers, self-follows and shares of shares. Anything else
// points at an engine defect.
var expectedRejections = map[string]bool{
	utils.ErrNotFound:   true,
	utils.ErrValidation: true,
	utils.ErrConflict:   true,
}

func (s *Simulator) pickAccount(rng *rand.Rand) *simAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[rng.Intn(len(s.accounts))]
}

// pickSpace favours low-numbered spaces following the Zipf distribution.
func (s *Simulator) pickSpace(zipf *rand.Zipf) models.SpaceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spaces[int(zipf.Uint64())%len(s.spaces)]
}

// pickPost favours recent posts.
func (s *Simulator) pickPost(rng *rand.Rand) (models.PostID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.posts)
	if n == 0 {
		return 0, false
	}
	window := 20
	if n < window {
		window = n
	}
	return s.posts[n-1-rng.Intn(window)], true
}

func (s *Simulator) pickComment(rng *rand.Rand, post models.PostID) (models.CommentID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := s.comments[post]
	if len(comments) == 0 {
		return 0, false
	}
	return comments[rng.Intn(len(comments))], true
}

func contentHash(rng *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 46)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

// actorFor occasionally acts on behalf of one of the account's spaces.
func (s *Simulator) actorFor(rng *rand.Rand, account *simAccount) models.Actor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(account.Spaces) > 0 && rng.Float64() < 0.2 {
		return models.SpaceActor(account.ID, account.Spaces[rng.Intn(len(account.Spaces))])
	}
	return models.AccountActor(account.ID)
}

func (s *Simulator) simulatePost(rng *rand.Rand, zipf *rand.Zipf, account *simAccount) {
	space := s.pickSpace(zipf)
	msg := &actors.CreatePostMsg{
		Actor:       s.actorFor(rng, account),
		SpaceID:     space,
		ContentHash: contentHash(rng),
		Extension:   models.Regular(),
	}
	shared := false
	if rng.Float64() < s.config.ShareProbability {
		if original, ok := s.pickPost(rng); ok {
			msg.Extension = models.SharingPost(original)
			shared = true
			if comment, ok := s.pickComment(rng, original); ok && rng.Intn(2) == 0 {
				msg.Extension = models.SharingComment(comment)
			}
		}
	}

	resp, err := s.send(msg)
	if err != nil {
		return
	}
	id := models.PostID(resp.(*actors.CreatedResponse).ID)

	s.mu.Lock()
	s.posts = append(s.posts, id)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalPosts++
	if shared {
		s.stats.TotalShares++
	}
	s.stats.mu.Unlock()
}

func (s *Simulator) simulateComment(rng *rand.Rand, account *simAccount) {
	post, ok := s.pickPost(rng)
	if !ok {
		return
	}
	msg := &actors.CreateCommentMsg{
		Actor:       s.actorFor(rng, account),
		PostID:      post,
		ContentHash: contentHash(rng),
	}
	if parent, ok := s.pickComment(rng, post); ok && rng.Float64() < 0.4 {
		msg.ParentID = &parent
	}

	resp, err := s.send(msg)
	if err != nil {
		return
	}
	id := models.CommentID(resp.(*actors.CreatedResponse).ID)

	s.mu.Lock()
	s.comments[post] = append(s.comments[post], id)
	s.mu.Unlock()

	s.stats.mu.Lock()
	s.stats.TotalComments++
	s.stats.mu.Unlock()
}

// simulateReaction creates, flips or withdraws the account's reaction on a
// post depending on what it already did there.
func (s *Simulator) simulateReaction(rng *rand.Rand, account *simAccount) {
	post, ok := s.pickPost(rng)
	if !ok {
		return
	}
	kind := models.Upvote
	if rng.Float64() < 0.25 {
		kind = models.Downvote
	}
	actor := models.AccountActor(account.ID)

	s.mu.RLock()
	existing, reacted := account.Reactions[post]
	s.mu.RUnlock()

	if !reacted {
		resp, err := s.send(&actors.CreateReactionMsg{Actor: actor, PostID: post, Kind: kind})
		if err != nil {
			return
		}
		s.mu.Lock()
		account.Reactions[post] = models.ReactionID(resp.(*actors.CreatedResponse).ID)
		s.mu.Unlock()
		s.stats.mu.Lock()
		s.stats.TotalReactions++
		s.stats.mu.Unlock()
		return
	}

	if rng.Intn(2) == 0 {
		if _, err := s.send(&actors.UpdateReactionMsg{Actor: actor, PostID: post, ReactionID: existing, Kind: kind}); err == nil {
			s.stats.mu.Lock()
			s.stats.TotalReactionUpdates++
			s.stats.mu.Unlock()
		}
		return
	}
	if _, err := s.send(&actors.DeleteReactionMsg{Actor: actor, PostID: post, ReactionID: existing}); err == nil {
		s.mu.Lock()
		delete(account.Reactions, post)
		s.mu.Unlock()
	}
}

func (s *Simulator) simulateFollow(zipf *rand.Zipf, account *simAccount) {
	space := s.pickSpace(zipf)
	actor := models.AccountActor(account.ID)

	s.mu.RLock()
	following := account.Following[space]
	s.mu.RUnlock()

	if following {
		if _, err := s.send(&actors.UnfollowSpaceMsg{Actor: actor, SpaceID: space}); err == nil {
			s.mu.Lock()
			delete(account.Following, space)
			s.mu.Unlock()
		}
		return
	}
	if _, err := s.send(&actors.FollowSpaceMsg{Actor: actor, SpaceID: space}); err == nil {
		s.mu.Lock()
		account.Following[space] = true
		s.mu.Unlock()
		s.stats.mu.Lock()
		s.stats.TotalFollows++
		s.stats.mu.Unlock()
	}
}

// simulateAccountFollow toggles a follow between two accounts. The engine
// rejects duplicates and self-follows, which shows up in the stats.
func (s *Simulator) simulateAccountFollow(rng *rand.Rand, account *simAccount) {
	target := s.pickAccount(rng)
	actor := models.AccountActor(account.ID)
	if rng.Intn(3) == 0 {
		if _, err := s.send(&actors.UnfollowAccountMsg{Actor: actor, Account: target.ID}); err == nil {
			s.stats.mu.Lock()
			s.stats.TotalUnfollows++
			s.stats.mu.Unlock()
		}
		return
	}
	if _, err := s.send(&actors.FollowAccountMsg{Actor: actor, Account: target.ID}); err == nil {
		s.stats.mu.Lock()
		s.stats.TotalFollows++
		s.stats.mu.Unlock()
	}
}

package simulator

import (
	"context"
	"fmt"

	"gator-social/internal/models"
	"gator-social/internal/utils"

	"go.uber.org/zap"
)

// Verify walks every entity the simulation created and compares stored
// counters with the indexes they summarize. It returns one line per
// mismatch.
func (s *Simulator) Verify(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	spaces := append([]models.SpaceID(nil), s.spaces...)
	accounts := append([]*simAccount(nil), s.accounts...)
	s.mu.RUnlock()

	var violations []string
	report := func(format string, args ...any) {
		violations = append(violations, fmt.Sprintf(format, args...))
	}

	for _, id := range spaces {
		space, err := s.engine.Space(ctx, id)
		if err != nil {
			return nil, err
		}
		followers, err := s.engine.SpaceFollowers(ctx, id)
		if err != nil {
			return nil, err
		}
		if int(space.Followers) != len(followers) {
			report("space %d: followers_count %d, index %d", id, space.Followers, len(followers))
		}
		posts, err := s.engine.PostIDsBySpace(ctx, id)
		if err != nil {
			return nil, err
		}
		if int(space.PostsCount) != len(posts) {
			report("space %d: posts_count %d, index %d", id, space.PostsCount, len(posts))
		}
		for _, postID := range posts {
			if err := s.verifyPost(ctx, postID, report); err != nil {
				return nil, err
			}
		}
	}

	for _, account := range accounts {
		social, err := s.engine.SocialAccount(ctx, account.ID)
		if utils.IsErrorCode(err, utils.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if social.Reputation < 1 {
			report("account %s: reputation %d below floor", account.ID, social.Reputation)
		}
		followed, err := s.engine.SpacesFollowedBy(ctx, models.Follower{Account: account.ID})
		if err != nil {
			return nil, err
		}
		if int(social.FollowingSpaces) != len(followed) {
			report("account %s: following_spaces_count %d, index %d", account.ID, social.FollowingSpaces, len(followed))
		}
		followers, err := s.engine.AccountFollowers(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if int(social.Followers) != len(followers) {
			report("account %s: followers_count %d, index %d", account.ID, social.Followers, len(followers))
		}
		following, err := s.engine.AccountsFollowedBy(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if int(social.FollowingAccts) != len(following) {
			report("account %s: following_accounts_count %d, index %d", account.ID, social.FollowingAccts, len(following))
		}
	}

	s.stats.mu.RLock()
	for _, detail := range s.stats.Unexpected {
		report("unexpected rejection: %s", detail)
	}
	s.stats.mu.RUnlock()

	if len(violations) > 0 {
		s.logger.Warn("Consistency check failed", zap.Int("violations", len(violations)))
	} else {
		s.logger.Info("Consistency check passed",
			zap.Int("spaces", len(spaces)),
			zap.Int("accounts", len(accounts)))
	}
	return violations, nil
}

func (s *Simulator) verifyPost(ctx context.Context, id models.PostID, report func(string, ...any)) error {
	post, err := s.engine.Post(ctx, id)
	if err != nil {
		return err
	}
	comments, err := s.engine.CommentIDsByPost(ctx, id)
	if err != nil {
		return err
	}
	if int(post.CommentsCount) != len(comments) {
		report("post %d: comments_count %d, index %d", id, post.CommentsCount, len(comments))
	}
	reactions, err := s.engine.PostReactionIDs(ctx, id)
	if err != nil {
		return err
	}
	if int(post.Upvotes+post.Downvotes) != len(reactions) {
		report("post %d: %d upvotes + %d downvotes, %d reactions", id, post.Upvotes, post.Downvotes, len(reactions))
	}
	shares, err := s.engine.SharedPostIDs(ctx, id)
	if err != nil {
		return err
	}
	if int(post.Shares) != len(shares) {
		report("post %d: shares_count %d, index %d", id, post.Shares, len(shares))
	}
	for _, commentID := range comments {
		comment, err := s.engine.Comment(ctx, commentID)
		if err != nil {
			return err
		}
		replies, err := s.engine.ReplyIDs(ctx, commentID)
		if err != nil {
			return err
		}
		if int(comment.DirectReplies) != len(replies) {
			report("comment %d: direct_replies_count %d, index %d", commentID, comment.DirectReplies, len(replies))
		}
	}
	return nil
}

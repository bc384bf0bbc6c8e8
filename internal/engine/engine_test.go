package engine

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"
	"time"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hash = strings.Repeat("h", 46)

type harness struct {
	t       *testing.T
	ctx     context.Context
	engine  *Engine
	backend *storage.MemoryBackend
	events  *events.Recorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	params := DefaultParams()
	params.HandleMinLen = 2
	backend := storage.NewMemoryBackend()
	rec := &events.Recorder{}
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return &harness{
		t:       t,
		ctx:     context.Background(),
		engine:  New(backend, Options{Params: params, Sink: rec, Clock: clock}),
		backend: backend,
		events:  rec,
	}
}

func (h *harness) space(id models.SpaceID) *models.Space {
	s, err := h.engine.Space(h.ctx, id)
	require.NoError(h.t, err)
	return s
}

func (h *harness) post(id models.PostID) *models.Post {
	p, err := h.engine.Post(h.ctx, id)
	require.NoError(h.t, err)
	return p
}

func (h *harness) comment(id models.CommentID) *models.Comment {
	c, err := h.engine.Comment(h.ctx, id)
	require.NoError(h.t, err)
	return c
}

func (h *harness) reputation(account uuid.UUID) uint32 {
	r, err := h.engine.Reputation(h.ctx, account)
	require.NoError(h.t, err)
	return r
}

func (h *harness) createSpace(actor models.Actor, handle string) models.SpaceID {
	id, err := h.engine.CreateSpace(h.ctx, actor, handle, nil)
	require.NoError(h.t, err)
	return id
}

func (h *harness) createPost(actor models.Actor, space models.SpaceID) models.PostID {
	id, err := h.engine.CreatePost(h.ctx, actor, space, hash, models.Regular())
	require.NoError(h.t, err)
	return id
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, utils.CodeOf(err), err.Error())
}

func TestSpaceFollowScenario(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())

	s1 := h.createSpace(alice, "h1")
	assert.Equal(t, uint32(1), h.space(s1).Followers)

	s2 := h.createSpace(alice, "h2")
	onBehalf := models.SpaceActor(alice.Account, s2)
	require.NoError(t, h.engine.FollowSpace(h.ctx, onBehalf, s1))

	assert.Equal(t, uint32(2), h.space(s1).Followers)
	assert.Equal(t, uint16(1), h.space(s2).Following)
	following, err := h.engine.IsSpaceFollowedBy(h.ctx, models.Follower{Space: s2}, s1)
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, h.engine.UnfollowSpace(h.ctx, onBehalf, s1))
	assert.Equal(t, uint32(1), h.space(s1).Followers)
	assert.Equal(t, uint16(0), h.space(s2).Following)
	following, err = h.engine.IsSpaceFollowedBy(h.ctx, models.Follower{Space: s2}, s1)
	require.NoError(t, err)
	assert.False(t, following)

	// Same owner, so following never scored.
	assert.Equal(t, int32(0), h.space(s1).Score)
}

func TestFollowSpaceScoresOwner(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "alices")

	require.NoError(t, h.engine.FollowSpace(h.ctx, bob, s))
	assert.Equal(t, int32(7), h.space(s).Score)
	assert.Equal(t, uint32(8), h.reputation(alice.Account))

	acc, err := h.engine.SocialAccount(h.ctx, bob.Account)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), acc.FollowingSpaces)

	assertCode(t, h.engine.FollowSpace(h.ctx, bob, s), utils.ErrConflict)
	assertCode(t, h.engine.FollowSpace(h.ctx, models.SpaceActor(alice.Account, s), s), utils.ErrValidation)

	require.NoError(t, h.engine.UnfollowSpace(h.ctx, bob, s))
	assert.Equal(t, int32(0), h.space(s).Score)
	assert.Equal(t, uint32(1), h.reputation(alice.Account))
	assertCode(t, h.engine.UnfollowSpace(h.ctx, bob, s), utils.ErrConflict)
}

func TestCommentScenario(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	s1 := h.createSpace(alice, "h1")
	p1 := h.createPost(alice, s1)

	c1, err := h.engine.CreateComment(h.ctx, alice, p1, nil, hash)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.post(p1).CommentsCount)
	assert.Nil(t, h.comment(c1).ParentID)

	c2, err := h.engine.CreateComment(h.ctx, alice, p1, &c1, hash)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.comment(c1).DirectReplies)
	assert.Equal(t, uint32(2), h.post(p1).CommentsCount)
	require.NotNil(t, h.comment(c2).ParentID)
	assert.Equal(t, c1, *h.comment(c2).ParentID)

	ids, err := h.engine.CommentIDsByPost(h.ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, []models.CommentID{c1, c2}, ids)
	replies, err := h.engine.ReplyIDs(h.ctx, c1)
	require.NoError(t, err)
	assert.Equal(t, []models.CommentID{c2}, replies)
}

func TestCommentParentMustBelongToPost(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p1 := h.createPost(alice, s)
	p2 := h.createPost(alice, s)
	c1, err := h.engine.CreateComment(h.ctx, alice, p1, nil, hash)
	require.NoError(t, err)

	before, err := h.engine.Height(h.ctx)
	require.NoError(t, err)
	h.events.Reset()

	_, err = h.engine.CreateComment(h.ctx, alice, p2, &c1, hash)
	assertCode(t, err, utils.ErrValidation)

	missing := models.CommentID(99)
	_, err = h.engine.CreateComment(h.ctx, alice, p2, &missing, hash)
	assertCode(t, err, utils.ErrNotFound)

	assert.Equal(t, uint32(0), h.post(p2).CommentsCount)
	assert.Equal(t, uint32(0), h.comment(c1).DirectReplies)
	after, err := h.engine.Height(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, h.events.Events())
}

func TestRepeatedCommentTogglesPostScore(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)

	_, err := h.engine.CreateComment(h.ctx, bob, p, nil, hash)
	require.NoError(t, err)
	assert.Equal(t, int32(5), h.post(p).Score)
	assert.Equal(t, int32(5), h.space(s).Score)
	assert.Equal(t, uint32(6), h.reputation(alice.Account))
	_, applied, err := h.engine.LedgerEntry(h.ctx, bob, scoring.PostTarget(p), scoring.CreateComment)
	require.NoError(t, err)
	assert.True(t, applied)

	_, err = h.engine.CreateComment(h.ctx, bob, p, nil, hash)
	require.NoError(t, err)
	assert.Equal(t, int32(0), h.post(p).Score)
	assert.Equal(t, int32(0), h.space(s).Score)
	assert.Equal(t, uint32(1), h.reputation(alice.Account))
	assert.Equal(t, uint32(2), h.post(p).CommentsCount)
	_, applied, err = h.engine.LedgerEntry(h.ctx, bob, scoring.PostTarget(p), scoring.CreateComment)
	require.NoError(t, err)
	assert.False(t, applied)

	_, err = h.engine.CreateComment(h.ctx, bob, p, nil, hash)
	require.NoError(t, err)
	assert.Equal(t, int32(5), h.post(p).Score)
	assert.Equal(t, uint32(6), h.reputation(alice.Account))
}

func TestReactionScenario(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	carol := models.AccountActor(uuid.New())
	dave := models.AccountActor(uuid.New())

	s := h.createSpace(bob, "bobs")
	p := h.createPost(bob, s)
	require.NoError(t, h.engine.FollowAccount(h.ctx, carol, bob.Account))
	require.NoError(t, h.engine.FollowAccount(h.ctx, dave, bob.Account))
	assert.Equal(t, uint32(7), h.reputation(bob.Account))

	upDiff, err := scoring.ScoreDiff(h.reputation(alice.Account), scoring.UpvotePost, h.engine.Params().Weights)
	require.NoError(t, err)
	r, err := h.engine.CreatePostReaction(h.ctx, alice, p, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, uint32(7)+uint32(upDiff), h.reputation(bob.Account))
	assert.Equal(t, uint32(1), h.post(p).Upvotes)
	assert.Equal(t, int32(5), h.post(p).Score)
	assert.Equal(t, int32(5), h.space(s).Score)

	require.NoError(t, h.engine.UpdatePostReaction(h.ctx, alice, p, r, models.Downvote))
	post := h.post(p)
	assert.Equal(t, uint32(0), post.Upvotes)
	assert.Equal(t, uint32(1), post.Downvotes)
	assert.Equal(t, int32(-3), post.Score)
	assert.Equal(t, uint32(4), h.reputation(bob.Account))

	_, applied, err := h.engine.LedgerEntry(h.ctx, alice, scoring.PostTarget(p), scoring.UpvotePost)
	require.NoError(t, err)
	assert.False(t, applied)
	entry, applied, err := h.engine.LedgerEntry(h.ctx, alice, scoring.PostTarget(p), scoring.DownvotePost)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, scoring.Entry{Owner: bob.Account, ScoreDelta: -3, ReputationDelta: -3}, entry)

	// Upvote reversal comes before the downvote is applied.
	var reps []uint32
	for _, ev := range h.events.OfType(events.ReputationChanged) {
		reps = append(reps, ev.Reputation)
	}
	assert.Equal(t, []uint32{4, 7, 12, 7, 4}, reps)

	require.NoError(t, h.engine.DeletePostReaction(h.ctx, alice, p, r))
	assert.Equal(t, int32(0), h.post(p).Score)
	assert.Equal(t, int32(0), h.space(s).Score)
	assert.Equal(t, uint32(7), h.reputation(bob.Account))
	_, found, err := h.engine.PostReactionBy(h.ctx, alice, p)
	require.NoError(t, err)
	assert.False(t, found)
	ids, err := h.engine.PostReactionIDs(h.ctx, p)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReactionFloorRecordsZero(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(bob, "bobs")
	p := h.createPost(bob, s)

	r, err := h.engine.CreatePostReaction(h.ctx, alice, p, models.Downvote)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.reputation(bob.Account))
	entry, _, err := h.engine.LedgerEntry(h.ctx, alice, scoring.PostTarget(p), scoring.DownvotePost)
	require.NoError(t, err)
	assert.Equal(t, int32(0), entry.ReputationDelta)
	assert.Equal(t, int32(-3), entry.ScoreDelta)

	require.NoError(t, h.engine.DeletePostReaction(h.ctx, alice, p, r))
	assert.Equal(t, uint32(1), h.reputation(bob.Account))
	assert.Equal(t, int32(0), h.post(p).Score)
}

func TestReactionErrors(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)
	other := h.createPost(alice, s)

	r, err := h.engine.CreatePostReaction(h.ctx, bob, p, models.Upvote)
	require.NoError(t, err)
	_, err = h.engine.CreatePostReaction(h.ctx, bob, p, models.Downvote)
	assertCode(t, err, utils.ErrConflict)
	_, err = h.engine.CreatePostReaction(h.ctx, bob, p, models.ReactionKind("laugh"))
	assertCode(t, err, utils.ErrValidation)

	assertCode(t, h.engine.UpdatePostReaction(h.ctx, bob, p, r, models.Upvote), utils.ErrConflict)
	assertCode(t, h.engine.UpdatePostReaction(h.ctx, alice, p, r, models.Downvote), utils.ErrForbidden)
	assertCode(t, h.engine.UpdatePostReaction(h.ctx, bob, other, r, models.Downvote), utils.ErrNotFound)
	assertCode(t, h.engine.DeletePostReaction(h.ctx, alice, p, r), utils.ErrForbidden)
	_, err = h.engine.CreatePostReaction(h.ctx, bob, 42, models.Upvote)
	assertCode(t, err, utils.ErrNotFound)

	require.NoError(t, h.engine.DeletePostReaction(h.ctx, bob, p, r))
	assertCode(t, h.engine.DeletePostReaction(h.ctx, bob, p, r), utils.ErrNotFound)
	assert.Equal(t, uint32(0), h.post(p).Upvotes)
}

func TestSelfReactionDoesNotScore(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)

	r, err := h.engine.CreatePostReaction(h.ctx, alice, p, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.post(p).Upvotes)
	assert.Equal(t, int32(0), h.post(p).Score)
	require.NoError(t, h.engine.UpdatePostReaction(h.ctx, alice, p, r, models.Downvote))
	require.NoError(t, h.engine.DeletePostReaction(h.ctx, alice, p, r))
	assert.Equal(t, uint32(1), h.reputation(alice.Account))
}

func TestCommentReactions(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)
	c, err := h.engine.CreateComment(h.ctx, alice, p, nil, hash)
	require.NoError(t, err)

	r, err := h.engine.CreateCommentReaction(h.ctx, bob, c, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, int32(4), h.comment(c).Score)
	assert.Equal(t, uint32(5), h.reputation(alice.Account))
	// Comment scores do not reach the post.
	assert.Equal(t, int32(0), h.post(p).Score)

	require.NoError(t, h.engine.UpdateCommentReaction(h.ctx, bob, c, r, models.Downvote))
	assert.Equal(t, int32(-2), h.comment(c).Score)
	assert.Equal(t, uint32(1), h.comment(c).Downvotes)
	assert.Equal(t, uint32(0), h.comment(c).Upvotes)
	assert.Equal(t, uint32(1), h.reputation(alice.Account))

	require.NoError(t, h.engine.DeleteCommentReaction(h.ctx, bob, c, r))
	assert.Equal(t, int32(0), h.comment(c).Score)
	ids, err := h.engine.CommentReactionIDs(h.ctx, c)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestShareScenario(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s1 := h.createSpace(alice, "h1")
	s2 := h.createSpace(bob, "h2")
	p1 := h.createPost(alice, s1)

	p2, err := h.engine.CreatePost(h.ctx, bob, s2, "", models.SharingPost(p1))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.post(p1).Shares)
	assert.Equal(t, uint32(6), h.reputation(alice.Account))

	_, err = h.engine.CreatePost(h.ctx, bob, s2, "", models.SharingPost(p2))
	assertCode(t, err, utils.ErrValidation)
	assert.Contains(t, err.Error(), "cannot share a shared post")
	assert.Equal(t, uint32(1), h.space(s2).PostsCount)

	p3, err := h.engine.CreatePost(h.ctx, bob, s2, "", models.SharingPost(p1))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), h.post(p1).Shares)
	assert.Equal(t, uint32(6), h.reputation(alice.Account), "re-shares do not score again")

	count, err := h.engine.PostSharesBy(h.ctx, bob, p1)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), count)
	shared, err := h.engine.SharedPostIDs(h.ctx, p1)
	require.NoError(t, err)
	assert.Equal(t, []models.PostID{p2, p3}, shared)

	_, err = h.engine.CreatePost(h.ctx, bob, s2, "", models.SharingPost(77))
	assertCode(t, err, utils.ErrNotFound)
	_, err = h.engine.CreatePost(h.ctx, bob, s2, "short", models.SharingPost(p1))
	assertCode(t, err, utils.ErrValidation)
}

func TestShareComment(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)
	c, err := h.engine.CreateComment(h.ctx, alice, p, nil, hash)
	require.NoError(t, err)

	shared, err := h.engine.CreatePost(h.ctx, bob, s, "", models.SharingComment(c))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), h.comment(c).Shares)
	assert.Equal(t, int32(3), h.comment(c).Score)
	ids, err := h.engine.SharedPostIDsByComment(h.ctx, c)
	require.NoError(t, err)
	assert.Equal(t, []models.PostID{shared}, ids)
	count, err := h.engine.CommentSharesBy(h.ctx, bob, c)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
	assert.Len(t, h.events.OfType(events.CommentShared), 1)
}

func TestHandleUniqueness(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	s1 := h.createSpace(alice, "h1")
	s2 := h.createSpace(alice, "h2")

	_, err := h.engine.CreateSpace(h.ctx, alice, "h1", nil)
	assertCode(t, err, utils.ErrValidation)

	taken := "h1"
	assertCode(t, h.engine.UpdateSpace(h.ctx, alice, s2, models.SpaceUpdate{Handle: &taken}), utils.ErrValidation)
	assert.Equal(t, "h2", h.space(s2).Handle)
	assert.Empty(t, h.space(s2).EditHistory)

	fresh := "fresh_1"
	require.NoError(t, h.engine.UpdateSpace(h.ctx, alice, s1, models.SpaceUpdate{Handle: &fresh}))
	byHandle, err := h.engine.SpaceByHandle(h.ctx, "fresh_1")
	require.NoError(t, err)
	assert.Equal(t, s1, byHandle.ID)
	_, err = h.engine.SpaceByHandle(h.ctx, "h1")
	assertCode(t, err, utils.ErrNotFound)

	space := h.space(s1)
	require.Len(t, space.EditHistory, 1)
	require.NotNil(t, space.EditHistory[0].OldData.Handle)
	assert.Equal(t, "h1", *space.EditHistory[0].OldData.Handle)
	assert.Nil(t, space.EditHistory[0].OldData.Hidden)
	require.NotNil(t, space.Updated)
	assert.Equal(t, alice, space.Updated.Actor)

	// The freed handle can be reused.
	_, err = h.engine.CreateSpace(h.ctx, alice, "h1", nil)
	require.NoError(t, err)
}

func TestHandleValidation(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	for _, handle := range []string{"a", "Upper", "with space", strings.Repeat("x", 51)} {
		_, err := h.engine.CreateSpace(h.ctx, alice, handle, nil)
		assertCode(t, err, utils.ErrValidation)
	}
	bad := "tiny"
	_, err := h.engine.CreateSpace(h.ctx, alice, "ok_handle", &bad)
	assertCode(t, err, utils.ErrValidation)
}

func TestUpdateSpace(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")

	hidden := true
	assertCode(t, h.engine.UpdateSpace(h.ctx, bob, s, models.SpaceUpdate{Hidden: &hidden}), utils.ErrForbidden)
	assertCode(t, h.engine.UpdateSpace(h.ctx, models.SpaceActor(alice.Account, s), s, models.SpaceUpdate{Hidden: &hidden}), utils.ErrForbidden)
	assertCode(t, h.engine.UpdateSpace(h.ctx, alice, 9, models.SpaceUpdate{Hidden: &hidden}), utils.ErrNotFound)
	assertCode(t, h.engine.UpdateSpace(h.ctx, alice, s, models.SpaceUpdate{}), utils.ErrValidation)

	same := "h1"
	assertCode(t, h.engine.UpdateSpace(h.ctx, alice, s, models.SpaceUpdate{Handle: &same}), utils.ErrValidation)

	newHash := hash
	require.NoError(t, h.engine.UpdateSpace(h.ctx, alice, s, models.SpaceUpdate{Hidden: &hidden, ContentHash: &newHash}))
	space := h.space(s)
	assert.True(t, space.Hidden)
	require.NotNil(t, space.ContentHash)
	assert.Equal(t, hash, *space.ContentHash)
	require.Len(t, space.EditHistory, 1)
	assert.Equal(t, false, *space.EditHistory[0].OldData.Hidden)
	assert.Equal(t, "", *space.EditHistory[0].OldData.ContentHash)
	assert.Nil(t, space.EditHistory[0].OldData.Handle)
}

func TestActingOnBehalf(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")

	_, err := h.engine.CreatePost(h.ctx, models.SpaceActor(bob.Account, s), s, hash, models.Regular())
	assertCode(t, err, utils.ErrForbidden)
	_, err = h.engine.CreatePost(h.ctx, models.SpaceActor(alice.Account, 55), s, hash, models.Regular())
	assertCode(t, err, utils.ErrNotFound)

	asSpace := models.SpaceActor(alice.Account, s)
	p, err := h.engine.CreatePost(h.ctx, asSpace, s, hash, models.Regular())
	require.NoError(t, err)
	assert.Equal(t, asSpace, h.post(p).Created.Actor)

	// Authorization compares the whole actor.
	hidden := true
	assertCode(t, h.engine.UpdatePost(h.ctx, alice, p, models.PostUpdate{Hidden: &hidden}), utils.ErrForbidden)
	require.NoError(t, h.engine.UpdatePost(h.ctx, asSpace, p, models.PostUpdate{Hidden: &hidden}))

	// A space created on behalf of another space is followed by that space.
	child, err := h.engine.CreateSpace(h.ctx, asSpace, "child", nil)
	require.NoError(t, err)
	followers, err := h.engine.SpaceFollowers(h.ctx, child)
	require.NoError(t, err)
	assert.Equal(t, []models.Follower{{Space: s}}, followers)
	assert.Equal(t, uint16(1), h.space(s).Following)
	owned, err := h.engine.SpaceIDsByOwner(h.ctx, alice.Account)
	require.NoError(t, err)
	assert.Equal(t, []models.SpaceID{s, child}, owned)
}

func TestMovePost(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s1 := h.createSpace(alice, "h1")
	s2 := h.createSpace(alice, "h2")
	p := h.createPost(alice, s1)
	_, err := h.engine.CreatePostReaction(h.ctx, bob, p, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, int32(5), h.space(s1).Score)

	require.NoError(t, h.engine.UpdatePost(h.ctx, alice, p, models.PostUpdate{SpaceID: &s2}))
	assert.Equal(t, uint32(0), h.space(s1).PostsCount)
	assert.Equal(t, int32(0), h.space(s1).Score)
	assert.Equal(t, uint32(1), h.space(s2).PostsCount)
	assert.Equal(t, int32(5), h.space(s2).Score)
	assert.Equal(t, s2, h.post(p).SpaceID)

	ids, err := h.engine.PostIDsBySpace(h.ctx, s1)
	require.NoError(t, err)
	assert.Empty(t, ids)
	ids, err = h.engine.PostIDsBySpace(h.ctx, s2)
	require.NoError(t, err)
	assert.Equal(t, []models.PostID{p}, ids)

	history := h.post(p).EditHistory
	require.Len(t, history, 1)
	assert.Equal(t, s1, *history[0].OldData.SpaceID)

	missing := models.SpaceID(404)
	assertCode(t, h.engine.UpdatePost(h.ctx, alice, p, models.PostUpdate{SpaceID: &missing}), utils.ErrNotFound)
	assertCode(t, h.engine.UpdatePost(h.ctx, alice, p, models.PostUpdate{SpaceID: &s2}), utils.ErrValidation)
}

func TestUpdateComment(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)
	c, err := h.engine.CreateComment(h.ctx, bob, p, nil, hash)
	require.NoError(t, err)

	other := strings.Repeat("k", 46)
	assertCode(t, h.engine.UpdateComment(h.ctx, alice, c, models.CommentUpdate{ContentHash: &other}), utils.ErrForbidden)
	same := hash
	assertCode(t, h.engine.UpdateComment(h.ctx, bob, c, models.CommentUpdate{ContentHash: &same}), utils.ErrValidation)
	require.NoError(t, h.engine.UpdateComment(h.ctx, bob, c, models.CommentUpdate{ContentHash: &other}))

	comment := h.comment(c)
	assert.Equal(t, other, comment.ContentHash)
	require.Len(t, comment.EditHistory, 1)
	assert.Equal(t, hash, *comment.EditHistory[0].OldData.ContentHash)
}

func TestFollowAccount(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())

	assertCode(t, h.engine.FollowAccount(h.ctx, alice, alice.Account), utils.ErrValidation)
	assertCode(t, h.engine.UnfollowAccount(h.ctx, alice, bob.Account), utils.ErrNotFound)

	require.NoError(t, h.engine.FollowAccount(h.ctx, alice, bob.Account))
	assertCode(t, h.engine.FollowAccount(h.ctx, alice, bob.Account), utils.ErrConflict)

	bobAcc, err := h.engine.SocialAccount(h.ctx, bob.Account)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bobAcc.Followers)
	assert.Equal(t, uint32(4), bobAcc.Reputation)
	followers, err := h.engine.AccountFollowers(h.ctx, bob.Account)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice.Account}, followers)
	followed, err := h.engine.AccountsFollowedBy(h.ctx, alice.Account)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.Account}, followed)

	require.NoError(t, h.engine.UnfollowAccount(h.ctx, alice, bob.Account))
	assert.Equal(t, uint32(1), h.reputation(bob.Account))
	ok, err := h.engine.IsAccountFollowedBy(h.ctx, alice.Account, bob.Account)
	require.NoError(t, err)
	assert.False(t, ok)
	assertCode(t, h.engine.UnfollowAccount(h.ctx, alice, bob.Account), utils.ErrConflict)
}

func TestProfiles(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())

	username := "bob"
	assertCode(t, h.engine.UpdateProfile(h.ctx, alice, models.ProfileUpdate{Username: &username}), utils.ErrNotFound)

	require.NoError(t, h.engine.CreateProfile(h.ctx, alice, "alice", hash))
	assertCode(t, h.engine.CreateProfile(h.ctx, alice, "alice2", hash), utils.ErrConflict)
	assertCode(t, h.engine.CreateProfile(h.ctx, bob, "alice", hash), utils.ErrValidation)
	assertCode(t, h.engine.CreateProfile(h.ctx, bob, "b!", hash), utils.ErrValidation)
	assertCode(t, h.engine.CreateProfile(h.ctx, bob, "b_o_b", hash), utils.ErrValidation)

	renamed := "alicia"
	require.NoError(t, h.engine.UpdateProfile(h.ctx, alice, models.ProfileUpdate{Username: &renamed}))
	id, err := h.engine.AccountByUsername(h.ctx, "alicia")
	require.NoError(t, err)
	assert.Equal(t, alice.Account, id)
	_, err = h.engine.AccountByUsername(h.ctx, "alice")
	assertCode(t, err, utils.ErrNotFound)

	acc, err := h.engine.SocialAccount(h.ctx, alice.Account)
	require.NoError(t, err)
	require.NotNil(t, acc.Profile)
	require.Len(t, acc.Profile.EditHistory, 1)
	assert.Equal(t, "alice", *acc.Profile.EditHistory[0].OldData.Username)
	assert.Len(t, h.events.OfType(events.ProfileUpdated), 1)
}

func TestArithmeticOverflowLeavesStoreUntouched(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")

	require.NoError(t, h.engine.exec(h.ctx, "seed", alice, func(o *op) error {
		space, err := o.space(s)
		if err != nil {
			return err
		}
		space.PostsCount = math.MaxUint32
		o.spaces.put(s, space)
		return nil
	}))
	size := h.backend.Len()
	h.events.Reset()

	_, err := h.engine.CreatePost(h.ctx, alice, s, hash, models.Regular())
	assertCode(t, err, utils.ErrArithmetic)
	assert.Equal(t, size, h.backend.Len())
	assert.Empty(t, h.events.Events())
	ids, err := h.engine.PostIDsBySpace(h.ctx, s)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestScoreOverflowAbortsReaction(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)

	require.NoError(t, h.engine.exec(h.ctx, "seed", alice, func(o *op) error {
		post, err := o.post(p)
		if err != nil {
			return err
		}
		post.Score = math.MaxInt32 - 1
		o.posts.put(p, post)
		return nil
	}))
	size := h.backend.Len()
	repBefore := h.reputation(alice.Account)
	spaceBefore := h.space(s).Score
	h.events.Reset()

	_, err := h.engine.CreatePostReaction(h.ctx, bob, p, models.Upvote)
	assertCode(t, err, utils.ErrArithmetic)

	assert.Equal(t, size, h.backend.Len())
	assert.Empty(t, h.events.Events())
	post := h.post(p)
	assert.Equal(t, int32(math.MaxInt32-1), post.Score)
	assert.Equal(t, uint32(0), post.Upvotes)
	assert.Equal(t, spaceBefore, h.space(s).Score)
	assert.Equal(t, repBefore, h.reputation(alice.Account))
	ids, err := h.engine.PostReactionIDs(h.ctx, p)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, found, err := h.engine.PostReactionBy(h.ctx, bob, p)
	require.NoError(t, err)
	assert.False(t, found)
	_, applied, err := h.engine.LedgerEntry(h.ctx, bob, scoring.PostTarget(p), scoring.UpvotePost)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestReputationOverflowAbortsReaction(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)

	require.NoError(t, h.engine.exec(h.ctx, "seed", alice, func(o *op) error {
		account, err := o.account(alice.Account)
		if err != nil {
			return err
		}
		account.Reputation = math.MaxUint32 - 1
		o.accounts.put(alice.Account, account)
		return nil
	}))
	size := h.backend.Len()
	h.events.Reset()

	_, err := h.engine.CreatePostReaction(h.ctx, bob, p, models.Upvote)
	assertCode(t, err, utils.ErrArithmetic)

	assert.Equal(t, size, h.backend.Len())
	assert.Empty(t, h.events.Events())
	assert.Equal(t, uint32(math.MaxUint32-1), h.reputation(alice.Account))
	post := h.post(p)
	assert.Equal(t, int32(0), post.Score)
	assert.Equal(t, uint32(0), post.Upvotes)
	assert.Equal(t, int32(0), h.space(s).Score)
	ids, err := h.engine.PostReactionIDs(h.ctx, p)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, found, err := h.engine.PostReactionBy(h.ctx, bob, p)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMissingLedgerEntryIsInvariantViolation(t *testing.T) {
	h := newHarness(t)
	alice := models.AccountActor(uuid.New())
	bob := models.AccountActor(uuid.New())
	s := h.createSpace(alice, "h1")
	p := h.createPost(alice, s)

	err := h.engine.exec(h.ctx, "revert", bob, func(o *op) error {
		post, err := o.post(p)
		if err != nil {
			return err
		}
		return o.revertScore(o.postScore(post), scoring.UpvotePost)
	})
	assertCode(t, err, utils.ErrInvariantViolation)
}

func TestStrictContentHash(t *testing.T) {
	params := DefaultParams()
	params.StrictCID = true
	eng := New(storage.NewMemoryBackend(), Options{Params: params})
	ctx := context.Background()
	alice := models.AccountActor(uuid.New())

	s, err := eng.CreateSpace(ctx, alice, "strict", nil)
	require.NoError(t, err)
	_, err = eng.CreatePost(ctx, alice, s, hash, models.Regular())
	assertCode(t, err, utils.ErrValidation)
	_, err = eng.CreatePost(ctx, alice, s, "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", models.Regular())
	require.NoError(t, err)
}

// Random reaction traffic never pushes reputation below the floor, follower
// counts match their indexes, and retracting everything restores scores.
func TestRandomizedInvariants(t *testing.T) {
	h := newHarness(t)
	rng := rand.New(rand.NewSource(7))

	actors := make([]models.Actor, 5)
	for i := range actors {
		actors[i] = models.AccountActor(uuid.New())
	}
	spaces := make([]models.SpaceID, len(actors))
	posts := make([]models.PostID, len(actors))
	for i, a := range actors {
		spaces[i] = h.createSpace(a, "space_"+string(rune('a'+i)))
		posts[i] = h.createPost(a, spaces[i])
	}

	type key struct {
		actor int
		post  int
	}
	live := map[key]models.ReactionID{}
	kinds := []models.ReactionKind{models.Upvote, models.Downvote}

	for step := 0; step < 300; step++ {
		k := key{actor: rng.Intn(len(actors)), post: rng.Intn(len(posts))}
		a := actors[k.actor]
		switch rng.Intn(4) {
		case 0:
			if r, ok := live[k]; ok {
				require.NoError(t, h.engine.DeletePostReaction(h.ctx, a, posts[k.post], r))
				delete(live, k)
			}
		case 1:
			if r, ok := live[k]; ok {
				current, err := h.engine.Reaction(h.ctx, r)
				require.NoError(t, err)
				next := models.Upvote
				if current.Kind == models.Upvote {
					next = models.Downvote
				}
				require.NoError(t, h.engine.UpdatePostReaction(h.ctx, a, posts[k.post], r, next))
			}
		case 2:
			s := spaces[rng.Intn(len(spaces))]
			err := h.engine.FollowSpace(h.ctx, a, s)
			if err != nil {
				require.Equal(t, utils.ErrConflict, utils.CodeOf(err))
				require.NoError(t, h.engine.UnfollowSpace(h.ctx, a, s))
			}
		default:
			if _, ok := live[k]; !ok {
				r, err := h.engine.CreatePostReaction(h.ctx, a, posts[k.post], kinds[rng.Intn(2)])
				require.NoError(t, err)
				live[k] = r
			}
		}

		for _, a := range actors {
			require.GreaterOrEqual(t, h.reputation(a.Account), scoring.MinReputation)
		}
	}

	for _, s := range spaces {
		followers, err := h.engine.SpaceFollowers(h.ctx, s)
		require.NoError(t, err)
		assert.Equal(t, int(h.space(s).Followers), len(followers))
	}

	for k, r := range live {
		require.NoError(t, h.engine.DeletePostReaction(h.ctx, actors[k.actor], posts[k.post], r))
	}
	for _, p := range posts {
		post := h.post(p)
		assert.Equal(t, int32(0), post.Score)
		assert.Zero(t, post.Upvotes)
		assert.Zero(t, post.Downvotes)
	}
}

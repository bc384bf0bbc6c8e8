package engine

import (
	"context"

	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

func toIDs[T ~uint64](raw []uint64) []T {
	out := make([]T, len(raw))
	for i, v := range raw {
		out[i] = T(v)
	}
	return out
}

func loadEntity[T any](ctx context.Context, e *Engine, key storage.Key, what string, id any) (*T, error) {
	var out *T
	err := e.read(ctx, func(tx *storage.Tx) error {
		v, found, err := storage.Load[T](tx, key)
		if err != nil {
			return err
		}
		if !found {
			return utils.NewNotFoundError("%s %v was not found", what, id)
		}
		out = v
		return nil
	})
	return out, err
}

func listIDs[T ~uint64](ctx context.Context, e *Engine, prefix storage.Key) ([]T, error) {
	var out []T
	err := e.read(ctx, func(tx *storage.Tx) error {
		raw, err := storage.TailIDs(tx, prefix)
		out = toIDs[T](raw)
		return err
	})
	return out, err
}

func listAccounts(ctx context.Context, e *Engine, prefix storage.Key) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := e.read(ctx, func(tx *storage.Tx) error {
		return tx.Scan(prefix, func(k, _ []byte) error {
			out = append(out, storage.TailAccount(k))
			return nil
		})
	})
	return out, err
}

func exists(ctx context.Context, e *Engine, key storage.Key) (bool, error) {
	var found bool
	err := e.read(ctx, func(tx *storage.Tx) error {
		var err error
		found, err = tx.Has(key)
		return err
	})
	return found, err
}

// Height is the number of commands committed so far.
func (e *Engine) Height(ctx context.Context) (uint64, error) {
	var height uint64
	err := e.read(ctx, func(tx *storage.Tx) error {
		next, found, err := storage.Load[uint64](tx, heightKey)
		if found {
			height = *next - 1
		}
		return err
	})
	return height, err
}

func (e *Engine) Space(ctx context.Context, id models.SpaceID) (*models.Space, error) {
	return loadEntity[models.Space](ctx, e, spaceByIDKey.U64(uint64(id)), "space", id)
}

func (e *Engine) SpaceByHandle(ctx context.Context, handle string) (*models.Space, error) {
	var id models.SpaceID
	err := e.read(ctx, func(tx *storage.Tx) error {
		v, found, err := storage.Load[models.SpaceID](tx, handleKey(handle))
		if err != nil {
			return err
		}
		if !found {
			return utils.NewNotFoundError("space with handle %q was not found", handle)
		}
		id = *v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.Space(ctx, id)
}

func (e *Engine) SpaceIDsByOwner(ctx context.Context, account uuid.UUID) ([]models.SpaceID, error) {
	return listIDs[models.SpaceID](ctx, e, spaceIDsByOwnerKey.Account(account))
}

func (e *Engine) SpaceFollowers(ctx context.Context, id models.SpaceID) ([]models.Follower, error) {
	var out []models.Follower
	err := e.read(ctx, func(tx *storage.Tx) error {
		var err error
		out, err = storage.LoadAll[models.Follower](tx, spaceFollowersKey.U64(uint64(id)))
		return err
	})
	return out, err
}

func (e *Engine) SpacesFollowedBy(ctx context.Context, f models.Follower) ([]models.SpaceID, error) {
	return listIDs[models.SpaceID](ctx, e, withFollower(spacesFollowedKey, f))
}

func (e *Engine) IsSpaceFollowedBy(ctx context.Context, f models.Follower, id models.SpaceID) (bool, error) {
	return exists(ctx, e, spaceFollowedKey(f, id))
}

func (e *Engine) Post(ctx context.Context, id models.PostID) (*models.Post, error) {
	return loadEntity[models.Post](ctx, e, postByIDKey.U64(uint64(id)), "post", id)
}

func (e *Engine) PostIDsBySpace(ctx context.Context, id models.SpaceID) ([]models.PostID, error) {
	return listIDs[models.PostID](ctx, e, postIDsBySpaceKey.U64(uint64(id)))
}

func (e *Engine) SharedPostIDs(ctx context.Context, original models.PostID) ([]models.PostID, error) {
	return listIDs[models.PostID](ctx, e, sharedPostsByPostKey.U64(uint64(original)))
}

func (e *Engine) PostSharesBy(ctx context.Context, actor models.Actor, id models.PostID) (uint32, error) {
	return shareCount(ctx, e, withActor(postSharesByActorKey, actor).U64(uint64(id)))
}

func (e *Engine) Comment(ctx context.Context, id models.CommentID) (*models.Comment, error) {
	return loadEntity[models.Comment](ctx, e, commentByIDKey.U64(uint64(id)), "comment", id)
}

func (e *Engine) CommentIDsByPost(ctx context.Context, id models.PostID) ([]models.CommentID, error) {
	return listIDs[models.CommentID](ctx, e, commentIDsByPostKey.U64(uint64(id)))
}

func (e *Engine) ReplyIDs(ctx context.Context, id models.CommentID) ([]models.CommentID, error) {
	return listIDs[models.CommentID](ctx, e, replyIDsByCommentKey.U64(uint64(id)))
}

func (e *Engine) SharedPostIDsByComment(ctx context.Context, original models.CommentID) ([]models.PostID, error) {
	return listIDs[models.PostID](ctx, e, sharedPostsByCommentKey.U64(uint64(original)))
}

func (e *Engine) CommentSharesBy(ctx context.Context, actor models.Actor, id models.CommentID) (uint32, error) {
	return shareCount(ctx, e, withActor(commentSharesByActorKey, actor).U64(uint64(id)))
}

func shareCount(ctx context.Context, e *Engine, key storage.Key) (uint32, error) {
	var count uint32
	err := e.read(ctx, func(tx *storage.Tx) error {
		v, found, err := storage.Load[uint32](tx, key)
		if found {
			count = *v
		}
		return err
	})
	return count, err
}

func (e *Engine) Reaction(ctx context.Context, id models.ReactionID) (*models.Reaction, error) {
	return loadEntity[models.Reaction](ctx, e, reactionByIDKey.U64(uint64(id)), "reaction", id)
}

func (e *Engine) PostReactionIDs(ctx context.Context, id models.PostID) ([]models.ReactionID, error) {
	return listIDs[models.ReactionID](ctx, e, reactionIDsByPostKey.U64(uint64(id)))
}

func (e *Engine) CommentReactionIDs(ctx context.Context, id models.CommentID) ([]models.ReactionID, error) {
	return listIDs[models.ReactionID](ctx, e, reactionIDsByCommentKey.U64(uint64(id)))
}

// PostReactionBy returns the actor's reaction on a post, if any.
func (e *Engine) PostReactionBy(ctx context.Context, actor models.Actor, id models.PostID) (models.ReactionID, bool, error) {
	return reactionBy(ctx, e, withActor(postReactionByActorKey, actor).U64(uint64(id)))
}

func (e *Engine) CommentReactionBy(ctx context.Context, actor models.Actor, id models.CommentID) (models.ReactionID, bool, error) {
	return reactionBy(ctx, e, withActor(commentReactionByActorKey, actor).U64(uint64(id)))
}

func reactionBy(ctx context.Context, e *Engine, key storage.Key) (models.ReactionID, bool, error) {
	var id models.ReactionID
	var found bool
	err := e.read(ctx, func(tx *storage.Tx) error {
		v, ok, err := storage.Load[models.ReactionID](tx, key)
		if ok {
			id, found = *v, true
		}
		return err
	})
	return id, found, err
}

func (e *Engine) SocialAccount(ctx context.Context, account uuid.UUID) (*models.SocialAccount, error) {
	return loadEntity[models.SocialAccount](ctx, e, socialAccountKey.Account(account), "social account", account)
}

// Reputation reports the account's reputation, defaulting to the floor for
// accounts that were never touched.
func (e *Engine) Reputation(ctx context.Context, account uuid.UUID) (uint32, error) {
	acc, err := e.SocialAccount(ctx, account)
	if utils.IsErrorCode(err, utils.ErrNotFound) {
		return scoring.MinReputation, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Reputation, nil
}

func (e *Engine) AccountFollowers(ctx context.Context, account uuid.UUID) ([]uuid.UUID, error) {
	return listAccounts(ctx, e, accountFollowersKey.Account(account))
}

func (e *Engine) AccountsFollowedBy(ctx context.Context, follower uuid.UUID) ([]uuid.UUID, error) {
	return listAccounts(ctx, e, accountsFollowedKey.Account(follower))
}

func (e *Engine) IsAccountFollowedBy(ctx context.Context, follower, account uuid.UUID) (bool, error) {
	return exists(ctx, e, accountFollowedKey(follower, account))
}

func (e *Engine) AccountByUsername(ctx context.Context, username string) (uuid.UUID, error) {
	var id uuid.UUID
	err := e.read(ctx, func(tx *storage.Tx) error {
		v, found, err := storage.Load[uuid.UUID](tx, usernameKey(username))
		if err != nil {
			return err
		}
		if !found {
			return utils.NewNotFoundError("no account with username %q", username)
		}
		id = *v
		return nil
	})
	return id, err
}

// LedgerEntry reports the delta recorded for (scorer, target, action), if the
// action is currently in effect.
func (e *Engine) LedgerEntry(ctx context.Context, scorer models.Actor, target scoring.Target, action scoring.Action) (scoring.Entry, bool, error) {
	var entry scoring.Entry
	var applied bool
	err := e.read(ctx, func(tx *storage.Tx) error {
		var err error
		entry, applied, err = scoring.NewLedger(tx).Lookup(scorer, target, action)
		return err
	})
	return entry, applied, err
}

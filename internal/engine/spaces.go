package engine

import (
	"context"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"
)

// CreateSpace registers a space owned by actor. The creating identity
// becomes its first follower.
func (e *Engine) CreateSpace(ctx context.Context, actor models.Actor, handle string, contentHash *string) (models.SpaceID, error) {
	var id models.SpaceID
	err := e.exec(ctx, "create_space", actor, func(o *op) error {
		if err := o.checkHandle(handle); err != nil {
			return err
		}
		if contentHash != nil {
			if err := e.params.validateContentHash(*contentHash); err != nil {
				return err
			}
		}

		next, err := o.nextCounter(nextSpaceIDKey)
		if err != nil {
			return err
		}
		id = models.SpaceID(next)
		space := &models.Space{
			ID:          id,
			Created:     o.change,
			Handle:      handle,
			ContentHash: contentHash,
		}
		o.spaces.put(id, space)
		if err := storage.Store(o.tx, handleKey(handle), id); err != nil {
			return err
		}
		if err := o.mark(spaceIDsByOwnerKey.Account(o.actor.Account).U64(next)); err != nil {
			return err
		}
		if err := o.addSpaceFollower(o.actor.Follower(), space); err != nil {
			return err
		}

		o.emit(events.Event{Type: events.SpaceCreated, SpaceID: id})
		return nil
	})
	return id, err
}

// UpdateSpace applies the fields of upd that differ from the stored space.
func (e *Engine) UpdateSpace(ctx context.Context, actor models.Actor, id models.SpaceID, upd models.SpaceUpdate) error {
	return e.exec(ctx, "update_space", actor, func(o *op) error {
		space, err := o.space(id)
		if err != nil {
			return err
		}
		if space.Owner() != o.actor {
			return utils.NewForbiddenError("only the space owner can update space %d", id)
		}

		var old models.SpaceUpdate
		changed := false

		if upd.Handle != nil && *upd.Handle != space.Handle {
			if err := o.checkHandle(*upd.Handle); err != nil {
				return err
			}
			prev := space.Handle
			old.Handle = &prev
			changed = true
		}
		if upd.ContentHash != nil && (space.ContentHash == nil || *space.ContentHash != *upd.ContentHash) {
			if err := e.params.validateContentHash(*upd.ContentHash); err != nil {
				return err
			}
			old.ContentHash = space.ContentHash
			if old.ContentHash == nil {
				empty := ""
				old.ContentHash = &empty
			}
			changed = true
		}
		if upd.Hidden != nil && *upd.Hidden != space.Hidden {
			prev := space.Hidden
			old.Hidden = &prev
			changed = true
		}
		if !changed {
			return utils.NewValidationError("nothing to update in space %d", id)
		}

		if old.Handle != nil {
			o.tx.Delete(handleKey(space.Handle))
			if err := storage.Store(o.tx, handleKey(*upd.Handle), id); err != nil {
				return err
			}
			space.Handle = *upd.Handle
		}
		if old.ContentHash != nil {
			hash := *upd.ContentHash
			space.ContentHash = &hash
		}
		if old.Hidden != nil {
			space.Hidden = *upd.Hidden
		}
		space.EditHistory = append(space.EditHistory, models.HistoryRecord[models.SpaceUpdate]{Edited: o.change, OldData: old})
		space.Updated = o.stamp()
		o.spaces.put(id, space)

		o.emit(events.Event{Type: events.SpaceUpdated, SpaceID: id})
		return nil
	})
}

// FollowSpace makes the acting identity follow space id: the delegating space
// when acting on behalf of one, the account otherwise.
func (e *Engine) FollowSpace(ctx context.Context, actor models.Actor, id models.SpaceID) error {
	return e.exec(ctx, "follow_space", actor, func(o *op) error {
		space, err := o.space(id)
		if err != nil {
			return err
		}
		if err := o.addSpaceFollower(o.actor.Follower(), space); err != nil {
			return err
		}
		if err := o.applyScore(o.spaceScore(space), scoring.FollowSpace); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.SpaceFollowed, SpaceID: id})
		return nil
	})
}

func (e *Engine) UnfollowSpace(ctx context.Context, actor models.Actor, id models.SpaceID) error {
	return e.exec(ctx, "unfollow_space", actor, func(o *op) error {
		space, err := o.space(id)
		if err != nil {
			return err
		}
		if err := o.removeSpaceFollower(o.actor.Follower(), space); err != nil {
			return err
		}
		if err := o.revertScoreIfApplied(o.spaceScore(space), scoring.FollowSpace); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.SpaceUnfollowed, SpaceID: id})
		return nil
	})
}

func (o *op) isFollowingSpace(f models.Follower, id models.SpaceID) (bool, error) {
	return o.tx.Has(spaceFollowedKey(f, id))
}

func (o *op) addSpaceFollower(f models.Follower, space *models.Space) error {
	if f.Space == space.ID {
		return utils.NewValidationError("space %d cannot follow itself", space.ID)
	}
	following, err := o.isFollowingSpace(f, space.ID)
	if err != nil {
		return err
	}
	if following {
		return utils.NewConflictError("already following space %d", space.ID)
	}

	followers, err := utils.Inc(space.Followers, "space followers")
	if err != nil {
		return err
	}
	if f.IsSpace() {
		fs, err := o.space(f.Space)
		if err != nil {
			return err
		}
		if fs.Following, err = utils.Inc(fs.Following, "space following"); err != nil {
			return err
		}
		o.spaces.put(fs.ID, fs)
	} else {
		account, err := o.account(f.Account)
		if err != nil {
			return err
		}
		if account.FollowingSpaces, err = utils.Inc(account.FollowingSpaces, "followed spaces"); err != nil {
			return err
		}
		o.accounts.put(f.Account, account)
	}
	space.Followers = followers
	o.spaces.put(space.ID, space)

	if err := storage.Store(o.tx, spaceFollowerKey(space.ID, f), f); err != nil {
		return err
	}
	return o.mark(spaceFollowedKey(f, space.ID))
}

func (o *op) removeSpaceFollower(f models.Follower, space *models.Space) error {
	following, err := o.isFollowingSpace(f, space.ID)
	if err != nil {
		return err
	}
	if !following {
		return utils.NewConflictError("not following space %d", space.ID)
	}

	followers, err := utils.Dec(space.Followers, "space followers")
	if err != nil {
		return err
	}
	if f.IsSpace() {
		fs, err := o.space(f.Space)
		if err != nil {
			return err
		}
		if fs.Following, err = utils.Dec(fs.Following, "space following"); err != nil {
			return err
		}
		o.spaces.put(fs.ID, fs)
	} else {
		account, err := o.existingAccount(f.Account)
		if err != nil {
			return err
		}
		if account.FollowingSpaces, err = utils.Dec(account.FollowingSpaces, "followed spaces"); err != nil {
			return err
		}
		o.accounts.put(f.Account, account)
	}
	space.Followers = followers
	o.spaces.put(space.ID, space)

	o.tx.Delete(spaceFollowerKey(space.ID, f))
	o.tx.Delete(spaceFollowedKey(f, space.ID))
	return nil
}

package engine

import (
	"context"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"
)

// CreatePost publishes a post in spaceID. Shares reference an original post
// or comment and may carry an empty content hash.
func (e *Engine) CreatePost(ctx context.Context, actor models.Actor, spaceID models.SpaceID, contentHash string, ext models.PostExtension) (models.PostID, error) {
	var id models.PostID
	err := e.exec(ctx, "create_post", actor, func(o *op) error {
		space, err := o.space(spaceID)
		if err != nil {
			return err
		}

		var original *models.Post
		var originalComment *models.Comment
		switch ext.Kind {
		case models.RegularPost:
			if err := e.params.validateContentHash(contentHash); err != nil {
				return err
			}
		case models.SharedPost:
			if original, err = o.post(ext.PostID); err != nil {
				return utils.NewAppError(utils.ErrNotFound, "original post not found when sharing", err)
			}
			if original.Extension.Kind != models.RegularPost {
				return utils.NewValidationError("cannot share a shared post")
			}
		case models.SharedComment:
			if originalComment, err = o.comment(ext.CommentID); err != nil {
				return utils.NewAppError(utils.ErrNotFound, "original comment not found when sharing", err)
			}
		default:
			return utils.NewValidationError("unknown post extension %q", ext.Kind)
		}
		if ext.IsShare() && contentHash != "" {
			if err := e.params.validateContentHash(contentHash); err != nil {
				return err
			}
		}

		if space.PostsCount, err = utils.Inc(space.PostsCount, "space posts"); err != nil {
			return err
		}
		o.spaces.put(space.ID, space)

		next, err := o.nextCounter(nextPostIDKey)
		if err != nil {
			return err
		}
		id = models.PostID(next)
		o.posts.put(id, &models.Post{
			ID:          id,
			SpaceID:     spaceID,
			Created:     o.change,
			Extension:   ext,
			ContentHash: contentHash,
		})
		if err := o.mark(postIDsBySpaceKey.U64(uint64(spaceID)).U64(next)); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.PostCreated, SpaceID: spaceID, PostID: id})

		switch {
		case original != nil:
			return o.sharePost(original, id)
		case originalComment != nil:
			return o.shareComment(originalComment, id)
		}
		return nil
	})
	return id, err
}

// sharePost counts a share of original; only an actor's first share scores.
func (o *op) sharePost(original *models.Post, shared models.PostID) error {
	var err error
	if original.Shares, err = utils.Inc(original.Shares, "post shares"); err != nil {
		return err
	}
	o.posts.put(original.ID, original)

	byActor := withActor(postSharesByActorKey, o.actor).U64(uint64(original.ID))
	count, err := o.incShareCount(byActor, "post shares by account")
	if err != nil {
		return err
	}
	if err := o.mark(sharedPostsByPostKey.U64(uint64(original.ID)).U64(uint64(shared))); err != nil {
		return err
	}
	if count == 1 {
		if err := o.applyScore(o.postScore(original), scoring.SharePost); err != nil {
			return err
		}
	}
	o.emit(events.Event{Type: events.PostShared, PostID: original.ID})
	return nil
}

func (o *op) shareComment(original *models.Comment, shared models.PostID) error {
	var err error
	if original.Shares, err = utils.Inc(original.Shares, "comment shares"); err != nil {
		return err
	}
	o.comments.put(original.ID, original)

	byActor := withActor(commentSharesByActorKey, o.actor).U64(uint64(original.ID))
	count, err := o.incShareCount(byActor, "comment shares by account")
	if err != nil {
		return err
	}
	if err := o.mark(sharedPostsByCommentKey.U64(uint64(original.ID)).U64(uint64(shared))); err != nil {
		return err
	}
	if count == 1 {
		if err := o.applyScore(o.commentScore(original), scoring.ShareComment); err != nil {
			return err
		}
	}
	o.emit(events.Event{Type: events.CommentShared, PostID: original.PostID, CommentID: original.ID})
	return nil
}

func (o *op) incShareCount(key storage.Key, what string) (uint32, error) {
	cur, _, err := storage.Load[uint32](o.tx, key)
	if err != nil {
		return 0, err
	}
	var count uint32
	if cur != nil {
		count = *cur
	}
	if count, err = utils.Inc(count, what); err != nil {
		return 0, err
	}
	return count, storage.Store(o.tx, key, count)
}

// UpdatePost changes content, visibility, or the space a post lives in.
// Moving a post carries its counts and accumulated score along.
func (e *Engine) UpdatePost(ctx context.Context, actor models.Actor, id models.PostID, upd models.PostUpdate) error {
	return e.exec(ctx, "update_post", actor, func(o *op) error {
		post, err := o.post(id)
		if err != nil {
			return err
		}
		if post.Owner() != o.actor {
			return utils.NewForbiddenError("only the post owner can update post %d", id)
		}

		var old models.PostUpdate
		changed := false
		var from, to *models.Space

		if upd.SpaceID != nil && *upd.SpaceID != post.SpaceID {
			if from, err = o.space(post.SpaceID); err != nil {
				return err
			}
			if to, err = o.space(*upd.SpaceID); err != nil {
				return err
			}
			prev := post.SpaceID
			old.SpaceID = &prev
			changed = true
		}
		if upd.ContentHash != nil && *upd.ContentHash != post.ContentHash {
			if err := e.params.validateContentHash(*upd.ContentHash); err != nil {
				return err
			}
			prev := post.ContentHash
			old.ContentHash = &prev
			changed = true
		}
		if upd.Hidden != nil && *upd.Hidden != post.Hidden {
			prev := post.Hidden
			old.Hidden = &prev
			changed = true
		}
		if !changed {
			return utils.NewValidationError("nothing to update in post %d", id)
		}

		if old.SpaceID != nil {
			if err := o.movePost(post, from, to); err != nil {
				return err
			}
		}
		if old.ContentHash != nil {
			post.ContentHash = *upd.ContentHash
		}
		if old.Hidden != nil {
			post.Hidden = *upd.Hidden
		}
		post.EditHistory = append(post.EditHistory, models.HistoryRecord[models.PostUpdate]{Edited: o.change, OldData: old})
		post.Updated = o.stamp()
		o.posts.put(id, post)

		o.emit(events.Event{Type: events.PostUpdated, SpaceID: post.SpaceID, PostID: id})
		return nil
	})
}

func (o *op) movePost(post *models.Post, from, to *models.Space) error {
	fromCount, err := utils.Dec(from.PostsCount, "space posts")
	if err != nil {
		return err
	}
	toCount, err := utils.Inc(to.PostsCount, "space posts")
	if err != nil {
		return err
	}
	fromScore, err := utils.CheckedSub(from.Score, post.Score, "space score")
	if err != nil {
		return err
	}
	toScore, err := utils.CheckedAdd(to.Score, post.Score, "space score")
	if err != nil {
		return err
	}
	from.PostsCount, from.Score = fromCount, fromScore
	to.PostsCount, to.Score = toCount, toScore
	o.spaces.put(from.ID, from)
	o.spaces.put(to.ID, to)

	o.tx.Delete(postIDsBySpaceKey.U64(uint64(from.ID)).U64(uint64(post.ID)))
	post.SpaceID = to.ID
	return o.mark(postIDsBySpaceKey.U64(uint64(to.ID)).U64(uint64(post.ID)))
}

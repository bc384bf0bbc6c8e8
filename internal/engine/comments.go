package engine

import (
	"context"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/utils"
)

// CreateComment adds a comment to postID, optionally as a reply to parentID,
// which must belong to the same post.
func (e *Engine) CreateComment(ctx context.Context, actor models.Actor, postID models.PostID, parentID *models.CommentID, contentHash string) (models.CommentID, error) {
	var id models.CommentID
	err := e.exec(ctx, "create_comment", actor, func(o *op) error {
		post, err := o.post(postID)
		if err != nil {
			return err
		}
		if err := e.params.validateContentHash(contentHash); err != nil {
			return err
		}

		var parent *models.Comment
		if parentID != nil {
			if parent, err = o.comment(*parentID); err != nil {
				return utils.NewAppError(utils.ErrNotFound, "unknown parent comment", err)
			}
			if parent.PostID != postID {
				return utils.NewValidationError("parent comment %d belongs to another post", *parentID)
			}
		}

		comments, err := utils.Inc(post.CommentsCount, "post comments")
		if err != nil {
			return err
		}
		if parent != nil {
			if parent.DirectReplies, err = utils.Inc(parent.DirectReplies, "comment replies"); err != nil {
				return err
			}
			o.comments.put(parent.ID, parent)
		}
		post.CommentsCount = comments
		o.posts.put(post.ID, post)

		next, err := o.nextCounter(nextCommentIDKey)
		if err != nil {
			return err
		}
		id = models.CommentID(next)
		var parentCopy *models.CommentID
		if parentID != nil {
			p := *parentID
			parentCopy = &p
		}
		o.comments.put(id, &models.Comment{
			ID:          id,
			ParentID:    parentCopy,
			PostID:      postID,
			Created:     o.change,
			ContentHash: contentHash,
		})
		if err := o.mark(commentIDsByPostKey.U64(uint64(postID)).U64(next)); err != nil {
			return err
		}
		if parent != nil {
			if err := o.mark(replyIDsByCommentKey.U64(uint64(parent.ID)).U64(next)); err != nil {
				return err
			}
		}

		if err := o.applyScore(o.postScore(post), scoring.CreateComment); err != nil {
			return err
		}
		o.emit(events.Event{Type: events.CommentCreated, PostID: postID, CommentID: id})
		return nil
	})
	return id, err
}

func (e *Engine) UpdateComment(ctx context.Context, actor models.Actor, id models.CommentID, upd models.CommentUpdate) error {
	return e.exec(ctx, "update_comment", actor, func(o *op) error {
		comment, err := o.comment(id)
		if err != nil {
			return err
		}
		if comment.Owner() != o.actor {
			return utils.NewForbiddenError("only the comment author can update comment %d", id)
		}

		var old models.CommentUpdate
		if upd.ContentHash != nil && *upd.ContentHash != comment.ContentHash {
			if err := e.params.validateContentHash(*upd.ContentHash); err != nil {
				return err
			}
			prev := comment.ContentHash
			old.ContentHash = &prev
		}
		if upd.Hidden != nil && *upd.Hidden != comment.Hidden {
			prev := comment.Hidden
			old.Hidden = &prev
		}
		if old.ContentHash == nil && old.Hidden == nil {
			return utils.NewValidationError("nothing to update in comment %d", id)
		}

		if old.ContentHash != nil {
			comment.ContentHash = *upd.ContentHash
		}
		if old.Hidden != nil {
			comment.Hidden = *upd.Hidden
		}
		comment.EditHistory = append(comment.EditHistory, models.HistoryRecord[models.CommentUpdate]{Edited: o.change, OldData: old})
		comment.Updated = o.stamp()
		o.comments.put(id, comment)

		o.emit(events.Event{Type: events.CommentUpdated, PostID: comment.PostID, CommentID: id})
		return nil
	})
}

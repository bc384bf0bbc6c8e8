package engine

import (
	"context"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"
)

// reactionTarget abstracts over posts and comments for the reaction commands.
type reactionTarget struct {
	name      string
	ids       storage.Key // target's reaction id set
	byActor   storage.Key // (actor, target) -> reaction id
	up, down  *uint32
	actions   map[models.ReactionKind]scoring.Action
	score     scoreTarget
	save      func()
	postID    models.PostID
	commentID models.CommentID
	created   events.Type
	updated   events.Type
	deleted   events.Type
}

func (o *op) postReactions(id models.PostID) (*reactionTarget, error) {
	post, err := o.post(id)
	if err != nil {
		return nil, err
	}
	return &reactionTarget{
		name:    "post",
		ids:     reactionIDsByPostKey.U64(uint64(id)),
		byActor: withActor(postReactionByActorKey, o.actor).U64(uint64(id)),
		up:      &post.Upvotes,
		down:    &post.Downvotes,
		actions: map[models.ReactionKind]scoring.Action{
			models.Upvote:   scoring.UpvotePost,
			models.Downvote: scoring.DownvotePost,
		},
		score:   o.postScore(post),
		save:    func() { o.posts.put(post.ID, post) },
		postID:  id,
		created: events.PostReactionCreated,
		updated: events.PostReactionUpdated,
		deleted: events.PostReactionDeleted,
	}, nil
}

func (o *op) commentReactions(id models.CommentID) (*reactionTarget, error) {
	comment, err := o.comment(id)
	if err != nil {
		return nil, err
	}
	return &reactionTarget{
		name:    "comment",
		ids:     reactionIDsByCommentKey.U64(uint64(id)),
		byActor: withActor(commentReactionByActorKey, o.actor).U64(uint64(id)),
		up:      &comment.Upvotes,
		down:    &comment.Downvotes,
		actions: map[models.ReactionKind]scoring.Action{
			models.Upvote:   scoring.UpvoteComment,
			models.Downvote: scoring.DownvoteComment,
		},
		score:     o.commentScore(comment),
		save:      func() { o.comments.put(comment.ID, comment) },
		postID:    comment.PostID,
		commentID: id,
		created:   events.CommentReactionCreated,
		updated:   events.CommentReactionUpdated,
		deleted:   events.CommentReactionDeleted,
	}, nil
}

func (t *reactionTarget) counter(kind models.ReactionKind) *uint32 {
	if kind == models.Upvote {
		return t.up
	}
	return t.down
}

func (t *reactionTarget) event(typ events.Type, id models.ReactionID) events.Event {
	return events.Event{Type: typ, PostID: t.postID, CommentID: t.commentID, ReactionID: id}
}

func checkKind(kind models.ReactionKind) error {
	if _, err := models.ParseReactionKind(string(kind)); err != nil {
		return utils.NewAppError(utils.ErrValidation, "invalid reaction kind", err)
	}
	return nil
}

func (o *op) createReaction(t *reactionTarget, kind models.ReactionKind) (models.ReactionID, error) {
	if err := checkKind(kind); err != nil {
		return 0, err
	}
	reacted, err := o.tx.Has(t.byActor)
	if err != nil {
		return 0, err
	}
	if reacted {
		return 0, utils.NewConflictError("account has already reacted to this %s", t.name)
	}
	counter := t.counter(kind)
	count, err := utils.Inc(*counter, t.name+" "+string(kind)+"s")
	if err != nil {
		return 0, err
	}

	next, err := o.nextCounter(nextReactionIDKey)
	if err != nil {
		return 0, err
	}
	id := models.ReactionID(next)
	*counter = count
	t.save()
	if err := storage.Store(o.tx, reactionByIDKey.U64(next), models.Reaction{ID: id, Created: o.change, Kind: kind}); err != nil {
		return 0, err
	}
	if err := o.mark(t.ids.U64(next)); err != nil {
		return 0, err
	}
	if err := storage.Store(o.tx, t.byActor, id); err != nil {
		return 0, err
	}

	if err := o.applyScore(t.score, t.actions[kind]); err != nil {
		return 0, err
	}
	o.emit(t.event(t.created, id))
	return id, nil
}

// ownedReaction loads a reaction of t and checks the actor created it.
func (o *op) ownedReaction(t *reactionTarget, id models.ReactionID) (*models.Reaction, error) {
	onTarget, err := o.tx.Has(t.ids.U64(uint64(id)))
	if err != nil {
		return nil, err
	}
	if !onTarget {
		return nil, utils.NewNotFoundError("reaction %d was not found on this %s", id, t.name)
	}
	reaction, err := o.reaction(id)
	if err != nil {
		return nil, err
	}
	if reaction.Owner() != o.actor {
		return nil, utils.NewForbiddenError("only the reaction owner can change reaction %d", id)
	}
	return reaction, nil
}

func (o *op) updateReaction(t *reactionTarget, id models.ReactionID, kind models.ReactionKind) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	reaction, err := o.ownedReaction(t, id)
	if err != nil {
		return err
	}
	if reaction.Kind == kind {
		return utils.NewConflictError("new reaction kind is the same as the old one")
	}

	newCount, err := utils.Inc(*t.counter(kind), t.name+" "+string(kind)+"s")
	if err != nil {
		return err
	}
	oldCount, err := utils.Dec(*t.counter(reaction.Kind), t.name+" "+string(reaction.Kind)+"s")
	if err != nil {
		return err
	}
	*t.counter(kind) = newCount
	*t.counter(reaction.Kind) = oldCount
	t.save()

	// Cancel the old effect before applying the new one.
	if err := o.revertScore(t.score, t.actions[reaction.Kind]); err != nil {
		return err
	}
	if err := o.applyScore(t.score, t.actions[kind]); err != nil {
		return err
	}

	reaction.Kind = kind
	reaction.Updated = o.stamp()
	if err := storage.Store(o.tx, reactionByIDKey.U64(uint64(id)), reaction); err != nil {
		return err
	}
	o.emit(t.event(t.updated, id))
	return nil
}

func (o *op) deleteReaction(t *reactionTarget, id models.ReactionID) error {
	reaction, err := o.ownedReaction(t, id)
	if err != nil {
		return err
	}
	counter := t.counter(reaction.Kind)
	count, err := utils.Dec(*counter, t.name+" "+string(reaction.Kind)+"s")
	if err != nil {
		return err
	}
	*counter = count
	t.save()

	if err := o.revertScore(t.score, t.actions[reaction.Kind]); err != nil {
		return err
	}
	o.tx.Delete(reactionByIDKey.U64(uint64(id)))
	o.tx.Delete(t.ids.U64(uint64(id)))
	o.tx.Delete(t.byActor)
	o.emit(t.event(t.deleted, id))
	return nil
}

func (e *Engine) CreatePostReaction(ctx context.Context, actor models.Actor, postID models.PostID, kind models.ReactionKind) (models.ReactionID, error) {
	var id models.ReactionID
	err := e.exec(ctx, "create_post_reaction", actor, func(o *op) error {
		t, err := o.postReactions(postID)
		if err != nil {
			return err
		}
		id, err = o.createReaction(t, kind)
		return err
	})
	return id, err
}

func (e *Engine) UpdatePostReaction(ctx context.Context, actor models.Actor, postID models.PostID, reactionID models.ReactionID, kind models.ReactionKind) error {
	return e.exec(ctx, "update_post_reaction", actor, func(o *op) error {
		t, err := o.postReactions(postID)
		if err != nil {
			return err
		}
		return o.updateReaction(t, reactionID, kind)
	})
}

func (e *Engine) DeletePostReaction(ctx context.Context, actor models.Actor, postID models.PostID, reactionID models.ReactionID) error {
	return e.exec(ctx, "delete_post_reaction", actor, func(o *op) error {
		t, err := o.postReactions(postID)
		if err != nil {
			return err
		}
		return o.deleteReaction(t, reactionID)
	})
}

func (e *Engine) CreateCommentReaction(ctx context.Context, actor models.Actor, commentID models.CommentID, kind models.ReactionKind) (models.ReactionID, error) {
	var id models.ReactionID
	err := e.exec(ctx, "create_comment_reaction", actor, func(o *op) error {
		t, err := o.commentReactions(commentID)
		if err != nil {
			return err
		}
		id, err = o.createReaction(t, kind)
		return err
	})
	return id, err
}

func (e *Engine) UpdateCommentReaction(ctx context.Context, actor models.Actor, commentID models.CommentID, reactionID models.ReactionID, kind models.ReactionKind) error {
	return e.exec(ctx, "update_comment_reaction", actor, func(o *op) error {
		t, err := o.commentReactions(commentID)
		if err != nil {
			return err
		}
		return o.updateReaction(t, reactionID, kind)
	})
}

func (e *Engine) DeleteCommentReaction(ctx context.Context, actor models.Actor, commentID models.CommentID, reactionID models.ReactionID) error {
	return e.exec(ctx, "delete_comment_reaction", actor, func(o *op) error {
		t, err := o.commentReactions(commentID)
		if err != nil {
			return err
		}
		return o.deleteReaction(t, reactionID)
	})
}

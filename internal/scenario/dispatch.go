package scenario

import (
	"context"
	"fmt"

	"gator-social/internal/models"
)

// dispatch runs one op and returns the id it created, if any.
func (r *Runner) dispatch(ctx context.Context, actor models.Actor, op string, a args) (uint64, error) {
	e := r.engine
	switch op {
	case "create_space":
		id, err := e.CreateSpace(ctx, actor, a["handle"], a.optional("content_hash"))
		return uint64(id), err
	case "update_space":
		space, err := r.id(a["space"])
		if err != nil {
			return 0, err
		}
		hidden, err := a.flag("hidden")
		if err != nil {
			return 0, err
		}
		return 0, e.UpdateSpace(ctx, actor, models.SpaceID(space), models.SpaceUpdate{
			Handle:      a.optional("handle"),
			ContentHash: a.optional("content_hash"),
			Hidden:      hidden,
		})
	case "follow_space", "unfollow_space":
		space, err := r.id(a["space"])
		if err != nil {
			return 0, err
		}
		if op == "follow_space" {
			return 0, e.FollowSpace(ctx, actor, models.SpaceID(space))
		}
		return 0, e.UnfollowSpace(ctx, actor, models.SpaceID(space))

	case "create_post":
		space, err := r.id(a["space"])
		if err != nil {
			return 0, err
		}
		ext := models.Regular()
		hash := a.contentHash(DefaultContentHash)
		switch {
		case a.has("share_post"):
			original, err := r.id(a["share_post"])
			if err != nil {
				return 0, err
			}
			ext, hash = models.SharingPost(models.PostID(original)), a.contentHash("")
		case a.has("share_comment"):
			original, err := r.id(a["share_comment"])
			if err != nil {
				return 0, err
			}
			ext, hash = models.SharingComment(models.CommentID(original)), a.contentHash("")
		}
		id, err := e.CreatePost(ctx, actor, models.SpaceID(space), hash, ext)
		return uint64(id), err
	case "update_post":
		post, err := r.id(a["post"])
		if err != nil {
			return 0, err
		}
		upd := models.PostUpdate{ContentHash: a.optional("content_hash")}
		if a.has("space") {
			space, err := r.id(a["space"])
			if err != nil {
				return 0, err
			}
			to := models.SpaceID(space)
			upd.SpaceID = &to
		}
		if upd.Hidden, err = a.flag("hidden"); err != nil {
			return 0, err
		}
		return 0, e.UpdatePost(ctx, actor, models.PostID(post), upd)

	case "create_comment":
		post, err := r.id(a["post"])
		if err != nil {
			return 0, err
		}
		var parent *models.CommentID
		if a.has("parent") {
			p, err := r.id(a["parent"])
			if err != nil {
				return 0, err
			}
			id := models.CommentID(p)
			parent = &id
		}
		id, err := e.CreateComment(ctx, actor, models.PostID(post), parent, a.contentHash(DefaultContentHash))
		return uint64(id), err
	case "update_comment":
		comment, err := r.id(a["comment"])
		if err != nil {
			return 0, err
		}
		hidden, err := a.flag("hidden")
		if err != nil {
			return 0, err
		}
		return 0, e.UpdateComment(ctx, actor, models.CommentID(comment), models.CommentUpdate{
			ContentHash: a.optional("content_hash"),
			Hidden:      hidden,
		})

	case "react_post", "update_post_reaction", "delete_post_reaction":
		post, err := r.id(a["post"])
		if err != nil {
			return 0, err
		}
		kind := models.ReactionKind(a["kind"])
		if op == "react_post" {
			id, err := e.CreatePostReaction(ctx, actor, models.PostID(post), kind)
			return uint64(id), err
		}
		reaction, err := r.id(a["reaction"])
		if err != nil {
			return 0, err
		}
		if op == "update_post_reaction" {
			return 0, e.UpdatePostReaction(ctx, actor, models.PostID(post), models.ReactionID(reaction), kind)
		}
		return 0, e.DeletePostReaction(ctx, actor, models.PostID(post), models.ReactionID(reaction))

	case "react_comment", "update_comment_reaction", "delete_comment_reaction":
		comment, err := r.id(a["comment"])
		if err != nil {
			return 0, err
		}
		kind := models.ReactionKind(a["kind"])
		if op == "react_comment" {
			id, err := e.CreateCommentReaction(ctx, actor, models.CommentID(comment), kind)
			return uint64(id), err
		}
		reaction, err := r.id(a["reaction"])
		if err != nil {
			return 0, err
		}
		if op == "update_comment_reaction" {
			return 0, e.UpdateCommentReaction(ctx, actor, models.CommentID(comment), models.ReactionID(reaction), kind)
		}
		return 0, e.DeleteCommentReaction(ctx, actor, models.CommentID(comment), models.ReactionID(reaction))

	case "follow_account":
		return 0, e.FollowAccount(ctx, actor, AccountID(a["account"]))
	case "unfollow_account":
		return 0, e.UnfollowAccount(ctx, actor, AccountID(a["account"]))
	case "create_profile":
		return 0, e.CreateProfile(ctx, actor, a["username"], a.contentHash(DefaultContentHash))
	case "update_profile":
		return 0, e.UpdateProfile(ctx, actor, models.ProfileUpdate{
			Username:    a.optional("username"),
			ContentHash: a.optional("content_hash"),
		})
	}
	return 0, fmt.Errorf("unknown op %q", op)
}

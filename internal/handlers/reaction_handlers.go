package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
)

// reactionTarget fills the post or comment id of a reaction message from
// the {id} path segment.
type reactionTarget func(id uint64) (models.PostID, *models.CommentID)

func postTarget(id uint64) (models.PostID, *models.CommentID) {
	return models.PostID(id), nil
}

func commentTarget(id uint64) (models.PostID, *models.CommentID) {
	comment := models.CommentID(id)
	return 0, &comment
}

func (s *Server) HandleCreateReaction(target reactionTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.ReactionRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		postID, commentID := target(id)
		s.respond(w, http.StatusCreated, &actors.CreateReactionMsg{
			Actor:     actor,
			PostID:    postID,
			CommentID: commentID,
			Kind:      req.Kind,
		})
	}
}

func (s *Server) HandleUpdateReaction(target reactionTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		reactionID, err := pathID(r, "reaction")
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.ReactionRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		postID, commentID := target(id)
		s.respond(w, http.StatusOK, &actors.UpdateReactionMsg{
			Actor:      actor,
			PostID:     postID,
			CommentID:  commentID,
			ReactionID: models.ReactionID(reactionID),
			Kind:       req.Kind,
		})
	}
}

func (s *Server) HandleDeleteReaction(target reactionTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		reactionID, err := pathID(r, "reaction")
		if err != nil {
			s.writeError(w, err)
			return
		}
		postID, commentID := target(id)
		s.respond(w, http.StatusOK, &actors.DeleteReactionMsg{
			Actor:      actor,
			PostID:     postID,
			CommentID:  commentID,
			ReactionID: models.ReactionID(reactionID),
		})
	}
}

func (s *Server) HandleListReactions(target reactionTarget) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		postID, commentID := target(id)
		ids, err := actors.RequestAs[[]models.ReactionID](s.Context, s.EnginePID,
			&actors.GetReactionsMsg{PostID: postID, CommentID: commentID}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.ReactionID]{IDs: ids})
	}
}

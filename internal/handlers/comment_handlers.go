package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
)

// HandleCreateComment creates a comment; parent_id makes it a reply.
func (s *Server) HandleCreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.CreateCommentRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusCreated, &actors.CreateCommentMsg{
			Actor:       actor,
			PostID:      req.PostID,
			ParentID:    req.ParentID,
			ContentHash: req.ContentHash,
		})
	}
}

func (s *Server) HandleGetComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.GetCommentMsg{CommentID: models.CommentID(id)})
	}
}

func (s *Server) HandleUpdateComment() http.HandlerFunc {
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
		var upd models.CommentUpdate
		if err := decode(r, &upd); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.UpdateCommentMsg{Actor: actor, CommentID: models.CommentID(id), Update: upd})
	}
}

func (s *Server) HandleCommentReplies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids, err := actors.RequestAs[[]models.CommentID](s.Context, s.EnginePID,
			&actors.GetCommentRepliesMsg{CommentID: models.CommentID(id)}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.CommentID]{IDs: ids})
	}
}

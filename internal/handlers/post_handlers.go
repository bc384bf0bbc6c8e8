package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
)

// HandleCreatePost creates a regular post, or a share when the extension
// names an original post or comment.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.CreatePostRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		if req.Extension.Kind == "" {
			req.Extension = models.Regular()
		}
		s.respond(w, http.StatusCreated, &actors.CreatePostMsg{
			Actor:       actor,
			SpaceID:     req.SpaceID,
			ContentHash: req.ContentHash,
			Extension:   req.Extension,
		})
	}
}

func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.GetPostMsg{PostID: models.PostID(id)})
	}
}

// HandleUpdatePost edits a post; a new space_id moves it.
func (s *Server) HandleUpdatePost() http.HandlerFunc {
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
		var upd models.PostUpdate
		if err := decode(r, &upd); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.UpdatePostMsg{Actor: actor, PostID: models.PostID(id), Update: upd})
	}
}

func (s *Server) HandlePostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids, err := actors.RequestAs[[]models.CommentID](s.Context, s.EnginePID,
			&actors.GetPostCommentsMsg{PostID: models.PostID(id)}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.CommentID]{IDs: ids})
	}
}

func (s *Server) HandlePostShares() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids, err := actors.RequestAs[[]models.PostID](s.Context, s.EnginePID,
			&actors.GetPostSharesMsg{PostID: models.PostID(id)}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.PostID]{IDs: ids})
	}
}

package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
)

// HandleCreateSpace creates a space owned by the caller.
func (s *Server) HandleCreateSpace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.CreateSpaceRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusCreated, &actors.CreateSpaceMsg{
			Actor:       actor,
			Handle:      req.Handle,
			ContentHash: req.ContentHash,
		})
	}
}

func (s *Server) HandleGetSpace() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.GetSpaceMsg{SpaceID: models.SpaceID(id)})
	}
}

func (s *Server) HandleSpaceByHandle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(w, http.StatusOK, &actors.GetSpaceByHandleMsg{Handle: r.PathValue("handle")})
	}
}

// HandleUpdateSpace applies a partial update; absent fields are left alone.
func (s *Server) HandleUpdateSpace() http.HandlerFunc {
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
		var upd models.SpaceUpdate
		if err := decode(r, &upd); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.UpdateSpaceMsg{Actor: actor, SpaceID: models.SpaceID(id), Update: upd})
	}
}

func (s *Server) HandleFollowSpace() http.HandlerFunc {
	return s.spaceFollowHandler(func(actor models.Actor, id models.SpaceID) interface{} {
		return &actors.FollowSpaceMsg{Actor: actor, SpaceID: id}
	})
}

func (s *Server) HandleUnfollowSpace() http.HandlerFunc {
	return s.spaceFollowHandler(func(actor models.Actor, id models.SpaceID) interface{} {
		return &actors.UnfollowSpaceMsg{Actor: actor, SpaceID: id}
	})
}

func (s *Server) spaceFollowHandler(build func(models.Actor, models.SpaceID) interface{}) http.HandlerFunc {
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
		s.respond(w, http.StatusOK, build(actor, models.SpaceID(id)))
	}
}

func (s *Server) HandleSpaceFollowers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		followers, err := actors.RequestAs[[]models.Follower](s.Context, s.EnginePID,
			&actors.GetSpaceFollowersMsg{SpaceID: models.SpaceID(id)}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FollowersResponse{Followers: followers})
	}
}

func (s *Server) HandleSpacePosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids, err := actors.RequestAs[[]models.PostID](s.Context, s.EnginePID,
			&actors.GetSpacePostsMsg{SpaceID: models.SpaceID(id)}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.PostID]{IDs: ids})
	}
}

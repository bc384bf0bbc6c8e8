package handlers

import (
	"net/http"

	"gator-social/internal/api"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

func pathAccount(r *http.Request) (uuid.UUID, error) {
	account, err := uuid.Parse(r.PathValue("account"))
	if err != nil {
		return uuid.Nil, utils.NewAppError(utils.ErrInvalidInput, "Invalid account ID format", err)
	}
	return account, nil
}

// HandleGetAccount reports reputation and social counters. Accounts that
// never interacted report the floor reputation and no social record.
func (s *Server) HandleGetAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := pathAccount(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		view, err := actors.RequestAs[*actors.AccountView](s.Context, s.EnginePID,
			&actors.GetSocialAccountMsg{Account: account}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.AccountResponse{
			Account:    view.Account,
			Reputation: view.Reputation,
			Social:     view.Social,
		})
	}
}

func (s *Server) HandleAccountSpaces() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := pathAccount(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		ids, err := actors.RequestAs[[]models.SpaceID](s.Context, s.EnginePID,
			&actors.GetSpacesByOwnerMsg{Account: account}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.IDsResponse[models.SpaceID]{IDs: ids})
	}
}

func (s *Server) HandleAccountFollowers() http.HandlerFunc {
	return s.accountListHandler(func(account uuid.UUID) interface{} {
		return &actors.GetAccountFollowersMsg{Account: account}
	})
}

func (s *Server) HandleAccountFollowing() http.HandlerFunc {
	return s.accountListHandler(func(account uuid.UUID) interface{} {
		return &actors.GetAccountsFollowedByMsg{Account: account}
	})
}

func (s *Server) accountListHandler(build func(uuid.UUID) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := pathAccount(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		accounts, err := actors.RequestAs[[]uuid.UUID](s.Context, s.EnginePID, build(account), s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.AccountsResponse{Accounts: accounts})
	}
}

func (s *Server) HandleFollowAccount() http.HandlerFunc {
	return s.accountFollowHandler(func(actor models.Actor, account uuid.UUID) interface{} {
		return &actors.FollowAccountMsg{Actor: actor, Account: account}
	})
}

func (s *Server) HandleUnfollowAccount() http.HandlerFunc {
	return s.accountFollowHandler(func(actor models.Actor, account uuid.UUID) interface{} {
		return &actors.UnfollowAccountMsg{Actor: actor, Account: account}
	})
}

func (s *Server) accountFollowHandler(build func(models.Actor, uuid.UUID) interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		account, err := pathAccount(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, build(actor, account))
	}
}

func (s *Server) HandleAccountByUsername() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := r.PathValue("username")
		account, err := actors.RequestAs[uuid.UUID](s.Context, s.EnginePID,
			&actors.GetAccountByUsernameMsg{Username: username}, s.RequestTimeout)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.UsernameResponse{Username: username, Account: account})
	}
}

func (s *Server) HandleCreateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req api.CreateProfileRequest
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.CreateProfileMsg{Actor: actor, Username: req.Username, ContentHash: req.ContentHash})
	}
}

func (s *Server) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := callerActor(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var upd models.ProfileUpdate
		if err := decode(r, &upd); err != nil {
			s.writeError(w, err)
			return
		}
		s.respond(w, http.StatusOK, &actors.UpdateProfileMsg{Actor: actor, Update: upd})
	}
}

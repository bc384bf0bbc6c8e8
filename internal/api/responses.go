package api

import (
	"gator-social/internal/models"

	"github.com/google/uuid"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID uint64 `json:"id"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Height   uint64 `json:"height"`
	Requests uint64 `json:"requests"`
	Errors   uint64 `json:"errors"`
	Uptime   string `json:"uptime"`
}

type IDsResponse[T any] struct {
	IDs []T `json:"ids"`
}

type FollowersResponse struct {
	Followers []models.Follower `json:"followers"`
}

type AccountsResponse struct {
	Accounts []uuid.UUID `json:"accounts"`
}

type AccountResponse struct {
	Account    uuid.UUID             `json:"account"`
	Reputation uint32                `json:"reputation"`
	Social     *models.SocialAccount `json:"social,omitempty"`
}

type UsernameResponse struct {
	Username string    `json:"username"`
	Account  uuid.UUID `json:"account"`
}

// Request bodies

type CreateSpaceRequest struct {
	Handle      string  `json:"handle"`
	ContentHash *string `json:"content_hash,omitempty"`
}

type CreatePostRequest struct {
	SpaceID     models.SpaceID       `json:"space_id"`
	ContentHash string               `json:"content_hash"`
	Extension   models.PostExtension `json:"extension"`
}

type CreateCommentRequest struct {
	PostID      models.PostID     `json:"post_id"`
	ParentID    *models.CommentID `json:"parent_id,omitempty"`
	ContentHash string            `json:"content_hash"`
}

type ReactionRequest struct {
	Kind models.ReactionKind `json:"kind"`
}

type CreateProfileRequest struct {
	Username    string `json:"username"`
	ContentHash string `json:"content_hash"`
}

package actors

import (
	"gator-social/internal/models"

	"github.com/google/uuid"
)

// Message types for space operations
type (
	CreateSpaceMsg struct {
		Actor       models.Actor
		Handle      string
		ContentHash *string
	}

	UpdateSpaceMsg struct {
		Actor   models.Actor
		SpaceID models.SpaceID
		Update  models.SpaceUpdate
	}

	FollowSpaceMsg struct {
		Actor   models.Actor
		SpaceID models.SpaceID
	}

	UnfollowSpaceMsg struct {
		Actor   models.Actor
		SpaceID models.SpaceID
	}

	GetSpaceMsg struct {
		SpaceID models.SpaceID
	}

	GetSpaceByHandleMsg struct {
		Handle string
	}

	GetSpacesByOwnerMsg struct {
		Account uuid.UUID
	}

	GetSpaceFollowersMsg struct {
		SpaceID models.SpaceID
	}

	GetSpacesFollowedByMsg struct {
		Follower models.Follower
	}
)

// Message types for post operations
type (
	CreatePostMsg struct {
		Actor       models.Actor
		SpaceID     models.SpaceID
		ContentHash string
		Extension   models.PostExtension
	}

	UpdatePostMsg struct {
		Actor  models.Actor
		PostID models.PostID
		Update models.PostUpdate
	}

	GetPostMsg struct {
		PostID models.PostID
	}

	GetSpacePostsMsg struct {
		SpaceID models.SpaceID
	}

	GetPostSharesMsg struct {
		PostID models.PostID
	}
)

// Message types for comment operations
type (
	CreateCommentMsg struct {
		Actor       models.Actor
		PostID      models.PostID
		ParentID    *models.CommentID
		ContentHash string
	}

	UpdateCommentMsg struct {
		Actor     models.Actor
		CommentID models.CommentID
		Update    models.CommentUpdate
	}

	GetCommentMsg struct {
		CommentID models.CommentID
	}

	GetPostCommentsMsg struct {
		PostID models.PostID
	}

	GetCommentRepliesMsg struct {
		CommentID models.CommentID
	}
)

// Message types for reactions. A reaction targets either a post or a
// comment; CommentID is set for comment reactions.
type (
	CreateReactionMsg struct {
		Actor     models.Actor
		PostID    models.PostID
		CommentID *models.CommentID
		Kind      models.ReactionKind
	}

	UpdateReactionMsg struct {
		Actor      models.Actor
		PostID     models.PostID
		CommentID  *models.CommentID
		ReactionID models.ReactionID
		Kind       models.ReactionKind
	}

	DeleteReactionMsg struct {
		Actor      models.Actor
		PostID     models.PostID
		CommentID  *models.CommentID
		ReactionID models.ReactionID
	}

	GetReactionMsg struct {
		ReactionID models.ReactionID
	}

	GetReactionsMsg struct {
		PostID    models.PostID
		CommentID *models.CommentID
	}
)

// Message types for accounts and profiles
type (
	FollowAccountMsg struct {
		Actor   models.Actor
		Account uuid.UUID
	}

	UnfollowAccountMsg struct {
		Actor   models.Actor
		Account uuid.UUID
	}

	CreateProfileMsg struct {
		Actor       models.Actor
		Username    string
		ContentHash string
	}

	UpdateProfileMsg struct {
		Actor  models.Actor
		Update models.ProfileUpdate
	}

	GetSocialAccountMsg struct {
		Account uuid.UUID
	}

	GetAccountFollowersMsg struct {
		Account uuid.UUID
	}

	GetAccountsFollowedByMsg struct {
		Account uuid.UUID
	}

	GetAccountByUsernameMsg struct {
		Username string
	}

	GetStatsMsg struct{}
)

// Responses
type (
	// CreatedResponse carries the id assigned by a create command.
	CreatedResponse struct {
		ID uint64 `json:"id"`
	}

	AccountView struct {
		Account    uuid.UUID             `json:"account"`
		Reputation uint32                `json:"reputation"`
		Social     *models.SocialAccount `json:"social,omitempty"`
	}

	Stats struct {
		Height   uint64 `json:"height"`
		Requests uint64 `json:"requests"`
		Errors   uint64 `json:"errors"`
		Uptime   string `json:"uptime"`
	}
)

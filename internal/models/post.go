package models

import "fmt"

type ExtensionKind string

const (
	RegularPost   ExtensionKind = "regular"
	SharedPost    ExtensionKind = "shared_post"
	SharedComment ExtensionKind = "shared_comment"
)

// PostExtension tells whether a post is original content or a share.
type PostExtension struct {
	Kind      ExtensionKind `json:"kind"`
	PostID    PostID        `json:"post_id,omitempty"`
	CommentID CommentID     `json:"comment_id,omitempty"`
}

func Regular() PostExtension {
	return PostExtension{Kind: RegularPost}
}

func SharingPost(id PostID) PostExtension {
	return PostExtension{Kind: SharedPost, PostID: id}
}

func SharingComment(id CommentID) PostExtension {
	return PostExtension{Kind: SharedComment, CommentID: id}
}

func (e PostExtension) IsShare() bool {
	return e.Kind == SharedPost || e.Kind == SharedComment
}

func (e PostExtension) String() string {
	switch e.Kind {
	case SharedPost:
		return fmt.Sprintf("shared_post(%d)", e.PostID)
	case SharedComment:
		return fmt.Sprintf("shared_comment(%d)", e.CommentID)
	default:
		return string(RegularPost)
	}
}

type Post struct {
	ID            PostID                      `json:"id"`
	SpaceID       SpaceID                     `json:"space_id"`
	Created       Change                      `json:"created"`
	Updated       *Change                     `json:"updated,omitempty"`
	Hidden        bool                        `json:"hidden"`
	Extension     PostExtension               `json:"extension"`
	ContentHash   string                      `json:"content_hash"`
	CommentsCount uint32                      `json:"comments_count"`
	Upvotes       uint32                      `json:"upvotes_count"`
	Downvotes     uint32                      `json:"downvotes_count"`
	Shares        uint32                      `json:"shares_count"`
	Score         int32                       `json:"score"`
	EditHistory   []HistoryRecord[PostUpdate] `json:"edit_history,omitempty"`
}

func (p *Post) Owner() Actor {
	return p.Created.Actor
}

type PostUpdate struct {
	SpaceID     *SpaceID `json:"space_id,omitempty"`
	ContentHash *string  `json:"content_hash,omitempty"`
	Hidden      *bool    `json:"hidden,omitempty"`
}

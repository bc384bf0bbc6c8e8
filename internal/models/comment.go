package models

// Comment represents a comment on a post or a reply to another comment
type Comment struct {
	ID            CommentID                      `json:"id"`
	ParentID      *CommentID                     `json:"parent_id,omitempty"` // Nil for top-level comments
	PostID        PostID                         `json:"post_id"`
	Created       Change                         `json:"created"`
	Updated       *Change                        `json:"updated,omitempty"`
	Hidden        bool                           `json:"hidden"`
	ContentHash   string                         `json:"content_hash"`
	Upvotes       uint32                         `json:"upvotes_count"`
	Downvotes     uint32                         `json:"downvotes_count"`
	Shares        uint32                         `json:"shares_count"`
	DirectReplies uint32                         `json:"direct_replies_count"`
	Score         int32                          `json:"score"`
	EditHistory   []HistoryRecord[CommentUpdate] `json:"edit_history,omitempty"`
}

func (c *Comment) Owner() Actor {
	return c.Created.Actor
}

type CommentUpdate struct {
	ContentHash *string `json:"content_hash,omitempty"`
	Hidden      *bool   `json:"hidden,omitempty"`
}

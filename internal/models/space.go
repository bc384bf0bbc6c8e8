package models

type Space struct {
	ID          SpaceID                     `json:"id"`
	Created     Change                      `json:"created"`
	Updated     *Change                     `json:"updated,omitempty"`
	Hidden      bool                        `json:"hidden"`
	Handle      string                      `json:"handle"`
	ContentHash *string                     `json:"content_hash,omitempty"`
	Followers   uint32                      `json:"followers_count"`
	Following   uint16                      `json:"following_count"`
	PostsCount  uint32                      `json:"posts_count"`
	Score       int32                       `json:"score"`
	EditHistory []HistoryRecord[SpaceUpdate] `json:"edit_history,omitempty"`
}

// Owner returns the actor that created the space.
func (s *Space) Owner() Actor {
	return s.Created.Actor
}

// SpaceUpdate is a partial update. Nil fields are left unchanged.
type SpaceUpdate struct {
	Handle      *string `json:"handle,omitempty"`
	ContentHash *string `json:"content_hash,omitempty"`
	Hidden      *bool   `json:"hidden,omitempty"`
}

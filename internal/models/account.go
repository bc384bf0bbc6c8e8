package models

// SocialAccount is created lazily the first time an account is touched.
type SocialAccount struct {
	Followers       uint32   `json:"followers_count"`
	FollowingAccts  uint32   `json:"following_accounts_count"`
	FollowingSpaces uint16   `json:"following_spaces_count"`
	Reputation      uint32   `json:"reputation"`
	Profile         *Profile `json:"profile,omitempty"`
}

// NewSocialAccount returns the default account state.
func NewSocialAccount() *SocialAccount {
	return &SocialAccount{Reputation: 1}
}

type Profile struct {
	Created     Change                         `json:"created"`
	Updated     *Change                        `json:"updated,omitempty"`
	Username    string                         `json:"username"`
	ContentHash string                         `json:"content_hash"`
	EditHistory []HistoryRecord[ProfileUpdate] `json:"edit_history,omitempty"`
}

type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	ContentHash *string `json:"content_hash,omitempty"`
}

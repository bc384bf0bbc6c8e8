package models

import (
	"time"

	"github.com/google/uuid"
)

// Entity identifiers. Zero is never allocated, so a zero SpaceID means "no space".
type (
	SpaceID    uint64
	PostID     uint64
	CommentID  uint64
	ReactionID uint64
)

// Actor is the resolved identity behind a command: an account acting for itself,
// or an account acting on behalf of a space it owns.
type Actor struct {
	Account uuid.UUID `json:"account"`
	Space   SpaceID   `json:"space,omitempty"`
}

func AccountActor(account uuid.UUID) Actor {
	return Actor{Account: account}
}

func SpaceActor(account uuid.UUID, space SpaceID) Actor {
	return Actor{Account: account, Space: space}
}

// OnBehalf reports the delegating space, if any.
func (a Actor) OnBehalf() (SpaceID, bool) {
	return a.Space, a.Space != 0
}

// Follower returns the identity that follows spaces when this actor acts.
func (a Actor) Follower() Follower {
	if a.Space != 0 {
		return Follower{Space: a.Space}
	}
	return Follower{Account: a.Account}
}

// Follower is either an account or a space. Exactly one field is set.
type Follower struct {
	Account uuid.UUID `json:"account,omitempty"`
	Space   SpaceID   `json:"space,omitempty"`
}

func (f Follower) IsSpace() bool {
	return f.Space != 0
}

// Change is the audit stamp attached to created and updated entities.
type Change struct {
	Actor Actor     `json:"actor"`
	Block uint64    `json:"block"`
	Time  time.Time `json:"time"`
}

// HistoryRecord keeps the pre-change values of the fields an update touched.
type HistoryRecord[U any] struct {
	Edited  Change `json:"edited"`
	OldData U      `json:"old_data"`
}

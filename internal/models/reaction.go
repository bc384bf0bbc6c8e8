package models

import "fmt"

// ReactionKind represents the direction of a reaction.
type ReactionKind string

const (
	Upvote   ReactionKind = "upvote"
	Downvote ReactionKind = "downvote"
)

func ParseReactionKind(s string) (ReactionKind, error) {
	switch ReactionKind(s) {
	case Upvote, Downvote:
		return ReactionKind(s), nil
	}
	return "", fmt.Errorf("unknown reaction kind %q", s)
}

type Reaction struct {
	ID      ReactionID   `json:"id"`
	Created Change       `json:"created"`
	Updated *Change      `json:"updated,omitempty"`
	Kind    ReactionKind `json:"kind"`
}

func (r *Reaction) Owner() Actor {
	return r.Created.Actor
}

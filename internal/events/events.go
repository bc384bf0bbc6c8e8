// Package events defines what the engine reports after a command commits.
package events

import (
	"sync"

	"gator-social/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Type string

const (
	SpaceCreated           Type = "SpaceCreated"
	SpaceUpdated           Type = "SpaceUpdated"
	SpaceFollowed          Type = "SpaceFollowed"
	SpaceUnfollowed        Type = "SpaceUnfollowed"
	PostCreated            Type = "PostCreated"
	PostUpdated            Type = "PostUpdated"
	PostShared             Type = "PostShared"
	CommentCreated         Type = "CommentCreated"
	CommentUpdated         Type = "CommentUpdated"
	CommentShared          Type = "CommentShared"
	PostReactionCreated    Type = "PostReactionCreated"
	PostReactionUpdated    Type = "PostReactionUpdated"
	PostReactionDeleted    Type = "PostReactionDeleted"
	CommentReactionCreated Type = "CommentReactionCreated"
	CommentReactionUpdated Type = "CommentReactionUpdated"
	CommentReactionDeleted Type = "CommentReactionDeleted"
	AccountFollowed        Type = "AccountFollowed"
	AccountUnfollowed      Type = "AccountUnfollowed"
	ProfileCreated         Type = "ProfileCreated"
	ProfileUpdated         Type = "ProfileUpdated"
	ReputationChanged      Type = "ReputationChanged"
)

// Event is a flat record; only the ids relevant to Type are set.
type Event struct {
	Type       Type              `json:"type"`
	Block      uint64            `json:"block"`
	Actor      models.Actor      `json:"actor"`
	SpaceID    models.SpaceID    `json:"space_id,omitempty"`
	PostID     models.PostID     `json:"post_id,omitempty"`
	CommentID  models.CommentID  `json:"comment_id,omitempty"`
	ReactionID models.ReactionID `json:"reaction_id,omitempty"`
	Account    uuid.UUID         `json:"account,omitempty"`
	Action     string            `json:"action,omitempty"`
	Reputation uint32            `json:"reputation,omitempty"`
}

// Sink receives events of committed commands in emission order.
type Sink interface {
	Publish(ev Event)
}

// Discard drops everything.
type Discard struct{}

func (Discard) Publish(Event) {}

// Fanout publishes to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(ev Event) {
	for _, s := range f {
		s.Publish(ev)
	}
}

// LogSink writes each event at debug level.
type LogSink struct {
	Logger *zap.Logger
}

func (s LogSink) Publish(ev Event) {
	s.Logger.Debug("Event",
		zap.String("type", string(ev.Type)),
		zap.Uint64("block", ev.Block),
		zap.Stringer("account", ev.Actor.Account),
		zap.Uint64("space", uint64(ev.SpaceID)),
		zap.Uint64("post", uint64(ev.PostID)),
		zap.Uint64("comment", uint64(ev.CommentID)),
		zap.Uint64("reaction", uint64(ev.ReactionID)))
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

package engine

import (
	"fmt"

	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

// cache holds entities loaded during one command so every code path mutates
// the same copy. Dirty entries are written back by flush.
type cache[K comparable, V any] struct {
	key   func(K) storage.Key
	items map[K]*V
	dirty map[K]bool
	order []K
}

func newCache[K comparable, V any](key func(K) storage.Key) *cache[K, V] {
	return &cache[K, V]{key: key, items: make(map[K]*V), dirty: make(map[K]bool)}
}

func (c *cache[K, V]) get(tx *storage.Tx, id K) (*V, bool, error) {
	if v, ok := c.items[id]; ok {
		return v, true, nil
	}
	v, found, err := storage.Load[V](tx, c.key(id))
	if err != nil || !found {
		return nil, false, err
	}
	c.items[id] = v
	return v, true, nil
}

func (c *cache[K, V]) put(id K, v *V) {
	c.items[id] = v
	if !c.dirty[id] {
		c.dirty[id] = true
		c.order = append(c.order, id)
	}
}

func (c *cache[K, V]) flush(tx *storage.Tx) error {
	for _, id := range c.order {
		if err := storage.Store(tx, c.key(id), c.items[id]); err != nil {
			return err
		}
	}
	return nil
}

// op is the state of one command in flight.
type op struct {
	e      *Engine
	tx     *storage.Tx
	ledger *scoring.Ledger
	actor  models.Actor
	change models.Change
	events []events.Event

	spaces   *cache[models.SpaceID, models.Space]
	posts    *cache[models.PostID, models.Post]
	comments *cache[models.CommentID, models.Comment]
	accounts *cache[uuid.UUID, models.SocialAccount]
}

func (e *Engine) begin(tx *storage.Tx, actor models.Actor) (*op, error) {
	o := &op{
		e:        e,
		tx:       tx,
		ledger:   scoring.NewLedger(tx),
		actor:    actor,
		spaces:   newCache[models.SpaceID, models.Space](func(id models.SpaceID) storage.Key { return spaceByIDKey.U64(uint64(id)) }),
		posts:    newCache[models.PostID, models.Post](func(id models.PostID) storage.Key { return postByIDKey.U64(uint64(id)) }),
		comments: newCache[models.CommentID, models.Comment](func(id models.CommentID) storage.Key { return commentByIDKey.U64(uint64(id)) }),
		accounts: newCache[uuid.UUID, models.SocialAccount](func(id uuid.UUID) storage.Key { return socialAccountKey.Account(id) }),
	}
	if err := o.resolveActor(); err != nil {
		return nil, err
	}

	height, err := o.nextCounter(heightKey)
	if err != nil {
		return nil, err
	}
	o.change = models.Change{Actor: o.actor, Block: height, Time: e.clock().UTC()}
	return o, nil
}

// resolveActor checks that a delegating space exists and belongs to the signer.
func (o *op) resolveActor() error {
	spaceID, ok := o.actor.OnBehalf()
	if !ok {
		return nil
	}
	space, err := o.space(spaceID)
	if err != nil {
		return err
	}
	if space.Owner().Account != o.actor.Account {
		return utils.NewForbiddenError("account %s cannot act on behalf of space %d", o.actor.Account, spaceID)
	}
	return nil
}

// actAsAccount drops the delegating space, for commands that only accounts perform.
func (o *op) actAsAccount() {
	o.actor = models.AccountActor(o.actor.Account)
	o.change.Actor = o.actor
}

func (o *op) flush() error {
	if err := o.spaces.flush(o.tx); err != nil {
		return err
	}
	if err := o.posts.flush(o.tx); err != nil {
		return err
	}
	if err := o.comments.flush(o.tx); err != nil {
		return err
	}
	return o.accounts.flush(o.tx)
}

func (o *op) stamp() *models.Change {
	c := o.change
	return &c
}

// emit queues ev for publication after commit. Post-scoped events inherit
// the post's space so subscribers can filter on it.
func (o *op) emit(ev events.Event) {
	ev.Block = o.change.Block
	if ev.SpaceID == 0 && ev.PostID != 0 {
		if post, err := o.post(ev.PostID); err == nil {
			ev.SpaceID = post.SpaceID
		}
	}
	if ev.Actor == (models.Actor{}) {
		ev.Actor = o.actor
	}
	o.events = append(o.events, ev)
}

// nextCounter returns the value stored at key, starting at 1, and advances it.
func (o *op) nextCounter(key storage.Key) (uint64, error) {
	cur, found, err := storage.Load[uint64](o.tx, key)
	if err != nil {
		return 0, err
	}
	next := uint64(1)
	if found {
		next = *cur
	}
	following, err := utils.Inc(next, fmt.Sprintf("counter %s", key))
	if err != nil {
		return 0, err
	}
	return next, storage.Store(o.tx, key, following)
}

func (o *op) space(id models.SpaceID) (*models.Space, error) {
	s, found, err := o.spaces.get(o.tx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError("space %d was not found", id)
	}
	return s, nil
}

func (o *op) post(id models.PostID) (*models.Post, error) {
	p, found, err := o.posts.get(o.tx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError("post %d was not found", id)
	}
	return p, nil
}

func (o *op) comment(id models.CommentID) (*models.Comment, error) {
	c, found, err := o.comments.get(o.tx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError("comment %d was not found", id)
	}
	return c, nil
}

// account returns the social account, creating the default one if absent.
// A created account is persisted only if the caller marks it dirty.
func (o *op) account(id uuid.UUID) (*models.SocialAccount, error) {
	a, found, err := o.accounts.get(o.tx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		a = models.NewSocialAccount()
		o.accounts.items[id] = a
	}
	return a, nil
}

func (o *op) existingAccount(id uuid.UUID) (*models.SocialAccount, error) {
	a, found, err := o.accounts.get(o.tx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError("social account %s was not found", id)
	}
	return a, nil
}

func (o *op) reaction(id models.ReactionID) (*models.Reaction, error) {
	r, found, err := storage.Load[models.Reaction](o.tx, reactionByIDKey.U64(uint64(id)))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, utils.NewNotFoundError("reaction %d was not found", id)
	}
	return r, nil
}

func (o *op) mark(key storage.Key) error {
	return storage.Store(o.tx, key, true)
}

package engine

import (
	"gator-social/internal/events"
	"gator-social/internal/models"
	"gator-social/internal/scoring"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

// scoreTarget binds a ledger target to the entity whose score it moves.
type scoreTarget struct {
	target scoring.Target
	owner  uuid.UUID
	adjust func(delta int32) error
}

func (o *op) postScore(p *models.Post) scoreTarget {
	return scoreTarget{
		target: scoring.PostTarget(p.ID),
		owner:  p.Owner().Account,
		adjust: func(delta int32) error {
			space, err := o.space(p.SpaceID)
			if err != nil {
				return err
			}
			postScore, err := utils.CheckedAdd(p.Score, delta, "post score")
			if err != nil {
				return err
			}
			spaceScore, err := utils.CheckedAdd(space.Score, delta, "space score")
			if err != nil {
				return err
			}
			p.Score, space.Score = postScore, spaceScore
			o.posts.put(p.ID, p)
			o.spaces.put(space.ID, space)
			return nil
		},
	}
}

func (o *op) commentScore(c *models.Comment) scoreTarget {
	return scoreTarget{
		target: scoring.CommentTarget(c.ID),
		owner:  c.Owner().Account,
		adjust: func(delta int32) error {
			score, err := utils.CheckedAdd(c.Score, delta, "comment score")
			if err != nil {
				return err
			}
			c.Score = score
			o.comments.put(c.ID, c)
			return nil
		},
	}
}

func (o *op) spaceScore(s *models.Space) scoreTarget {
	return scoreTarget{
		target: scoring.SpaceTarget(s.ID),
		owner:  s.Owner().Account,
		adjust: func(delta int32) error {
			score, err := utils.CheckedAdd(s.Score, delta, "space score")
			if err != nil {
				return err
			}
			s.Score = score
			o.spaces.put(s.ID, s)
			return nil
		},
	}
}

// accountScore targets an account directly; only reputation moves.
func (o *op) accountScore(account uuid.UUID) scoreTarget {
	return scoreTarget{
		target: scoring.AccountTarget(account),
		owner:  account,
		adjust: func(int32) error { return nil },
	}
}

// applyScore toggles the ledger key for (actor, target, action): an absent
// entry is applied, an applied one is reverted. An applied opposite action is
// reverted first.
func (o *op) applyScore(t scoreTarget, action scoring.Action) error {
	if o.selfScored(t) {
		return nil
	}
	if opposite, ok := action.Opposite(); ok {
		if err := o.revertScoreIfApplied(t, opposite); err != nil {
			return err
		}
	}
	_, applied, err := o.ledger.Lookup(o.actor, t.target, action)
	if err != nil {
		return err
	}
	if applied {
		return o.revertScore(t, action)
	}

	scorer, err := o.account(o.actor.Account)
	if err != nil {
		return err
	}
	diff, err := scoring.ScoreDiff(scorer.Reputation, action, o.e.params.Weights)
	if err != nil {
		return err
	}
	if err := t.adjust(diff); err != nil {
		return err
	}
	recorded, err := o.changeReputation(t.owner, diff, action)
	if err != nil {
		return err
	}
	o.accounts.put(o.actor.Account, scorer)

	return o.ledger.Record(o.actor, t.target, action, scoring.Entry{
		Owner:           t.owner,
		ScoreDelta:      diff,
		ReputationDelta: recorded,
	})
}

// revertScore subtracts exactly what applyScore recorded. A missing entry is
// an invariant violation.
func (o *op) revertScore(t scoreTarget, action scoring.Action) error {
	if o.selfScored(t) {
		return nil
	}
	entry, err := o.ledger.Clear(o.actor, t.target, action)
	if err != nil {
		return err
	}
	undo, err := utils.CheckedSub(int32(0), entry.ScoreDelta, "score")
	if err != nil {
		return err
	}
	if err := t.adjust(undo); err != nil {
		return err
	}
	owner, err := o.account(entry.Owner)
	if err != nil {
		return err
	}
	next, err := scoring.RevertReputation(owner.Reputation, entry.ReputationDelta)
	if err != nil {
		return err
	}
	o.setReputation(entry.Owner, owner, next, action)
	return nil
}

// selfScored compares accounts only: acting on behalf of one's own space
// still counts as scoring oneself.
func (o *op) selfScored(t scoreTarget) bool {
	return t.owner == o.actor.Account
}

func (o *op) revertScoreIfApplied(t scoreTarget, action scoring.Action) error {
	_, applied, err := o.ledger.Lookup(o.actor, t.target, action)
	if err != nil || !applied {
		return err
	}
	return o.revertScore(t, action)
}

// changeReputation adds delta to the owner's reputation, floored at 1, and
// returns the delta that was actually recorded.
func (o *op) changeReputation(owner uuid.UUID, delta int32, action scoring.Action) (int32, error) {
	account, err := o.account(owner)
	if err != nil {
		return 0, err
	}
	next, recorded, err := scoring.ApplyReputation(account.Reputation, delta)
	if err != nil {
		return 0, err
	}
	o.setReputation(owner, account, next, action)
	return recorded, nil
}

func (o *op) setReputation(id uuid.UUID, account *models.SocialAccount, next uint32, action scoring.Action) {
	changed := account.Reputation != next
	account.Reputation = next
	o.accounts.put(id, account)
	if changed {
		o.emit(events.Event{
			Type:       events.ReputationChanged,
			Account:    id,
			Action:     action.String(),
			Reputation: next,
		})
	}
}

package scoring

import (
	"fmt"

	"gator-social/internal/models"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/google/uuid"
)

type TargetKind uint8

const (
	TargetPost TargetKind = iota + 1
	TargetComment
	TargetSpace
	TargetAccount
)

// Target identifies the entity whose score an action changed.
type Target struct {
	Kind    TargetKind `json:"kind"`
	ID      uint64     `json:"id,omitempty"`
	Account uuid.UUID  `json:"account,omitempty"`
}

func PostTarget(id models.PostID) Target       { return Target{Kind: TargetPost, ID: uint64(id)} }
func CommentTarget(id models.CommentID) Target { return Target{Kind: TargetComment, ID: uint64(id)} }
func SpaceTarget(id models.SpaceID) Target     { return Target{Kind: TargetSpace, ID: uint64(id)} }
func AccountTarget(id uuid.UUID) Target        { return Target{Kind: TargetAccount, Account: id} }

func (t Target) String() string {
	switch t.Kind {
	case TargetPost:
		return fmt.Sprintf("post %d", t.ID)
	case TargetComment:
		return fmt.Sprintf("comment %d", t.ID)
	case TargetSpace:
		return fmt.Sprintf("space %d", t.ID)
	case TargetAccount:
		return "account " + t.Account.String()
	}
	return "unknown target"
}

// Entry is what an applied action contributed. Its presence in the ledger
// means the action is in effect.
type Entry struct {
	Owner           uuid.UUID `json:"owner"`
	ScoreDelta      int32     `json:"score_delta"`
	ReputationDelta int32     `json:"reputation_delta"`
}

// Ledger reads and writes entries inside one storage transaction.
type Ledger struct {
	tx *storage.Tx
}

func NewLedger(tx *storage.Tx) *Ledger {
	return &Ledger{tx: tx}
}

// ledgerKey is (scorer actor, target entity, action). Keying on the scored
// entity rather than its owner keeps two posts by the same owner apart.
func ledgerKey(scorer models.Actor, target Target, action Action) storage.Key {
	k := storage.NewKey("Scoring", "ReputationDiff").
		Account(scorer.Account).
		U64(uint64(scorer.Space)).
		Byte(byte(target.Kind))
	if target.Kind == TargetAccount {
		k = k.Account(target.Account)
	} else {
		k = k.U64(target.ID)
	}
	return k.Byte(byte(action))
}

// Lookup returns the entry and whether the action is currently applied.
func (l *Ledger) Lookup(scorer models.Actor, target Target, action Action) (Entry, bool, error) {
	e, found, err := storage.Load[Entry](l.tx, ledgerKey(scorer, target, action))
	if err != nil || !found {
		return Entry{}, false, err
	}
	return *e, true, nil
}

// Record moves the key from absent to applied.
func (l *Ledger) Record(scorer models.Actor, target Target, action Action, entry Entry) error {
	key := ledgerKey(scorer, target, action)
	exists, err := l.tx.Has(key)
	if err != nil {
		return err
	}
	if exists {
		return utils.NewInvariantError("%s by %s on %s is already applied", action, scorer.Account, target)
	}
	return storage.Store(l.tx, key, entry)
}

// Clear moves the key from applied to absent and returns what was recorded.
// Clearing an absent key is an invariant violation.
func (l *Ledger) Clear(scorer models.Actor, target Target, action Action) (Entry, error) {
	entry, found, err := l.Lookup(scorer, target, action)
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, utils.NewInvariantError("no %s by %s on %s to revert", action, scorer.Account, target)
	}
	l.tx.Delete(ledgerKey(scorer, target, action))
	return entry, nil
}

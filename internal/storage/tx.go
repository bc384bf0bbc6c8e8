package storage

import (
	"bytes"
	"context"
	"errors"
	"sort"
)

// Tx buffers writes over a Backend. Reads see the transaction's own writes;
// nothing reaches the backend until Commit.
type Tx struct {
	ctx     context.Context
	backend Backend
	writes  map[string]*[]byte // nil pointer marks a delete
	done    bool
}

func NewTx(ctx context.Context, backend Backend) *Tx {
	return &Tx{
		ctx:     ctx,
		backend: backend,
		writes:  make(map[string]*[]byte),
	}
}

func (tx *Tx) Context() context.Context {
	return tx.ctx
}

// Get returns the value at key, or ErrNotFound.
func (tx *Tx) Get(key []byte) ([]byte, error) {
	if v, ok := tx.writes[string(key)]; ok {
		if v == nil {
			return nil, ErrNotFound
		}
		return *v, nil
	}
	return tx.backend.Get(tx.ctx, key)
}

func (tx *Tx) Has(key []byte) (bool, error) {
	_, err := tx.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (tx *Tx) Put(key, value []byte) {
	v := bytes.Clone(value)
	tx.writes[string(key)] = &v
}

func (tx *Tx) Delete(key []byte) {
	tx.writes[string(key)] = nil
}

// Scan merges backend entries under prefix with pending writes.
func (tx *Tx) Scan(prefix []byte, fn ScanFunc) error {
	merged := make(map[string][]byte)
	err := tx.backend.Scan(tx.ctx, prefix, func(k, v []byte) error {
		merged[string(k)] = v
		return nil
	})
	if err != nil {
		return err
	}
	for k, v := range tx.writes {
		if !bytes.HasPrefix([]byte(k), prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
		} else {
			merged[k] = *v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn([]byte(k), merged[k]); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of live keys under prefix.
func (tx *Tx) Count(prefix []byte) (int, error) {
	n := 0
	err := tx.Scan(prefix, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

// Pending reports how many keys the transaction would write.
func (tx *Tx) Pending() int {
	return len(tx.writes)
}

// Commit applies all buffered writes atomically. The transaction cannot be reused.
func (tx *Tx) Commit() error {
	if tx.done {
		return errors.New("storage: transaction already finished")
	}
	tx.done = true
	if len(tx.writes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		v := tx.writes[k]
		if v == nil {
			ops = append(ops, Op{Key: []byte(k), Delete: true})
		} else {
			ops = append(ops, Op{Key: []byte(k), Value: *v})
		}
	}
	return tx.backend.Apply(tx.ctx, ops)
}

// Discard drops all buffered writes.
func (tx *Tx) Discard() {
	tx.done = true
	tx.writes = nil
}

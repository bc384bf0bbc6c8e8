package storage

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Load decodes the value at key into a new T. The boolean is false when the key is absent.
func Load[T any](tx *Tx, key Key) (*T, bool, error) {
	raw, err := tx.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	out := new(T)
	if err := sonic.Unmarshal(raw, out); err != nil {
		return nil, false, fmt.Errorf("decode %x: %w", []byte(key), err)
	}
	return out, true, nil
}

// Store encodes v and buffers it at key.
func Store(tx *Tx, key Key, v any) error {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %x: %w", []byte(key), err)
	}
	tx.Put(key, raw)
	return nil
}

// LoadAll decodes every value under prefix in key order.
func LoadAll[T any](tx *Tx, prefix Key) ([]T, error) {
	var out []T
	err := tx.Scan(prefix, func(k, v []byte) error {
		var item T
		if err := sonic.Unmarshal(v, &item); err != nil {
			return fmt.Errorf("decode %x: %w", k, err)
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

// TailIDs collects the trailing integer of every key under prefix.
func TailIDs(tx *Tx, prefix Key) ([]uint64, error) {
	var out []uint64
	err := tx.Scan(prefix, func(k, _ []byte) error {
		out = append(out, TailU64(k))
		return nil
	})
	return out, err
}

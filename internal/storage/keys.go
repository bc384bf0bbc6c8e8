package storage

import (
	"encoding/binary"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Key is a composite storage key. Every builder method returns a fresh copy,
// so a shared prefix can be extended safely.
type Key []byte

// NewKey starts a key in the namespace of one logical map.
func NewKey(module, name string) Key {
	k := make(Key, 0, len(module)+len(name)+2+32)
	k = append(k, module...)
	k = append(k, ':')
	k = append(k, name...)
	k = append(k, ':')
	return k
}

func (k Key) extend(n int) Key {
	out := make(Key, len(k), len(k)+n)
	copy(out, k)
	return out
}

// U64 appends a big-endian integer so prefix scans return ascending ids.
func (k Key) U64(v uint64) Key {
	return binary.BigEndian.AppendUint64(k.extend(8), v)
}

func (k Key) Byte(b byte) Key {
	return append(k.extend(1), b)
}

func (k Key) Account(id uuid.UUID) Key {
	return append(k.extend(16), id[:]...)
}

// Hashed appends blake2b-128(b) followed by b itself, keeping variable-length
// parts from colliding with their neighbours while staying reversible.
func (k Key) Hashed(b []byte) Key {
	sum, _ := blake2b.New(16, nil)
	sum.Write(b)
	out := append(k.extend(16+len(b)), sum.Sum(nil)...)
	return append(out, b...)
}

// TailU64 decodes the trailing integer of a key built with U64.
func TailU64(k []byte) uint64 {
	if len(k) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(k)-8:])
}

// TailAccount decodes the trailing account of a key built with Account.
func TailAccount(k []byte) uuid.UUID {
	var id uuid.UUID
	if len(k) >= 16 {
		copy(id[:], k[len(k)-16:])
	}
	return id
}

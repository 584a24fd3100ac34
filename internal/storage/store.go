package storage

import "context"

// The persistent store is a durable key→JSON mapping. The state gateway
// serializes whole collections under well-known keys and the store only
// moves bytes, which keeps the choice of backend (memory, Redis, Postgres)
// out of domain code.
//
// Implementations must make SetMulti atomic: either every key in the batch
// becomes visible to a later Get, or none does. The membership engine relies
// on this to flush the three records touched by an invitation acceptance as
// one unit.
type KV interface {
	// Get returns the value at key, or sentinel.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value at key.
	Set(ctx context.Context, key string, value []byte) error
	// SetMulti overwrites every key in values atomically.
	SetMulti(ctx context.Context, values map[string][]byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Well-known keys. The layout mirrors the app's persisted state: the current
// session snapshot, the full account list (with secrets), and the community,
// payment, and message collections.
const (
	KeySession     = "user"
	KeyAccounts    = "users"
	KeyCommunities = "communities"
	KeyPayments    = "payments"
	KeyMessages    = "messages"
)

// keyPrefix namespaces all keys so courtyard can share a Redis database or
// Postgres schema with other tools.
const keyPrefix = "courtyard:"

func namespaced(key string) string { return keyPrefix + key }

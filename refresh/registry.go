package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a token has no live registry entry.
	ErrNotFound = errors.New("refresh token not registered")
	// ErrOwnerMismatch is returned by Rename when the stored owner is not the caller's user.
	ErrOwnerMismatch = errors.New("refresh token owner mismatch")
	// ErrUnavailable wraps transport failures of the backing store.
	ErrUnavailable = errors.New("refresh registry unavailable")
	// ErrInvalidTTL is returned by Save for a non-positive ttl.
	ErrInvalidTTL = errors.New("refresh registry ttl must be positive")
	// ErrEmptyToken is returned when an empty token string is passed in.
	ErrEmptyToken = errors.New("refresh token empty")
)

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "refresh"

// Registry tracks which refresh tokens are still live. An entry maps a token
// to its owning user id and expires on its own after ttl.
type Registry interface {
	// Save stores token for userID, replacing any existing entry.
	Save(ctx context.Context, token string, userID int64, ttl time.Duration) error
	// Exists reports whether token has a live entry.
	Exists(ctx context.Context, token string) (bool, error)
	// RemainingTTL returns the time left on token's entry, or ErrNotFound.
	RemainingTTL(ctx context.Context, token string) (time.Duration, error)
	// Delete removes token and reports whether an entry was present.
	Delete(ctx context.Context, token string) (bool, error)
	// Rename atomically replaces oldToken with newToken, keeping the old
	// entry's remaining ttl. The old entry must belong to userID.
	Rename(ctx context.Context, oldToken, newToken string, userID int64) error
}

// Pinger is implemented by registries that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KeyFor derives the storage key for token. Token strings are never stored raw.
func KeyFor(prefix, token string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	sum := sha256.Sum256([]byte(token))
	return prefix + ":" + base64.RawURLEncoding.EncodeToString(sum[:])
}

package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no live entry exists for a session id.
	ErrNotFound = errors.New("session not found")
	// ErrExists is returned by Put when the session id is already live.
	ErrExists = errors.New("session already exists")
	// ErrUnavailable marks failures of the backing store.
	ErrUnavailable = errors.New("session cache unavailable")
)

// Cache stores sessionID -> userID with a time-to-live.
type Cache interface {
	// Put creates an entry. It fails with ErrExists rather than overwrite.
	Put(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	// Take returns and deletes the entry in one step.
	Take(ctx context.Context, sessionID string) (string, error)
	// Delete is idempotent.
	Delete(ctx context.Context, sessionID string) error
}

func validate(sessionID string, ttl time.Duration) error {
	if sessionID == "" {
		return errors.New("empty session id")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be positive")
	}
	return nil
}

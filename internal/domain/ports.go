package domain

import (
	"context"
	"time"
)

// KeyValueStore persists timer state. Implementations can be in-memory,
// SQLite, or any other local key-value backend. All operations are
// assumed cheap and synchronous. A nil store is valid everywhere it is
// accepted: the runtime then degrades to non-persistent operation.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. ttl is a hint; zero means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Notifier delivers completion alerts to the user. Failures are
// best-effort and must never block a phase transition.
type Notifier interface {
	RequestPermission(ctx context.Context) error
	Notify(ctx context.Context, title, body string) error
}

// Alerter plays an audible cue when a timer completes. Implementations
// swallow playback failures.
type Alerter interface {
	Alert(ctx context.Context) error
}

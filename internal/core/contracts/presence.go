package contracts

import (
	"context"
	"time"
)

// PresenceStore is the advisory online-status mirror, TTL-based. It answers
// "was this user recently alive anywhere" for UI purposes only; routing
// decisions always go through the in-process Registry.
type PresenceStore interface {
	// Heartbeat marks user as alive for roughly ttl.
	Heartbeat(ctx context.Context, user string, ttl time.Duration) error
	// IsOnline reports whether user has a live heartbeat.
	IsOnline(ctx context.Context, user string) (bool, error)
	// Online lists users with a live heartbeat.
	Online(ctx context.Context) ([]string, error)
	// Clear drops the heartbeat for user immediately.
	Clear(ctx context.Context, user string) error
}

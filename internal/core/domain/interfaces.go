package domain

import "context"

// MessageStore is the append-only persistence collaborator, addressed by
// conversation key. Append assigns the message ID and server-side timestamp
// and is the sole mutation; failures wrap ErrStoreUnavailable.
type MessageStore interface {
	Append(ctx context.Context, key string, msg Message) (PersistedMessage, error)
	// History returns the persisted log for key in commit order, newest last.
	// limit <= 0 returns the full log.
	History(ctx context.Context, key string, limit int) ([]PersistedMessage, error)
}

package registry

import (
	"sync"

	"courier/internal/core/contracts"

	"github.com/samber/lo"
)

// Registry is the process-wide presence table: user identity → live
// connection. It holds no persistent state and starts empty on every boot,
// which matches the lifetime of the connections it tracks.
//
// Invariants: at most one entry per user, and a connection owns at most one
// entry. The owners index (connection id → user) exists so Unregister can
// resolve a disconnect, which only knows the connection, without scanning.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]contracts.Client
	owners map[string]string // connection id → user
}

func New() *Registry {
	return &Registry{
		byUser: make(map[string]contracts.Client),
		owners: make(map[string]string),
	}
}

// Register upserts the entry for user. A prior connection for the same user is
// silently dropped from the table; it stays open but becomes unroutable until
// it disconnects or re-registers.
func (r *Registry) Register(user string, c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byUser[user]; ok && prev.ID() != c.ID() {
		delete(r.owners, prev.ID())
	}
	// the connection may be re-registering under a new identity
	if prevUser, ok := r.owners[c.ID()]; ok && prevUser != user {
		delete(r.byUser, prevUser)
	}
	r.byUser[user] = c
	r.owners[c.ID()] = user
}

// Lookup returns the current connection for user.
func (r *Registry) Lookup(user string) (contracts.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byUser[user]
	return c, ok
}

// Unregister removes the entry owned by c. Disconnect events report the
// connection, not the user, so resolution goes through the owners index.
// Unknown or already-removed connections are a benign no-op.
func (r *Registry) Unregister(c contracts.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.owners[c.ID()]
	if !ok {
		return
	}
	delete(r.owners, c.ID())
	// only drop the forward entry if this connection still owns it; a newer
	// registration for the same user must survive the old connection's death
	if cur, ok := r.byUser[user]; ok && cur.ID() == c.ID() {
		delete(r.byUser, user)
	}
}

// Online snapshots the currently routable users.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byUser)
}

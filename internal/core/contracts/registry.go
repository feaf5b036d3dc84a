package contracts

// Registry maps user identities to their current connection. One live entry
// per user, one owner per connection; last registration wins.
type Registry interface {
	// Register binds user to c, silently replacing any prior connection for
	// that user. Idempotent for a repeated (user, c) pair.
	Register(user string, c Client)
	// Lookup returns the current connection for user, if any.
	Lookup(user string) (Client, bool)
	// Unregister removes whichever entry c owns. No-op when c owns none.
	Unregister(c Client)
	// Online snapshots the currently routable user identities.
	Online() []string
}

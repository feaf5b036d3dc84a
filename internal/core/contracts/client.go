package contracts

import "context"

// Client is the minimal surface the relay needs from one live transport
// connection. ID identifies the connection itself, not the user behind it;
// a connection may exist before any user registers on it.
type Client interface {
	ID() string
	Send(ctx context.Context, data []byte) error
	Close()
}

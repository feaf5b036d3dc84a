package domain

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid message payload")
	ErrInvalidIdentity  = errors.New("invalid user identity")
	ErrStoreUnavailable = errors.New("message store unavailable")
	ErrIdentityMismatch = errors.New("identity does not match connection owner")
)

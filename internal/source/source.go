package source

import (
	"context"
	"errors"
	"fmt"
)

// AuthError indicates that the mailbox rejected the configured credentials.
type AuthError struct {
	Account string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Account, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Mailbox is an open session on a remote mail folder. Identifiers are the
// folder's stable message UIDs.
type Mailbox interface {
	// SenderUIDs lists the messages whose From header contains sender.
	SenderUIDs(ctx context.Context, sender string) ([]uint32, error)

	// FetchRaw returns the complete RFC 822 bytes of a message without
	// marking it seen.
	FetchRaw(ctx context.Context, uid uint32) ([]byte, error)

	// Archive moves a message out of the folder.
	Archive(ctx context.Context, uid uint32) error

	// Close ends the session. It must be called on every exit path.
	Close() error
}

// Opener opens mailbox sessions.
type Opener interface {
	Open(ctx context.Context) (Mailbox, error)
}

// Package session tracks which issued session tokens are still live.
//
// Tokens are signed JWTs; the store only remembers their ids so a logout can
// revoke a token before it expires.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
var ErrUnavailable = errors.New("session store unavailable")

// Store records live session ids.
type Store interface {
	// Save marks id as live for userID until ttl elapses.
	Save(ctx context.Context, id string, userID uint, ttl time.Duration) error
	// Lookup returns the user owning a live id. ok is false for unknown or expired ids.
	Lookup(ctx context.Context, id string) (userID uint, ok bool, err error)
	// Delete revokes id. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error
}

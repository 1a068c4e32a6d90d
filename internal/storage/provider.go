package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectExists is returned by Provider.Create when the key is already taken.
var ErrObjectExists = errors.New("object already exists")

// Provider defines the behavior for any blob backend.
type Provider interface {
	// Create writes body under key. It never overwrites: an existing key
	// yields ErrObjectExists and leaves the stored object untouched.
	Create(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) error
	// URL returns an address a browser can fetch the object from.
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Package session stores opaque per-session byte blobs. The cart is the
// only consumer today; it round-trips its whole serialized state through
// this store on every mutation.
package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no value exists for the key.
var ErrNotFound = errors.New("session: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

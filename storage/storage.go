package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no object exists under a key
var ErrNotFound = errors.New("storage: object not found")

// Store keeps uploaded attachments
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

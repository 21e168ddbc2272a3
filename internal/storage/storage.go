// Package storage abstracts the object store that receives audit archive
// files. Archives are small enough to hold in memory, so the interface is
// byte-oriented rather than streaming.
package storage

import (
	"context"
	"errors"
)

var ErrObjectNotFound = errors.New("object not found")

// ObjectInfo describes an uploaded object as reported by the backend.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

type ObjectStore interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

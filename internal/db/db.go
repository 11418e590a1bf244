package db

import "context"

// BlobStore stores opaque values under string keys. Set replaces the value
// atomically: a concurrent Get sees either the old or the new value.
type BlobStore interface {
	Pinger
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close()
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

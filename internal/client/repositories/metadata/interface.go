// Package metadata is a small key/value table in the local store. It holds
// the sync cursor, the device id and the session.
package metadata

import (
	"context"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error

	// GetInt64 reads a decimal counter; a missing key reads as 0.
	GetInt64(ctx context.Context, key string) (int64, error)
	// SetMaxInt64 stores n unless the stored counter is already greater or
	// equal, and returns the value held afterwards.
	SetMaxInt64(ctx context.Context, key string, n int64) (int64, error)
}

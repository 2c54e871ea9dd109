// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
)

// BlobName is the fixed key under which the serialized chat state is stored.
const BlobName = "chat-store"

// Persister defines the interface for persisting the chat state blob.
type Persister interface {
	// Load reads the state blob. It returns (nil, nil) when no blob has
	// been saved yet.
	Load(ctx context.Context) ([]byte, error)

	// Save writes the state blob, replacing any previous version.
	Save(ctx context.Context, data []byte) error

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying storage.
	Close() error
}

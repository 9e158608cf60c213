// internal/storage/archive/interface.go
package archive

import "context"

// Storage defines the interface for transcript archive backends.
// The archive is append-only: transcripts are written once and never
// rewritten or deleted by relay.
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

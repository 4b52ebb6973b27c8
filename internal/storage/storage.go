// Package storage persists serialized index snapshots so a restart can
// skip rebuilding when the corpus has not changed.
package storage

import "context"

// Store saves and loads opaque snapshot artifacts by key.
type Store interface {
	// Save writes the artifact under key, replacing any previous artifact.
	Save(ctx context.Context, key string, data []byte) error

	// Load reads the artifact under key, or returns ErrArtifactNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the artifact under key. Deleting a missing artifact
	// is not an error.
	Delete(ctx context.Context, key string) error
}

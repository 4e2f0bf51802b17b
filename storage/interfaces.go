package storage

import (
	"context"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// IndexRepository persists the two artifacts of a semantic index: the vector
// artifact and the metadata artifact. Row i of one pairs with row i of the
// other.
type IndexRepository interface {
	Repository

	// SaveIndex replaces the stored vector artifact.
	SaveIndex(ctx context.Context, artifact *core.VectorArtifact) error

	// LoadIndex reads the stored vector artifact.
	// Returns ErrNotFound if no vector artifact has been saved.
	LoadIndex(ctx context.Context) (*core.VectorArtifact, error)

	// SaveMetadata replaces the stored metadata artifact.
	SaveMetadata(ctx context.Context, artifact *core.MetadataArtifact) error

	// LoadMetadata reads the stored metadata artifact.
	// Returns ErrNotFound if no metadata artifact has been saved.
	LoadMetadata(ctx context.Context) (*core.MetadataArtifact, error)

	// DeleteAll removes both artifacts.
	DeleteAll(ctx context.Context) error
}

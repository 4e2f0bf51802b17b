package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/storage"
)

// Artifacts returns the published snapshot in its persisted layout.
func (idx *Index) Artifacts() (*core.VectorArtifact, *core.MetadataArtifact, error) {
	snap := idx.current.Load()
	if snap.rows() == 0 {
		return nil, nil, core.ErrIndexNotReady
	}

	vectors := &core.VectorArtifact{
		Model:     snap.model,
		Dimension: snap.dimension,
		Vectors:   snap.vectors,
		RowIDs:    snap.ids,
		BuiltAt:   snap.builtAt,
	}
	metadata := &core.MetadataArtifact{Records: snap.records}
	return vectors, metadata, nil
}

// Restore publishes a snapshot read back from storage. The artifacts must
// pair up row for row.
func (idx *Index) Restore(vectors *core.VectorArtifact, metadata *core.MetadataArtifact) error {
	if err := core.ValidatePairing(vectors, metadata); err != nil {
		return err
	}
	if vectors.Rows() == 0 {
		return core.ErrEmptyCorpus
	}

	if model := ai.ModelName(idx.embedder); model != "" && vectors.Model != "" && model != vectors.Model {
		idx.logger.Warn("index was built with a different embedding model",
			"stored", vectors.Model, "embedder", model)
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	idx.current.Store(&snapshot{
		model:     vectors.Model,
		dimension: vectors.Dimension,
		vectors:   vectors.Vectors,
		records:   metadata.Records,
		ids:       vectors.RowIDs,
		builtAt:   vectors.BuiltAt,
	})

	idx.logger.Info("index restored", "rows", vectors.Rows(), "dimension", vectors.Dimension)
	return nil
}

// Save persists the published snapshot to repo.
func (idx *Index) Save(ctx context.Context, repo storage.IndexRepository) error {
	if repo == nil {
		return ErrRepositoryRequired
	}

	vectors, metadata, err := idx.Artifacts()
	if err != nil {
		return err
	}

	if err := repo.SaveIndex(ctx, vectors); err != nil {
		return fmt.Errorf("saving vector artifact: %w", err)
	}
	if err := repo.SaveMetadata(ctx, metadata); err != nil {
		return fmt.Errorf("saving metadata artifact: %w", err)
	}

	idx.logger.Info("index saved", "rows", vectors.Rows())
	return nil
}

// Load restores an index from repo. Finding only one of the two artifacts
// fails with core.ErrPersistenceCorruption; finding neither fails with
// storage.ErrNotFound.
func Load(ctx context.Context, repo storage.IndexRepository, embedder ai.Embedder, opts ...Option) (*Index, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	idx, err := New(embedder, opts...)
	if err != nil {
		return nil, err
	}

	vectors, vecErr := repo.LoadIndex(ctx)
	metadata, metaErr := repo.LoadMetadata(ctx)

	vecMissing := errors.Is(vecErr, storage.ErrNotFound)
	metaMissing := errors.Is(metaErr, storage.ErrNotFound)
	switch {
	case vecMissing && metaMissing:
		return nil, fmt.Errorf("loading index: %w", storage.ErrNotFound)
	case vecMissing != metaMissing:
		return nil, fmt.Errorf("%w: vector index and metadata must be stored together",
			core.ErrPersistenceCorruption)
	case vecErr != nil:
		return nil, fmt.Errorf("loading vector artifact: %w", vecErr)
	case metaErr != nil:
		return nil, fmt.Errorf("loading metadata artifact: %w", metaErr)
	}

	if err := idx.Restore(vectors, metadata); err != nil {
		return nil, err
	}
	return idx, nil
}

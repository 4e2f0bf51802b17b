// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rebuild

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
	"github.com/AvazbekNurmatov/lex-ai/storage"
)

// Config holds configuration for the rebuild operation.
type Config struct {
	// BatchSize is the number of records to embed in each batch
	BatchSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize: index.DefaultBatchSize,
	}
}

// Rebuilder re-embeds the stored metadata and replaces the stored index.
type Rebuilder struct {
	repo      storage.IndexRepository
	embedder  ai.Embedder
	config    *Config
	progress  io.Writer
	logger    *slog.Logger
	processor *BatchProcessor
}

// NewRebuilder creates a new rebuilder.
// progress: where to write progress output (typically os.Stderr)
func NewRebuilder(repo storage.IndexRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Rebuilder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Rebuilder{
		repo:      repo,
		embedder:  embedder,
		config:    config,
		progress:  progress,
		logger:    slog.Default().With("component", "rebuild"),
		processor: NewBatchProcessor(embedder),
	}, nil
}

// Run re-embeds every stored record and persists the new index.
// It returns the rebuilt index, or nil when the store holds no records.
func (r *Rebuilder) Run(ctx context.Context) (*index.Index, error) {
	metadata, err := r.repo.LoadMetadata(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		metadata = &core.MetadataArtifact{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	totalRecords := metadata.Rows()
	if totalRecords == 0 {
		fmt.Fprintf(r.progress, "No records found in store (0 records)\n")
		return nil, nil
	}

	model := ai.ModelName(r.embedder)
	fmt.Fprintf(r.progress, "Starting rebuild of %d records (batch size: %d, model: %s)\n",
		totalRecords, r.config.BatchSize, model)

	tracker := NewProgressTracker(r.progress, totalRecords)
	tracker.Start()

	artifact := &core.VectorArtifact{
		Model:   model,
		Vectors: make([][]float32, 0, totalRecords),
		RowIDs:  make([]core.ID, 0, totalRecords),
		BuiltAt: time.Now().UTC(),
	}

	iterator := NewRecordIterator(metadata, r.config.BatchSize)
	err = iterator.ForEach(ctx, func(start int, records []core.ParagraphRecord) error {
		vectors, err := r.processor.Process(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to process batch at row %d: %w", start, err)
		}

		for i, vector := range vectors {
			if artifact.Dimension == 0 {
				artifact.Dimension = len(vector)
			}
			if len(vector) != artifact.Dimension {
				return fmt.Errorf("%w: row %d has dimension %d, expected %d",
					core.ErrDimensionMismatch, start+i, len(vector), artifact.Dimension)
			}
			artifact.Vectors = append(artifact.Vectors, vector)
			artifact.RowIDs = append(artifact.RowIDs, records[i].ID())
		}

		tracker.Increment(len(records))
		return nil
	})
	if err != nil {
		return nil, err
	}
	tracker.Finish()

	idx, err := index.New(r.embedder, index.WithBatchSize(r.config.BatchSize))
	if err != nil {
		return nil, err
	}
	if err := idx.Restore(artifact, metadata); err != nil {
		return nil, err
	}
	if err := idx.Save(ctx, r.repo); err != nil {
		return nil, err
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Rebuild complete. Processed %d records in %v (%.1f records/sec)\n",
		tracker.Current(), elapsed.Round(time.Second), float64(tracker.Current())/elapsed.Seconds())
	r.logger.Info("rebuild complete", "rows", totalRecords, "model", model, "dimension", artifact.Dimension)

	return idx, nil
}

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

package lexai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/ai/openai"
	"github.com/AvazbekNurmatov/lex-ai/consolidation"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
	"github.com/AvazbekNurmatov/lex-ai/rebuild"
	"github.com/AvazbekNurmatov/lex-ai/search"
	"github.com/AvazbekNurmatov/lex-ai/storage"
	"github.com/AvazbekNurmatov/lex-ai/storage/badger"
)

// Database ties the persisted index, the embedding provider and the
// in-memory semantic index together.
type Database struct {
	repo     storage.IndexRepository
	provider ai.AIProvider
	index    *index.Index
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig  *ai.Config
	provider  ai.AIProvider
	repo      storage.IndexRepository
	indexOpts []index.Option
	logger    *slog.Logger
}

// WithAIConfig sets the embedding service configuration used to create the
// default OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider supplies an AI provider instead of creating one from the config.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithRepository supplies an already opened repository. The path passed to
// NewDatabase is ignored.
func WithRepository(repo storage.IndexRepository) DatabaseOption {
	return func(o *databaseOptions) {
		o.repo = repo
	}
}

// WithIndexOptions forwards options to the semantic index.
func WithIndexOptions(opts ...index.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.indexOpts = append(o.indexOpts, opts...)
	}
}

// WithLogger sets the logger used by the database and its components.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the badger store at filePath and restores the persisted
// index if one exists. A fresh store yields an empty, not yet ready index.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	repo := options.repo
	if repo == nil {
		var err error
		repo, err = badger.NewRepository(filePath, badger.WithLogger(options.logger))
		if err != nil {
			return nil, err
		}
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			repo.Close()
			return nil, err
		}
	}

	indexOpts := append([]index.Option{index.WithLogger(options.logger)}, options.indexOpts...)
	idx, err := index.Load(context.Background(), repo, provider.Embedder(), indexOpts...)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		idx, err = index.New(provider.Embedder(), indexOpts...)
	case errors.Is(err, core.ErrPersistenceCorruption):
		// An interrupted save leaves the artifacts out of step. Start empty
		// so the next Build or Reset can overwrite the store.
		options.logger.Warn("stored index is corrupt, starting with an empty index", "path", filePath, "err", err)
		idx, err = index.New(provider.Embedder(), indexOpts...)
	}
	if err != nil {
		provider.Close()
		repo.Close()
		return nil, err
	}

	return &Database{
		repo:     repo,
		provider: provider,
		index:    idx,
		logger:   options.logger,
	}, nil
}

func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.repo.Close(); err != nil {
		db.logger.Error("error closing index repository", "err", err)
		return err
	}
	return nil
}

func (db *Database) Repository() storage.IndexRepository {
	return db.repo
}

func (db *Database) Index() *index.Index {
	return db.index
}

// Build embeds records, publishes them as the live index and persists both
// artifacts.
func (db *Database) Build(ctx context.Context, records []core.ParagraphRecord) error {
	if err := db.index.Build(ctx, records); err != nil {
		return err
	}
	return db.index.Save(ctx, db.repo)
}

// Append embeds records, adds them after the rows already published and
// persists both artifacts. On an empty index it behaves like Build.
func (db *Database) Append(ctx context.Context, records []core.ParagraphRecord) error {
	if !db.index.Ready() {
		return db.Build(ctx, records)
	}
	if err := db.index.Append(ctx, records); err != nil {
		return err
	}
	return db.index.Save(ctx, db.repo)
}

// Reset removes both stored artifacts. The live index keeps serving until
// the next Build.
func (db *Database) Reset(ctx context.Context) error {
	if err := db.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	db.logger.Info("stored index removed")
	return nil
}

// Rebuild re-embeds the stored corpus with the current provider and
// publishes the result. An empty store is left untouched.
func (db *Database) Rebuild(ctx context.Context, config *rebuild.Config, progress io.Writer) error {
	rebuilder, err := rebuild.NewRebuilder(db.repo, db.provider.Embedder(), config, progress)
	if err != nil {
		return err
	}

	rebuilt, err := rebuilder.Run(ctx)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	if rebuilt == nil {
		return nil
	}

	vectors, metadata, err := rebuilt.Artifacts()
	if err != nil {
		return err
	}
	return db.index.Restore(vectors, metadata)
}

func (db *Database) NewPipeline(opts ...consolidation.Option) (*consolidation.Pipeline, error) {
	opts = append([]consolidation.Option{consolidation.WithLogger(db.logger)}, opts...)
	return consolidation.NewPipeline(opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(db.logger)}, opts...)
	return search.NewSearcher(db.index, opts...)
}

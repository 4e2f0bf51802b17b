package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvazbekNurmatov/lex-ai/ai/mock"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/storage"
	"github.com/AvazbekNurmatov/lex-ai/storage/badger"
)

func newTestRepository(t *testing.T) storage.IndexRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	idx, embedder := newTestIndex(t)
	records := makeRecords(12)
	require.NoError(t, idx.Build(ctx, records))
	require.NoError(t, idx.Save(ctx, repo))

	loaded, err := Load(ctx, repo, embedder)
	require.NoError(t, err)
	assert.Equal(t, idx.Stats().Rows, loaded.Stats().Rows)
	assert.Equal(t, idx.Stats().Dimension, loaded.Stats().Dimension)
	assert.Equal(t, "mock-embedding", loaded.Stats().Model)

	for _, query := range []string{records[0].Text, records[7].Text, "tax obligation"} {
		want, err := idx.Query(ctx, query, 5)
		require.NoError(t, err)
		got, err := loaded.Query(ctx, query, 5)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSaveNotReady(t *testing.T) {
	idx, _ := newTestIndex(t)
	assert.ErrorIs(t, idx.Save(context.Background(), newTestRepository(t)), core.ErrIndexNotReady)
	assert.ErrorIs(t, idx.Save(context.Background(), nil), ErrRepositoryRequired)
}

func TestLoadNothingSaved(t *testing.T) {
	_, err := Load(context.Background(), newTestRepository(t), mock.NewMockEmbedder())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = Load(context.Background(), nil, mock.NewMockEmbedder())
	assert.ErrorIs(t, err, ErrRepositoryRequired)
}

func TestLoadMissingMetadata(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	idx, embedder := newTestIndex(t)
	require.NoError(t, idx.Build(ctx, makeRecords(3)))

	vectors, _, err := idx.Artifacts()
	require.NoError(t, err)
	require.NoError(t, repo.SaveIndex(ctx, vectors))

	_, err = Load(ctx, repo, embedder)
	assert.ErrorIs(t, err, core.ErrPersistenceCorruption)
}

func TestLoadRowCountMismatch(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	idx, embedder := newTestIndex(t)
	require.NoError(t, idx.Build(ctx, makeRecords(3)))
	require.NoError(t, idx.Save(ctx, repo))

	_, metadata, err := idx.Artifacts()
	require.NoError(t, err)
	require.NoError(t, repo.SaveMetadata(ctx, &core.MetadataArtifact{Records: metadata.Records[:2]}))

	_, err = Load(ctx, repo, embedder)
	assert.ErrorIs(t, err, core.ErrPersistenceCorruption)
}

func TestLoadReorderedMetadata(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	idx, embedder := newTestIndex(t)
	records := makeRecords(3)
	require.NoError(t, idx.Build(ctx, records))
	require.NoError(t, idx.Save(ctx, repo))

	swapped := []core.ParagraphRecord{records[1], records[0], records[2]}
	require.NoError(t, repo.SaveMetadata(ctx, &core.MetadataArtifact{Records: swapped}))

	_, err := Load(ctx, repo, embedder)
	assert.ErrorIs(t, err, core.ErrPersistenceCorruption)
}

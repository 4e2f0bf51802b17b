package lexai

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvazbekNurmatov/lex-ai/ai/mock"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/rebuild"
	"github.com/AvazbekNurmatov/lex-ai/storage"
	"github.com/AvazbekNurmatov/lex-ai/storage/badger"
)

func testRecords() []core.ParagraphRecord {
	return []core.ParagraphRecord{
		{SourceDocID: "1001", ParagraphID: "p1", Text: "employment contract termination notice period"},
		{SourceDocID: "1001", ParagraphID: "p2", Text: "tax code value added tax rates"},
		{SourceDocID: "2002", ParagraphID: "p1", Text: "land code ownership of agricultural land"},
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir, WithProvider(mock.NewMockProvider()))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Repository())
		assert.NotNil(t, db.Index())
		assert.False(t, db.Index().Ready(), "fresh store has no index")
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile, WithProvider(mock.NewMockProvider()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	provider := mock.NewMockProvider()
	db, err := NewDatabase(t.TempDir(), WithProvider(provider))
	require.NoError(t, err)

	err = db.Close()
	assert.NoError(t, err)
	assert.True(t, provider.(*mock.MockProvider).Closed())
}

func TestDatabase_BuildPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx, testRecords()))
	require.True(t, db.Index().Ready())
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer reopened.Close()

	require.True(t, reopened.Index().Ready())
	stats := reopened.Index().Stats()
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, mock.DefaultDimension, stats.Dimension)
	assert.Equal(t, testRecords(), reopened.Index().Records())

	searcher, err := reopened.NewSearcher()
	require.NoError(t, err)
	results, err := searcher.FindSimilar(ctx, "tax code value added tax rates", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p2", results[0].Record.ParagraphID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
}

func TestDatabase_BuildEmptyCorpus(t *testing.T) {
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	db, err := NewDatabase("", WithRepository(repo), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	err = db.Build(context.Background(), nil)
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	assert.False(t, db.Index().Ready())
}

func TestDatabase_Rebuild(t *testing.T) {
	ctx := context.Background()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	provider := mock.NewMockProvider()
	db, err := NewDatabase("", WithRepository(repo), WithProvider(provider))
	require.NoError(t, err)
	defer db.Close()

	t.Run("empty store is a no-op", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, db.Rebuild(ctx, rebuild.DefaultConfig(), &out))
		assert.Contains(t, out.String(), "No records found")
		assert.False(t, db.Index().Ready())
	})

	t.Run("re-embeds stored records", func(t *testing.T) {
		require.NoError(t, db.Build(ctx, testRecords()))
		embedder := provider.(*mock.MockProvider).GetMockEmbedder()
		embedder.Reset()
		embedder.Model = "mock-embedding-v2"

		require.NoError(t, db.Rebuild(ctx, rebuild.DefaultConfig(), nil))
		assert.Positive(t, embedder.CallCount())

		stats := db.Index().Stats()
		assert.Equal(t, 3, stats.Rows)
		assert.Equal(t, "mock-embedding-v2", stats.Model)

		stored, err := repo.LoadIndex(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mock-embedding-v2", stored.Model)
	})
}

func TestDatabase_FactoryMethods(t *testing.T) {
	db, err := NewDatabase(t.TempDir(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer db.Close()

	t.Run("can create consolidation pipeline", func(t *testing.T) {
		pipeline, err := db.NewPipeline()
		require.NoError(t, err)
		require.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := db.NewSearcher()
		require.NoError(t, err)
		require.NotNil(t, searcher)
	})
}

func TestDatabase_RecoversFromMismatchedArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx, testRecords()))
	require.NoError(t, db.Close())

	// Leave the metadata one row long, as an interrupted save would
	repo, err := badger.NewRepository(dir)
	require.NoError(t, err)
	require.NoError(t, repo.SaveMetadata(ctx, &core.MetadataArtifact{Records: testRecords()[:1]}))
	require.NoError(t, repo.Close())

	reopened, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err, "a corrupt store still opens")
	assert.False(t, reopened.Index().Ready())

	require.NoError(t, reopened.Build(ctx, testRecords()))
	require.NoError(t, reopened.Close())

	repaired, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer repaired.Close()
	require.True(t, repaired.Index().Ready())
	assert.Equal(t, 3, repaired.Index().Stats().Rows)
}

func TestDatabase_Append(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	records := testRecords()

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)

	require.NoError(t, db.Append(ctx, records[:2]), "append on an empty index builds it")
	require.NoError(t, db.Append(ctx, records[2:]))
	assert.Equal(t, 3, db.Index().Stats().Rows)

	err = db.Append(ctx, nil)
	assert.ErrorIs(t, err, core.ErrEmptyCorpus)
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, records, reopened.Index().Records())
}

func TestDatabase_Reset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, db.Build(ctx, testRecords()))
	require.NoError(t, db.Reset(ctx))

	_, err = db.Repository().LoadIndex(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = db.Repository().LoadMetadata(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, db.Close())

	reopened, err := NewDatabase(dir, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	defer reopened.Close()
	assert.False(t, reopened.Index().Ready())
}

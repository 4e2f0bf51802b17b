package rebuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/ai/mock"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
	"github.com/AvazbekNurmatov/lex-ai/storage"
	"github.com/AvazbekNurmatov/lex-ai/storage/badger"
)

func makeRecords(n int) []core.ParagraphRecord {
	records := make([]core.ParagraphRecord, n)
	for i := range records {
		records[i] = core.ParagraphRecord{
			SourceDocID: "7485096",
			ParagraphID: fmt.Sprintf("%d", i),
			Text:        fmt.Sprintf("Bojxona to'lovlari bo'yicha %d-band.", i),
		}
	}
	return records
}

func smallEmbedder(model string, dim int) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.Model = model
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return mock.DeterministicVector(text, dim), nil
	}
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, dim)
		}
		return vectors, nil
	}
	return embedder
}

func seededRepository(t *testing.T, records []core.ParagraphRecord) storage.IndexRepository {
	t.Helper()
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	idx, err := index.New(mock.NewMockEmbedder())
	require.NoError(t, err)
	require.NoError(t, idx.Build(context.Background(), records))
	require.NoError(t, idx.Save(context.Background(), repo))
	return repo
}

func TestNewRebuilder(t *testing.T) {
	repo := seededRepository(t, makeRecords(1))

	_, err := NewRebuilder(nil, mock.NewMockEmbedder(), nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewRebuilder(repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	r, err := NewRebuilder(repo, mock.NewMockEmbedder(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), r.config)
}

func TestRebuildSwitchesModel(t *testing.T) {
	ctx := context.Background()
	records := makeRecords(23)
	repo := seededRepository(t, records)

	embedder := smallEmbedder("model-b", 8)
	var out bytes.Buffer
	r, err := NewRebuilder(repo, embedder, &Config{BatchSize: 5}, &out)
	require.NoError(t, err)

	idx, err := r.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, []int{5, 5, 5, 5, 3}, embedder.BatchSizes())
	assert.Contains(t, out.String(), "Starting rebuild of 23 records")
	assert.Contains(t, out.String(), "Rebuild complete")

	loaded, err := index.Load(ctx, repo, embedder)
	require.NoError(t, err)
	stats := loaded.Stats()
	assert.Equal(t, 23, stats.Rows)
	assert.Equal(t, 8, stats.Dimension)
	assert.Equal(t, "model-b", stats.Model)

	results, err := loaded.Query(ctx, records[11].Text, 1)
	require.NoError(t, err)
	assert.Equal(t, records[11], results[0].Record)
}

func TestRebuildEmptyStore(t *testing.T) {
	repo, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer repo.Close()

	var out bytes.Buffer
	r, err := NewRebuilder(repo, mock.NewMockEmbedder(), nil, &out)
	require.NoError(t, err)

	idx, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Nil(t, idx)
	assert.Contains(t, out.String(), "No records found")
}

func TestRebuildEmbedderFailureKeepsOldIndex(t *testing.T) {
	ctx := context.Background()
	records := makeRecords(4)
	repo := seededRepository(t, records)

	inner := mock.NewMockEmbedder()
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("unavailable")
	}
	embedder := ai.NewRetryingEmbedder(inner, 3, 0)
	r, err := NewRebuilder(repo, embedder, &Config{BatchSize: 2}, nil)
	require.NoError(t, err)

	_, err = r.Run(ctx)
	require.Error(t, err)
	assert.Equal(t, 3, inner.CallCount(), "a failing batch is attempted exactly MaxRetries times")

	loaded, err := index.Load(ctx, repo, mock.NewMockEmbedder())
	require.NoError(t, err)
	assert.Equal(t, mock.DefaultDimension, loaded.Stats().Dimension)
}

func TestRebuildRecoversThroughRetryingEmbedder(t *testing.T) {
	ctx := context.Background()
	repo := seededRepository(t, makeRecords(3))

	inner := smallEmbedder("model-b", 4)
	succeed := inner.EmbedTextsFunc
	failures := 1
	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("transient")
		}
		return succeed(ctx, texts)
	}

	r, err := NewRebuilder(repo, ai.NewRetryingEmbedder(inner, 3, 0), &Config{BatchSize: 3}, nil)
	require.NoError(t, err)

	idx, err := r.Run(ctx)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, 2, inner.CallCount())
}

func TestBatchProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes vectors", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{3, 4}, {0, 2}}, nil
		}
		vectors, err := NewBatchProcessor(embedder).Process(ctx, makeRecords(2))
		require.NoError(t, err)
		assert.InDelta(t, 0.6, vectors[0][0], 1e-6)
		assert.InDelta(t, 1.0, vectors[1][1], 1e-6)
	})

	t.Run("sends each batch once", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("transient")
		}
		_, err := NewBatchProcessor(embedder).Process(ctx, makeRecords(1))
		require.Error(t, err)
		assert.Equal(t, 1, embedder.CallCount())
	})

	t.Run("count mismatch", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{{1, 0}}, nil
		}
		_, err := NewBatchProcessor(embedder).Process(ctx, makeRecords(2))
		assert.ErrorIs(t, err, core.ErrEmbeddingBatchSizeMismatch)
	})

	t.Run("empty batch", func(t *testing.T) {
		vectors, err := NewBatchProcessor(mock.NewMockEmbedder()).Process(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})
}

func TestRecordIterator(t *testing.T) {
	metadata := &core.MetadataArtifact{Records: makeRecords(7)}

	var starts, sizes []int
	err := NewRecordIterator(metadata, 3).ForEach(context.Background(), func(start int, records []core.ParagraphRecord) error {
		starts = append(starts, start)
		sizes = append(sizes, len(records))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, starts)
	assert.Equal(t, []int{3, 3, 1}, sizes)

	t.Run("stops on error", func(t *testing.T) {
		sentinel := errors.New("stop")
		calls := 0
		err := NewRecordIterator(metadata, 2).ForEach(context.Background(), func(int, []core.ParagraphRecord) error {
			calls++
			return sentinel
		})
		assert.ErrorIs(t, err, sentinel)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewRecordIterator(metadata, 2).ForEach(ctx, func(int, []core.ParagraphRecord) error {
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("default batch size", func(t *testing.T) {
		assert.Equal(t, index.DefaultBatchSize, NewRecordIterator(metadata, 0).batchSize)
	})
}

func TestProgressTracker(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100)

	tracker.Increment(10)
	assert.Equal(t, 0, tracker.Current(), "updates before Start are ignored")
	assert.Equal(t, time.Duration(0), tracker.Elapsed())

	tracker.Start()
	tracker.Increment(25)
	tracker.Increment(35)
	assert.Equal(t, 60, tracker.Current())

	tracker.Increment(150)
	assert.Equal(t, 100, tracker.Current(), "progress is capped at total")

	tracker.Finish()
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	assert.Contains(t, buf.String(), "\n")
}

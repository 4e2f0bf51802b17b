package index

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/core"
)

const (
	// DefaultBatchSize is the number of texts sent to the embedder per call.
	DefaultBatchSize = 16

	// DefaultTopK is the number of results returned when k <= 0.
	DefaultTopK = 5
)

// snapshot is an immutable, fully built index. Row i of vectors pairs with
// row i of records and ids.
type snapshot struct {
	model     string
	dimension int
	vectors   [][]float32
	records   []core.ParagraphRecord
	ids       []core.ID
	builtAt   time.Time
}

func (s *snapshot) rows() int {
	if s == nil {
		return 0
	}
	return len(s.vectors)
}

// Stats describes the published index.
type Stats struct {
	Rows      int
	Dimension int
	Model     string
	BuiltAt   time.Time
}

// Index is a flat inner-product index over L2-normalized vectors.
//
// Readers always see a complete snapshot; Build and Append prepare a new
// snapshot off to the side and publish it in one step. Writers are
// serialized.
type Index struct {
	embedder  ai.Embedder
	batchSize int
	logger    *slog.Logger
	progress  ProgressReporter

	writeMu sync.Mutex
	current atomic.Pointer[snapshot]
}

// Option configures an Index.
type Option func(*Index)

// WithBatchSize sets the number of texts embedded per call.
// Values below 1 select DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(idx *Index) {
		if size < 1 {
			size = DefaultBatchSize
		}
		idx.batchSize = size
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(idx *Index) {
		if logger == nil {
			logger = slog.Default()
		}
		idx.logger = logger
	}
}

// WithProgress sets a reporter that receives per-batch build progress.
func WithProgress(progress ProgressReporter) Option {
	return func(idx *Index) {
		if progress == nil {
			progress = noProgress{}
		}
		idx.progress = progress
	}
}

// New creates an empty index that embeds text with embedder.
func New(embedder ai.Embedder, opts ...Option) (*Index, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	idx := &Index{
		embedder:  embedder,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
		progress:  noProgress{},
	}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.With("component", "index")

	return idx, nil
}

// Build embeds records and replaces the published index with them.
// An empty input fails with ErrEmptyCorpus and leaves the index untouched.
func (idx *Index) Build(ctx context.Context, records []core.ParagraphRecord) error {
	if len(records) == 0 {
		return core.ErrEmptyCorpus
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	vectors, dimension, err := idx.embed(ctx, records, 0)
	if err != nil {
		return err
	}

	snap := &snapshot{
		model:     ai.ModelName(idx.embedder),
		dimension: dimension,
		vectors:   vectors,
		records:   slices.Clone(records),
		ids:       rowIDs(records),
		builtAt:   time.Now().UTC(),
	}
	idx.current.Store(snap)

	idx.logger.Info("index built", "rows", snap.rows(), "dimension", dimension)
	return nil
}

// Append embeds records and publishes a new index holding the existing rows
// followed by the new ones.
func (idx *Index) Append(ctx context.Context, records []core.ParagraphRecord) error {
	if len(records) == 0 {
		return core.ErrEmptyCorpus
	}

	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	old := idx.current.Load()
	if old.rows() == 0 {
		old = nil
	}

	want := 0
	if old != nil {
		want = old.dimension
	}
	vectors, dimension, err := idx.embed(ctx, records, want)
	if err != nil {
		return err
	}

	snap := &snapshot{
		model:     ai.ModelName(idx.embedder),
		dimension: dimension,
		vectors:   vectors,
		records:   slices.Clone(records),
		ids:       rowIDs(records),
		builtAt:   time.Now().UTC(),
	}
	if old != nil {
		snap.vectors = append(slices.Clip(old.vectors), vectors...)
		snap.records = append(slices.Clip(old.records), records...)
		snap.ids = append(slices.Clip(old.ids), snap.ids...)
	}
	idx.current.Store(snap)

	idx.logger.Info("index appended", "added", len(records), "rows", snap.rows())
	return nil
}

// Query embeds text and returns the k most similar records, best first.
// k <= 0 selects DefaultTopK; k larger than the corpus returns every row.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]core.QueryResult, error) {
	if idx.current.Load().rows() == 0 {
		return nil, core.ErrIndexNotReady
	}

	vector, err := idx.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return idx.Search(ctx, vector, k)
}

// Search returns the k rows most similar to vector, best first.
// Scores are cosine similarities; ties go to the lower row.
func (idx *Index) Search(ctx context.Context, vector []float32, k int) ([]core.QueryResult, error) {
	snap := idx.current.Load()
	if snap.rows() == 0 {
		return nil, core.ErrIndexNotReady
	}
	if len(vector) != snap.dimension {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			core.ErrDimensionMismatch, len(vector), snap.dimension)
	}
	if k <= 0 {
		k = DefaultTopK
	}
	k = min(k, snap.rows())

	query := NormalizeVector(vector)

	type hit struct {
		row   int
		score float32
	}
	hits := make([]hit, snap.rows())
	for i, row := range snap.vectors {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hits[i] = hit{row: i, score: dot(query, row)}
	}

	// Stable sort keeps ascending row order among equal scores
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	results := make([]core.QueryResult, k)
	for i := range results {
		results[i] = core.QueryResult{
			Record: snap.records[hits[i].row],
			Score:  clampScore(hits[i].score),
		}
	}
	return results, nil
}

// Ready reports whether the index holds at least one row.
func (idx *Index) Ready() bool {
	return idx.current.Load().rows() > 0
}

// Stats describes the published index.
func (idx *Index) Stats() Stats {
	snap := idx.current.Load()
	if snap == nil {
		return Stats{Model: ai.ModelName(idx.embedder)}
	}
	return Stats{
		Rows:      snap.rows(),
		Dimension: snap.dimension,
		Model:     snap.model,
		BuiltAt:   snap.builtAt,
	}
}

// Records returns a copy of the indexed records in row order.
func (idx *Index) Records() []core.ParagraphRecord {
	snap := idx.current.Load()
	if snap == nil {
		return nil
	}
	return slices.Clone(snap.records)
}

// embed embeds records in batches, normalizes the vectors and checks that
// they all share one dimension (want, when non-zero).
func (idx *Index) embed(ctx context.Context, records []core.ParagraphRecord, want int) ([][]float32, int, error) {
	for i := range records {
		if err := core.ValidateParagraphRecord(&records[i]); err != nil {
			return nil, 0, fmt.Errorf("record %d: %w", i, err)
		}
	}

	idx.progress.Start(len(records))
	defer idx.progress.Finish()

	dimension := want
	vectors := make([][]float32, 0, len(records))
	for start := 0; start < len(records); start += idx.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		end := min(start+idx.batchSize, len(records))
		texts := make([]string, end-start)
		for i, record := range records[start:end] {
			texts[i] = record.Text
		}

		batch, err := idx.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("embedding rows %d-%d: %w", start, end-1, err)
		}
		if len(batch) != len(texts) {
			return nil, 0, fmt.Errorf("%w: sent %d texts, received %d vectors",
				core.ErrEmbeddingBatchSizeMismatch, len(texts), len(batch))
		}

		for i, vector := range batch {
			if dimension == 0 {
				dimension = len(vector)
			}
			if len(vector) == 0 || len(vector) != dimension {
				return nil, 0, fmt.Errorf("%w: row %d has dimension %d, expected %d",
					core.ErrDimensionMismatch, start+i, len(vector), dimension)
			}
			vectors = append(vectors, NormalizeVector(vector))
		}

		idx.progress.Add(len(texts))
		idx.logger.Debug("embedded batch", "start", start, "size", len(texts))
	}

	return vectors, dimension, nil
}

func rowIDs(records []core.ParagraphRecord) []core.ID {
	ids := make([]core.ID, len(records))
	for i, record := range records {
		ids[i] = record.ID()
	}
	return ids
}

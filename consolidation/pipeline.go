package consolidation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/source"
)

// Pipeline consolidates many source documents concurrently.
// Documents are independent, so each one is folded on its own worker and the
// per-document outputs are concatenated in the order the documents were read.
type Pipeline struct {
	pool     *ants.Pool
	opts     []ConsolidateOption
	logger   *slog.Logger
	mu       sync.Mutex
	stats    Stats
	released bool
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent consolidation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum paragraph word count used by every worker.
func WithThreshold(minWords int) Option {
	return func(p *Pipeline) error {
		p.opts = append(p.opts, WithMinWords(minWords))
		return nil
	}
}

// NewPipeline creates a consolidation pipeline.
func NewPipeline(opts ...Option) (*Pipeline, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		pool:   pool,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "consolidation")

	return p, nil
}

// Run consolidates docs and returns their paragraphs in document order.
func (p *Pipeline) Run(ctx context.Context, docs []core.SourceDocument) ([]core.ParagraphRecord, error) {
	i := 0
	return p.run(ctx, func(context.Context) (*core.SourceDocument, error) {
		if i >= len(docs) {
			return nil, io.EOF
		}
		doc := &docs[i]
		i++
		return doc, nil
	})
}

// RunSource drains src and consolidates every document it yields.
// Documents are dispatched to workers as soon as they are read.
func (p *Pipeline) RunSource(ctx context.Context, src source.FragmentSource) ([]core.ParagraphRecord, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	return p.run(ctx, src.NextDocument)
}

// Stats returns totals accumulated over every run of this pipeline.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pipeline) run(ctx context.Context, next func(context.Context) (*core.SourceDocument, error)) ([]core.ParagraphRecord, error) {
	p.mu.Lock()
	released := p.released
	p.mu.Unlock()
	if released {
		return nil, ErrPipelineReleased
	}

	// Each document owns one slot; workers only ever write their own.
	var (
		slots []*[]core.ParagraphRecord
		wg    sync.WaitGroup
	)

	var readErr error
	for {
		if err := ctx.Err(); err != nil {
			readErr = err
			break
		}

		doc, err := next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			readErr = fmt.Errorf("reading document %d: %w", len(slots), err)
			break
		}

		slot := new([]core.ParagraphRecord)
		slots = append(slots, slot)

		wg.Add(1)
		fragments := doc.Fragments
		docID := doc.ID
		if err := p.pool.Submit(func() {
			defer wg.Done()
			records, stats := ConsolidateWithStats(fragments, p.opts...)
			*slot = records
			p.mu.Lock()
			p.stats.Add(stats)
			p.mu.Unlock()
			p.logger.Debug("document consolidated", "doc", docID,
				"fragments", stats.Fragments, "paragraphs", stats.Paragraphs)
		}); err != nil {
			wg.Done()
			readErr = fmt.Errorf("submitting document %s: %w", docID, err)
			break
		}
	}

	wg.Wait()
	if readErr != nil {
		return nil, readErr
	}

	total := 0
	for _, slot := range slots {
		total += len(*slot)
	}
	out := make([]core.ParagraphRecord, 0, total)
	for _, slot := range slots {
		out = append(out, *slot...)
	}

	p.logger.Info("consolidation complete", "documents", len(slots), "paragraphs", len(out))
	return out, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	p.released = true
	p.mu.Unlock()
	if p.pool != nil {
		p.pool.Release()
	}
}

package rebuild

import (
	"context"
	"fmt"

	"github.com/AvazbekNurmatov/lex-ai/ai"
	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
)

// BatchProcessor handles embedding generation for batches of paragraph records.
// Each batch is sent once; retrying belongs to the embedder (see
// ai.NewRetryingEmbedder).
type BatchProcessor struct {
	embedder ai.Embedder
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(embedder ai.Embedder) *BatchProcessor {
	return &BatchProcessor{embedder: embedder}
}

// Process generates normalized embeddings for a batch of records, one per
// record and in record order.
func (bp *BatchProcessor) Process(ctx context.Context, records []core.ParagraphRecord) ([][]float32, error) {
	if len(records) == 0 {
		return nil, nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}

	embeddings, err := bp.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}

	if len(embeddings) != len(records) {
		return nil, fmt.Errorf("%w: expected %d, got %d",
			core.ErrEmbeddingBatchSizeMismatch, len(records), len(embeddings))
	}

	vectors := make([][]float32, len(embeddings))
	for i, embedding := range embeddings {
		vectors[i] = index.NormalizeVector(embedding)
	}
	return vectors, nil
}

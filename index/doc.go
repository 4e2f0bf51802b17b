// Package index provides the semantic index over paragraph records.
//
// Records are embedded in batches, L2-normalized and stored row by row next
// to their metadata, so that an inner product between a normalized query and
// a row is the cosine similarity of the two texts. Search is exact: every
// row is scored and the best k are returned.
//
// Basic usage:
//
//	idx, err := index.New(embedder, index.WithBatchSize(16))
//	if err != nil {
//	    return err
//	}
//	if err := idx.Build(ctx, records); err != nil {
//	    return err
//	}
//	results, err := idx.Query(ctx, "soliq imtiyozlari", 5)
//
// Save and Load persist the two artifacts through a storage.IndexRepository.
package index

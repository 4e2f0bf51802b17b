// Package rebuild re-embeds a stored corpus with a new or updated embedding
// model.
//
// The stored metadata artifact is the source of truth: its records are
// embedded again in batches, normalized, paired with their surrogate ids and
// written back as a fresh vector artifact. Each batch is sent once; failed
// calls are retried by the embedder (ai.NewRetryingEmbedder).
package rebuild

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

package core

import "errors"

// Domain errors
var (
	// ErrMalformedFragment indicates a fragment with neither id nor text.
	// Sources filter these before consolidation.
	ErrMalformedFragment = errors.New("malformed fragment")

	// ErrEmptyCorpus indicates an index build was requested over zero records.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrIndexNotReady indicates a query against an unbuilt or empty index.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrEmbeddingBatchSizeMismatch indicates the embedder returned a different
	// number of vectors than texts it was given.
	ErrEmbeddingBatchSizeMismatch = errors.New("embedding batch size mismatch")

	// ErrPersistenceCorruption indicates the stored vector index and metadata
	// do not pair up.
	ErrPersistenceCorruption = errors.New("persistence corruption")

	// ErrDimensionMismatch indicates vectors of differing dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyParagraphText indicates a paragraph record with empty text.
	ErrEmptyParagraphText = errors.New("paragraph text cannot be empty")

	// ErrEmptySourceDocID indicates a record without a source document id.
	ErrEmptySourceDocID = errors.New("source document id cannot be empty")
)

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

package rebuild

import (
	"context"

	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/index"
)

// RecordIterator iterates over the records of a metadata artifact in batches.
type RecordIterator struct {
	metadata  *core.MetadataArtifact
	batchSize int
}

// NewRecordIterator creates a new record iterator.
// batchSize: number of records in each batch; values <= 0 select index.DefaultBatchSize
func NewRecordIterator(metadata *core.MetadataArtifact, batchSize int) *RecordIterator {
	if batchSize <= 0 {
		batchSize = index.DefaultBatchSize
	}

	return &RecordIterator{
		metadata:  metadata,
		batchSize: batchSize,
	}
}

// ForEach calls fn for each batch in row order, passing the row of the
// batch's first record. Iteration stops on the first error from fn.
// Context cancellation is checked between batches.
func (it *RecordIterator) ForEach(ctx context.Context, fn func(start int, records []core.ParagraphRecord) error) error {
	if it.metadata == nil {
		return nil
	}
	records := it.metadata.Records

	for i := 0; i < len(records); i += it.batchSize {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		end := min(i+it.batchSize, len(records))
		if err := fn(i, records[i:end]); err != nil {
			return err
		}
	}

	return nil
}

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

import (
	"fmt"
	"strings"
)

// ValidateParagraphRecord validates a ParagraphRecord according to domain rules.
//
// Validation rules:
//   - SourceDocID must not be empty
//   - Text must not be empty or whitespace-only
//
// NOT validated:
//   - ParagraphID (any string, including NoIDParagraph and OrphanClauseParagraph)
func ValidateParagraphRecord(record *ParagraphRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrEmptyParagraphText)
	}

	if record.SourceDocID == "" {
		return ErrEmptySourceDocID
	}

	if strings.TrimSpace(record.Text) == "" {
		return fmt.Errorf("%w: paragraph %s/%s", ErrEmptyParagraphText, record.SourceDocID, record.ParagraphID)
	}

	return nil
}

// ValidateVectorArtifact checks that every row has the declared dimension and
// that a surrogate id exists for every row.
func ValidateVectorArtifact(artifact *VectorArtifact) error {
	if artifact == nil {
		return fmt.Errorf("%w: vector artifact is nil", ErrPersistenceCorruption)
	}

	if len(artifact.RowIDs) != len(artifact.Vectors) {
		return fmt.Errorf("%w: %d vectors but %d row ids",
			ErrPersistenceCorruption, len(artifact.Vectors), len(artifact.RowIDs))
	}

	for i, vector := range artifact.Vectors {
		if len(vector) != artifact.Dimension {
			return fmt.Errorf("%w: row %d has dimension %d, expected %d",
				ErrDimensionMismatch, i, len(vector), artifact.Dimension)
		}
	}

	return nil
}

// ValidatePairing checks that a vector artifact and a metadata artifact
// describe the same rows in the same order.
//
// Validation rules:
//   - Both artifacts must be present
//   - Row counts must be equal
//   - Row i of the vector artifact must carry the surrogate id of metadata row i
func ValidatePairing(vectors *VectorArtifact, metadata *MetadataArtifact) error {
	if vectors == nil || metadata == nil {
		return fmt.Errorf("%w: vector index and metadata must be stored together", ErrPersistenceCorruption)
	}

	if err := ValidateVectorArtifact(vectors); err != nil {
		return err
	}

	if vectors.Rows() != metadata.Rows() {
		return fmt.Errorf("%w: index has %d rows, metadata has %d",
			ErrPersistenceCorruption, vectors.Rows(), metadata.Rows())
	}

	for i, record := range metadata.Records {
		if vectors.RowIDs[i] != record.ID() {
			return fmt.Errorf("%w: row %d id mismatch", ErrPersistenceCorruption, i)
		}
	}

	return nil
}

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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// VectorHeader describes a stored vector artifact.
type VectorHeader struct {
	Model     string
	Dimension int
	Rows      int
	BuiltAt   time.Time
}

// MetadataHeader describes a stored metadata artifact.
type MetadataHeader struct {
	Rows int
}

// MarshalVectorHeader serializes a VectorHeader to bytes.
// BuiltAt is stored with microsecond precision.
func MarshalVectorHeader(header VectorHeader) []byte {
	builtAt := header.BuiltAt.UnixMicro()
	size := ord.String.Size(header.Model) +
		varint.Int.Size(header.Dimension) +
		varint.Int.Size(header.Rows) +
		varint.Int64.Size(builtAt)

	buf := make([]byte, size)
	n := ord.String.Marshal(header.Model, buf)
	n += varint.Int.Marshal(header.Dimension, buf[n:])
	n += varint.Int.Marshal(header.Rows, buf[n:])
	varint.Int64.Marshal(builtAt, buf[n:])
	return buf
}

// UnmarshalVectorHeader deserializes a VectorHeader from bytes.
func UnmarshalVectorHeader(data []byte) (VectorHeader, error) {
	var (
		header VectorHeader
		n, n1  int
		err    error
	)

	header.Model, n, err = ord.String.Unmarshal(data)
	if err != nil {
		return header, fmt.Errorf("%w: model: %w", ErrSerializationFailed, err)
	}
	header.Dimension, n1, err = varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return header, fmt.Errorf("%w: dimension: %w", ErrSerializationFailed, err)
	}
	header.Rows, n1, err = varint.Int.Unmarshal(data[n:])
	n += n1
	if err != nil {
		return header, fmt.Errorf("%w: rows: %w", ErrSerializationFailed, err)
	}
	builtAt, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return header, fmt.Errorf("%w: built at: %w", ErrSerializationFailed, err)
	}
	header.BuiltAt = time.UnixMicro(builtAt).UTC()

	if header.Dimension < 0 || header.Rows < 0 {
		return header, fmt.Errorf("%w: negative size in header", ErrSerializationFailed)
	}
	return header, nil
}

// MarshalVectorRow serializes one vector row: the row's surrogate id followed
// by its components as raw little-endian float32 values.
func MarshalVectorRow(id core.ID, vector []float32) []byte {
	buf := make([]byte, core.IDMUS.Size(id)+len(vector)*raw.Float32.Size(0))
	n := core.IDMUS.Marshal(id, buf)
	for _, v := range vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVectorRow deserializes a vector row of the given dimension.
// Returns ErrTruncatedData if data holds fewer than dimension components.
func UnmarshalVectorRow(data []byte, dimension int) (core.ID, []float32, error) {
	id, n, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: row id: %w", ErrSerializationFailed, err)
	}

	width := raw.Float32.Size(0)
	if len(data)-n != dimension*width {
		return 0, nil, fmt.Errorf("%w: want %d components, have %d bytes",
			ErrTruncatedData, dimension, len(data)-n)
	}

	vector := make([]float32, dimension)
	for i := range vector {
		var n1 int
		vector[i], n1, err = raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return 0, nil, fmt.Errorf("%w: component %d: %w", ErrSerializationFailed, i, err)
		}
		n += n1
	}
	return id, vector, nil
}

// MarshalMetadataHeader serializes a MetadataHeader to bytes.
func MarshalMetadataHeader(header MetadataHeader) []byte {
	buf := make([]byte, varint.Int.Size(header.Rows))
	varint.Int.Marshal(header.Rows, buf)
	return buf
}

// UnmarshalMetadataHeader deserializes a MetadataHeader from bytes.
func UnmarshalMetadataHeader(data []byte) (MetadataHeader, error) {
	rows, _, err := varint.Int.Unmarshal(data)
	if err != nil {
		return MetadataHeader{}, fmt.Errorf("%w: rows: %w", ErrSerializationFailed, err)
	}
	if rows < 0 {
		return MetadataHeader{}, fmt.Errorf("%w: negative row count", ErrSerializationFailed)
	}
	return MetadataHeader{Rows: rows}, nil
}

// MarshalParagraphRecord serializes a ParagraphRecord prefixed with its
// surrogate id.
func MarshalParagraphRecord(record *core.ParagraphRecord) []byte {
	id := record.ID()
	buf := make([]byte, core.IDMUS.Size(id)+core.ParagraphRecordMUS.Size(*record))
	n := core.IDMUS.Marshal(id, buf)
	core.ParagraphRecordMUS.Marshal(*record, buf[n:])
	return buf
}

// UnmarshalParagraphRecord deserializes a ParagraphRecord and returns the
// surrogate id stored with it.
func UnmarshalParagraphRecord(data []byte) (core.ID, *core.ParagraphRecord, error) {
	id, n, err := core.IDMUS.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: record id: %w", ErrSerializationFailed, err)
	}
	record, _, err := core.ParagraphRecordMUS.Unmarshal(data[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: record: %w", ErrSerializationFailed, err)
	}
	return id, &record, nil
}

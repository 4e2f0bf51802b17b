package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

const (
	// NoIDParagraph is the paragraph id assigned to fragments that carried no id.
	NoIDParagraph = "no_id"

	// OrphanClauseParagraph is the paragraph id of a default clause with no successor.
	OrphanClauseParagraph = "clause_default_orphan"

	// NoTextPlaceholder replaces missing fragment text.
	NoTextPlaceholder = "no_text"
)

// ID is a stable surrogate identifier for a corpus row.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// FragmentRecord is one raw text unit extracted from a source document,
// before consolidation.
type FragmentRecord struct {
	SourceDocID     string
	FragmentID      *string // nil when the source element carried no id
	Text            string
	IsDefaultClause bool
}

// ParagraphID returns the fragment id, or NoIDParagraph when it is absent.
func (f FragmentRecord) ParagraphID() string {
	if f.FragmentID == nil || *f.FragmentID == "" {
		return NoIDParagraph
	}
	return *f.FragmentID
}

// SourceDocument is the ordered fragment sequence of one source document.
type SourceDocument struct {
	ID        string
	Fragments []FragmentRecord
}

// ParagraphRecord is the consolidated unit of retrieval.
type ParagraphRecord struct {
	SourceDocID string
	ParagraphID string
	Text        string
}

// ID returns the surrogate identifier carried alongside the record's vector row.
func (p ParagraphRecord) ID() ID {
	return IDFromContent(p.SourceDocID + "\x00" + p.ParagraphID + "\x00" + p.Text)
}

// QueryResult is a ranked search hit. Score is the cosine similarity in [-1, 1].
type QueryResult struct {
	Record ParagraphRecord
	Score  float32
}

// VectorArtifact is the persisted form of the vector index.
// Vectors[i] and RowIDs[i] describe row i.
type VectorArtifact struct {
	Model     string
	Dimension int
	Vectors   [][]float32
	RowIDs    []ID
	BuiltAt   time.Time
}

// Rows returns the number of vector rows.
func (a *VectorArtifact) Rows() int {
	return len(a.Vectors)
}

// MetadataArtifact is the persisted form of the row-ordered metadata mapping.
type MetadataArtifact struct {
	Records []ParagraphRecord
}

// Rows returns the number of metadata rows.
func (a *MetadataArtifact) Rows() int {
	return len(a.Records)
}

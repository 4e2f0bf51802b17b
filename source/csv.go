package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// Column names used by the scraper's CSV output.
const (
	ColumnLawActID        = "law_act_id"
	ColumnParagraphID     = "paragraph_id"
	ColumnText            = "text"
	ColumnIsClauseDefault = "is_clause_default"
)

// header maps column names to positions.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}

	h := make(header, len(row))
	for i, name := range row {
		h[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := h[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return h, nil
}

func (h header) get(row []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// CSVFragmentSource reads fragment rows and groups consecutive rows sharing a
// law_act_id into one document.
type CSVFragmentSource struct {
	reader  *csv.Reader
	header  header
	logger  *slog.Logger
	pending *core.FragmentRecord
	done    bool
	skipped int
}

// CSVOption configures a CSVFragmentSource.
type CSVOption func(*CSVFragmentSource)

// WithSourceLogger sets a custom logger.
// Default is slog.Default().
func WithSourceLogger(logger *slog.Logger) CSVOption {
	return func(s *CSVFragmentSource) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewCSVFragmentSource reads the header from r and returns a source ready to
// yield documents.
func NewCSVFragmentSource(r io.Reader, opts ...CSVOption) (*CSVFragmentSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	h, err := readHeader(reader, ColumnLawActID, ColumnText)
	if err != nil {
		return nil, fmt.Errorf("reading fragment header: %w", err)
	}

	s := &CSVFragmentSource{
		reader: reader,
		header: h,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "fragment-source")

	return s, nil
}

// Skipped returns the number of malformed rows dropped so far.
func (s *CSVFragmentSource) Skipped() int {
	return s.skipped
}

// NextDocument implements FragmentSource.
func (s *CSVFragmentSource) NextDocument(ctx context.Context) (*core.SourceDocument, error) {
	var doc *core.SourceDocument

	if s.pending != nil {
		doc = &core.SourceDocument{
			ID:        s.pending.SourceDocID,
			Fragments: []core.FragmentRecord{*s.pending},
		}
		s.pending = nil
	}

	for !s.done {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fragment, err := s.nextFragment()
		if errors.Is(err, io.EOF) {
			s.done = true
			break
		}
		if err != nil {
			return nil, err
		}

		if doc == nil {
			doc = &core.SourceDocument{ID: fragment.SourceDocID}
		}
		if fragment.SourceDocID != doc.ID {
			s.pending = &fragment
			return doc, nil
		}
		doc.Fragments = append(doc.Fragments, fragment)
	}

	if doc == nil {
		return nil, io.EOF
	}
	return doc, nil
}

// nextFragment returns the next well-formed fragment, skipping malformed rows.
func (s *CSVFragmentSource) nextFragment() (core.FragmentRecord, error) {
	for {
		row, err := s.reader.Read()
		if err != nil {
			return core.FragmentRecord{}, err
		}

		line, _ := s.reader.FieldPos(0)
		docID := strings.TrimSpace(s.header.get(row, ColumnLawActID))
		switch {
		case docID == "":
			docID = UnknownLawActID
		case strings.Contains(docID, "/"):
			// Some exports carry the document URL instead of the bare id.
			docID = LawActID(docID)
		}

		isDefault, err := parseFlag(s.header.get(row, ColumnIsClauseDefault))
		if err != nil {
			s.skipped++
			s.logger.Warn("skipping fragment with bad clause flag", "line", line, "err", err)
			continue
		}

		fragment, err := NormalizeFragment(docID,
			s.header.get(row, ColumnParagraphID),
			s.header.get(row, ColumnText),
			isDefault)
		if err != nil {
			s.skipped++
			s.logger.Warn("skipping malformed fragment", "line", line, "err", err)
			continue
		}
		return fragment, nil
	}
}

// parseFlag accepts the boolean spellings written by common CSV tooling.
func parseFlag(value string) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}

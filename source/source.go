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

package source

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// UnknownLawActID is used when a document URL carries no numeric id.
const UnknownLawActID = "unknown"

// FragmentSource yields source documents in document order.
// NextDocument returns io.EOF once the corpus is exhausted.
type FragmentSource interface {
	NextDocument(ctx context.Context) (*core.SourceDocument, error)
}

var lawActIDPattern = regexp.MustCompile(`-(\d+)$`)

// LawActID extracts the trailing numeric document id from a document URL,
// e.g. "https://lex.uz/uz/docs/-6445145" yields "6445145".
func LawActID(url string) string {
	match := lawActIDPattern.FindStringSubmatch(url)
	if match == nil {
		return UnknownLawActID
	}
	return match[1]
}

// NormalizeFragment cleans up a raw fragment as scraped.
// Text is trimmed; a fragment with neither id nor text is malformed.
// A missing id becomes "no_id" and missing text becomes "no_text".
func NormalizeFragment(docID string, fragmentID string, text string, isDefault bool) (core.FragmentRecord, error) {
	fragmentID = strings.TrimSpace(fragmentID)
	text = strings.TrimSpace(text)

	if fragmentID == "" && text == "" {
		return core.FragmentRecord{}, fmt.Errorf("%w: document %s", core.ErrMalformedFragment, docID)
	}

	if fragmentID == "" {
		fragmentID = core.NoIDParagraph
	}
	if text == "" {
		text = core.NoTextPlaceholder
	}

	return core.FragmentRecord{
		SourceDocID:     docID,
		FragmentID:      &fragmentID,
		Text:            text,
		IsDefaultClause: isDefault,
	}, nil
}

// SliceSource serves documents held in memory.
type SliceSource struct {
	docs []core.SourceDocument
	pos  int
}

// NewSliceSource returns a FragmentSource over docs.
func NewSliceSource(docs ...core.SourceDocument) *SliceSource {
	return &SliceSource{docs: docs}
}

// NextDocument implements FragmentSource.
func (s *SliceSource) NextDocument(ctx context.Context) (*core.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.docs) {
		return nil, io.EOF
	}
	doc := &s.docs[s.pos]
	s.pos++
	return doc, nil
}

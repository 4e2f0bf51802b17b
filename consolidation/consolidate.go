package consolidation

import (
	"strings"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

// DefaultMinWords is the word count below which a fragment is folded into
// the paragraph before it.
const DefaultMinWords = 30

// settings holds the tunables of a consolidation pass.
type settings struct {
	minWords int
}

// ConsolidateOption configures a consolidation pass.
type ConsolidateOption func(*settings)

// WithMinWords sets the minimum paragraph size in words.
// Values below 1 disable merging of short fragments.
func WithMinWords(n int) ConsolidateOption {
	return func(s *settings) {
		s.minWords = n
	}
}

// state is the accumulator of the fold. pending holds the text of the most
// recent default clause not yet attached to a following fragment.
type state struct {
	pending    string
	hasPending bool
	output     []core.ParagraphRecord
	stats      Stats
}

// Consolidate folds one document's ordered fragments into ordered paragraphs.
//
// It is total over well-formed input: the empty sequence yields an empty
// result and no input makes it fail.
func Consolidate(fragments []core.FragmentRecord, opts ...ConsolidateOption) []core.ParagraphRecord {
	records, _ := consolidate(fragments, opts...)
	return records
}

// ConsolidateWithStats is Consolidate that also reports what the pass did.
func ConsolidateWithStats(fragments []core.FragmentRecord, opts ...ConsolidateOption) ([]core.ParagraphRecord, Stats) {
	return consolidate(fragments, opts...)
}

func consolidate(fragments []core.FragmentRecord, opts ...ConsolidateOption) ([]core.ParagraphRecord, Stats) {
	cfg := settings{minWords: DefaultMinWords}
	for _, opt := range opts {
		opt(&cfg)
	}

	acc := state{}
	for _, fragment := range fragments {
		acc = step(acc, fragment, cfg)
	}
	acc = flush(acc, fragments)

	return acc.output, acc.stats
}

// step applies the transition rules for a single fragment.
func step(acc state, fragment core.FragmentRecord, cfg settings) state {
	acc.stats.Fragments++

	if fragment.IsDefaultClause {
		// Only the most recent unconsumed default clause survives.
		// An empty clause clears the pending one and attaches nothing.
		acc.stats.DefaultClauses++
		acc.pending = fragment.Text
		acc.hasPending = fragment.Text != ""
		return acc
	}

	current := fragment.Text
	if acc.hasPending {
		current = acc.pending + " " + current
		acc.pending = ""
		acc.hasPending = false
	}

	if CountWords(current) < cfg.minWords && len(acc.output) > 0 {
		last := &acc.output[len(acc.output)-1]
		last.Text = strings.TrimSpace(last.Text + " " + current)
		acc.stats.Merged++
		return acc
	}

	acc.output = append(acc.output, core.ParagraphRecord{
		SourceDocID: fragment.SourceDocID,
		ParagraphID: fragment.ParagraphID(),
		Text:        current,
	})
	acc.stats.Paragraphs++
	return acc
}

// flush emits a trailing default clause that had nothing to attach to.
func flush(acc state, fragments []core.FragmentRecord) state {
	if !acc.hasPending {
		return acc
	}

	acc.output = append(acc.output, core.ParagraphRecord{
		SourceDocID: fragments[len(fragments)-1].SourceDocID,
		ParagraphID: core.OrphanClauseParagraph,
		Text:        acc.pending,
	})
	acc.pending = ""
	acc.hasPending = false
	acc.stats.Paragraphs++
	acc.stats.Orphans++
	return acc
}

// CountWords returns the number of whitespace-delimited tokens in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

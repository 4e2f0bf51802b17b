package consolidation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AvazbekNurmatov/lex-ai/core"
)

func frag(id, text string, isDefault bool) core.FragmentRecord {
	fragmentID := id
	return core.FragmentRecord{
		SourceDocID:     "doc",
		FragmentID:      &fragmentID,
		Text:            text,
		IsDefaultClause: isDefault,
	}
}

// words returns a sentence of n distinct words.
func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix
	}
	return strings.Join(parts, " ")
}

func TestConsolidateDefaultClauseAttachesForward(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		frag("1", "see below:", true),
		frag("2", "The penalty is a fine.", false),
	})

	require.Len(t, out, 1)
	assert.Equal(t, core.ParagraphRecord{
		SourceDocID: "doc",
		ParagraphID: "2",
		Text:        "see below: The penalty is a fine.",
	}, out[0])
}

func TestConsolidateShortFragmentsMerge(t *testing.T) {
	second := "This article governs taxation of imported goods exceeding the threshold set by the Ministry in accordance with paragraph three."
	out := Consolidate([]core.FragmentRecord{
		frag("1", "Article 5.", false),
		frag("2", second, false),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ParagraphID)
	assert.Equal(t, "Article 5. "+second, out[0].Text)
}

func TestConsolidateLongFragmentsStayApart(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		frag("1", words("alpha", 30), false),
		frag("2", words("beta", 31), false),
		frag("3", "tail", false),
	})

	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ParagraphID)
	assert.Equal(t, "2", out[1].ParagraphID)
	assert.Equal(t, words("beta", 31)+" tail", out[1].Text)
}

func TestConsolidateShortFirstFragmentStandsAlone(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		frag("1", "Chapter I.", false),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "Chapter I.", out[0].Text)
}

func TestConsolidateOrphanDefaultClause(t *testing.T) {
	out, stats := ConsolidateWithStats([]core.FragmentRecord{
		frag("1", words("body", 40), false),
		frag("2", "as follows:", true),
	})

	require.Len(t, out, 2)
	assert.Equal(t, core.ParagraphRecord{
		SourceDocID: "doc",
		ParagraphID: core.OrphanClauseParagraph,
		Text:        "as follows:",
	}, out[1])
	assert.Equal(t, 1, stats.Orphans)
	assert.Equal(t, 2, stats.Paragraphs)
}

func TestConsolidateLatestDefaultClauseWins(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		frag("1", "first lead-in", true),
		frag("2", "second lead-in", true),
		frag("3", words("text", 35), false),
	})

	require.Len(t, out, 1)
	assert.Equal(t, "second lead-in "+words("text", 35), out[0].Text)
	assert.Equal(t, "3", out[0].ParagraphID)
}

func TestConsolidateEmptyDefaultClearsPending(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		frag("1", "lead-in", true),
		frag("2", "", true),
		frag("3", words("text", 35), false),
	})

	require.Len(t, out, 1)
	assert.Equal(t, words("text", 35), out[0].Text)
}

func TestConsolidateMissingIDDefaultsToNoID(t *testing.T) {
	out := Consolidate([]core.FragmentRecord{
		{SourceDocID: "doc", Text: words("x", 30)},
	})

	require.Len(t, out, 1)
	assert.Equal(t, core.NoIDParagraph, out[0].ParagraphID)
}

func TestConsolidateEmpty(t *testing.T) {
	out, stats := ConsolidateWithStats(nil)
	assert.Empty(t, out)
	assert.Equal(t, Stats{}, stats)
}

func TestConsolidateWithMinWords(t *testing.T) {
	fragments := []core.FragmentRecord{
		frag("1", "one two three", false),
		frag("2", "four five", false),
	}

	assert.Len(t, Consolidate(fragments, WithMinWords(2)), 2)
	assert.Len(t, Consolidate(fragments, WithMinWords(3)), 1)
	assert.Len(t, Consolidate(fragments, WithMinWords(0)), 2)
}

func TestConsolidateOutputBound(t *testing.T) {
	cases := [][]core.FragmentRecord{
		{frag("1", "a", true)},
		{frag("1", "a", false), frag("2", "b", true), frag("3", "c", false)},
		{frag("1", words("w", 40), false), frag("2", "b", true), frag("3", words("w", 40), false), frag("4", "d", true)},
		{frag("1", "a", true), frag("2", "b", true), frag("3", "c", true)},
	}

	for _, fragments := range cases {
		out, stats := ConsolidateWithStats(fragments)
		assert.LessOrEqual(t, len(out), len(fragments)-stats.DefaultClauses+stats.Orphans)
		assert.Equal(t, len(fragments), stats.Fragments)
		for _, record := range out {
			assert.NotEmpty(t, record.Text)
		}
	}
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords(""))
	assert.Equal(t, 0, CountWords(" \t\n "))
	assert.Equal(t, 3, CountWords(" a  b\tc\n"))
}

func TestSummarize(t *testing.T) {
	summary := Summarize([]core.ParagraphRecord{
		{Text: "one two"},
		{Text: words("w", 40)},
		{Text: "three"},
	}, DefaultMinWords)

	assert.Equal(t, 3, summary.Paragraphs)
	assert.Equal(t, 1, summary.Min)
	assert.Equal(t, 40, summary.Max)
	assert.Equal(t, 2, summary.Short)
	assert.InDelta(t, 43.0/3.0, summary.Average, 1e-9)

	assert.Equal(t, WordSummary{}, Summarize(nil, DefaultMinWords))
}

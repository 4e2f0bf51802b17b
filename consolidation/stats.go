package consolidation

import "github.com/AvazbekNurmatov/lex-ai/core"

// Stats describes what a consolidation pass did.
type Stats struct {
	Fragments      int // fragments read
	DefaultClauses int // default-clause fragments read
	Paragraphs     int // paragraphs emitted, orphans included
	Merged         int // fragments folded into the previous paragraph
	Orphans        int // trailing default clauses emitted on their own
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Fragments += other.Fragments
	s.DefaultClauses += other.DefaultClauses
	s.Paragraphs += other.Paragraphs
	s.Merged += other.Merged
	s.Orphans += other.Orphans
}

// WordSummary summarizes paragraph sizes across a corpus.
type WordSummary struct {
	Paragraphs int
	Average    float64
	Min        int
	Max        int
	Short      int // paragraphs still below the threshold after consolidation
}

// Summarize computes word statistics over records. threshold is the minimum
// paragraph size used to count short paragraphs.
func Summarize(records []core.ParagraphRecord, threshold int) WordSummary {
	summary := WordSummary{Paragraphs: len(records)}
	if len(records) == 0 {
		return summary
	}

	total := 0
	for i, record := range records {
		words := CountWords(record.Text)
		total += words
		if i == 0 || words < summary.Min {
			summary.Min = words
		}
		if words > summary.Max {
			summary.Max = words
		}
		if words < threshold {
			summary.Short++
		}
	}
	summary.Average = float64(total) / float64(len(records))

	return summary
}

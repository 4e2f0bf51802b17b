package search

import "strings"

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"it": true, "for": true, "not": true, "on": true, "with": true, "as": true,
	"at": true, "this": true, "by": true, "from": true, "or": true,
	// Uzbek
	"va": true, "bilan": true, "uchun": true, "yoki": true, "bu": true,
	"ham": true, "esa": true, "ning": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := normalizeWord(word)
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

func normalizeWord(word string) string {
	return strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}«»“”"))
}

// MatchedTerms returns the distinct query words, stop words excluded, that
// occur in document, in query order.
func MatchedTerms(document, query string) []string {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return nil
	}

	docWordSet := make(map[string]bool)
	for _, word := range tokenizeAndFilter(document) {
		docWordSet[word] = true
	}

	var matched []string
	seen := make(map[string]bool, len(queryWords))
	for _, word := range queryWords {
		if docWordSet[word] && !seen[word] {
			matched = append(matched, word)
			seen[word] = true
		}
	}
	return matched
}

func uniqueWords(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, word := range words {
		set[word] = true
	}
	return set
}

// Highlight rewrites document, passing every word that matches one of terms
// through mark. Whitespace is collapsed to single spaces.
func Highlight(document string, terms []string, mark func(string) string) string {
	if len(terms) == 0 || mark == nil {
		return document
	}
	set := uniqueWords(terms)

	words := strings.Fields(document)
	for i, word := range words {
		if set[normalizeWord(word)] {
			words[i] = mark(word)
		}
	}
	return strings.Join(words, " ")
}

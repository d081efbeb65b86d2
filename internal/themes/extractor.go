// Package themes ranks the recurring significant words of a campaign's
// combined textual surface, a lightweight content-topic signal.
package themes

import (
	"sort"
	"strings"
	"unicode"
)

// defaultStopWords are common English function words that carry no topic
// signal.
var defaultStopWords = []string{
	"the", "and", "for", "you", "your", "with", "our", "are", "this",
	"that", "from", "have", "has", "was", "were", "will", "can", "all",
	"get", "now", "new", "not", "but", "out", "off", "its", "it's",
	"his", "her", "their", "them", "they", "she", "him", "who", "what",
	"when", "where", "why", "how", "any", "more", "most", "some", "such",
	"only", "just", "than", "then", "too", "very", "here", "there",
	"about", "into", "over", "under", "been", "being", "does", "did",
	"don", "dont", "won", "wont", "also", "had", "one", "two", "per",
	"via", "own", "each", "other", "which", "while", "these", "those",
}

// minTokenLength drops tokens too short to be discriminative
const minTokenLength = 3

// Extractor tokenizes text and ranks recurring significant words. The
// stop-word set and banned substrings are injected so extraction is
// testable with a controlled vocabulary.
type Extractor struct {
	maxThemes int
	stopWords map[string]struct{}
	banned    []string
}

// New creates an Extractor. An empty stopWords slice selects the built-in
// English set. banned drops any token containing one of the given
// substrings (the platform's brand and footer boilerplate pollute every
// campaign and are not discriminative).
func New(stopWords, banned []string, maxThemes int) *Extractor {
	if len(stopWords) == 0 {
		stopWords = defaultStopWords
	}
	if maxThemes <= 0 {
		maxThemes = 5
	}

	stop := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	lowered := make([]string, 0, len(banned))
	for _, b := range banned {
		if b != "" {
			lowered = append(lowered, strings.ToLower(b))
		}
	}

	return &Extractor{
		maxThemes: maxThemes,
		stopWords: stop,
		banned:    lowered,
	}
}

// Extract returns up to maxThemes distinct lowercase tokens ranked by
// descending frequency, ties broken by first-encountered order. The
// ranking is deterministic: the same text always yields the same list in
// the same order.
func (e *Extractor) Extract(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	counts := make(map[string]int)
	var order []string

	for _, tok := range tokens {
		if len(tok) < minTokenLength {
			continue
		}
		if _, stop := e.stopWords[tok]; stop {
			continue
		}
		if e.isBanned(tok) {
			continue
		}
		if counts[tok] == 0 {
			order = append(order, tok)
		}
		counts[tok]++
	}

	// order is first-seen; the stable sort keeps that order among equal
	// counts
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > e.maxThemes {
		order = order[:e.maxThemes]
	}
	return order
}

func (e *Extractor) isBanned(tok string) bool {
	for _, b := range e.banned {
		if strings.Contains(tok, b) {
			return true
		}
	}
	return false
}

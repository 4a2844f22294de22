package retrieval

import "strings"

// Scorer turns a query and a document into a comparable relevance score.
//
// Scoring is a capability, not an algorithm: the keyword baseline below can
// be swapped for a dense-vector metric without touching isolation or
// assembly logic. Whatever the implementation, a score of zero means the
// document is irrelevant and must be excluded from results.
type Scorer interface {
	// Score returns the relevance of content to query. Higher is more
	// relevant; zero excludes the document.
	Score(query, content string) float64
}

// KeywordScorer scores by case-insensitive token-set overlap: the score is
// the number of distinct query tokens that appear in the content.
//
// It is the minimal viable baseline. It needs no model, no index, and its
// output is fully deterministic, which keeps the retrieval contract easy to
// verify.
type KeywordScorer struct{}

// NewKeywordScorer creates the baseline keyword scorer.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// Score counts query tokens present in the content's token set.
func (k *KeywordScorer) Score(query, content string) float64 {
	contentTokens := tokenSet(content)
	var score float64
	for token := range tokenSet(query) {
		if _, ok := contentTokens[token]; ok {
			score++
		}
	}
	return score
}

// tokenSet lowercases and splits text on whitespace into a set of tokens.
func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

var _ Scorer = (*KeywordScorer)(nil)

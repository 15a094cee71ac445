// Package relevance scores token sequences by raw keyword overlap with a query.
package relevance

// epsilon keeps the denominator non-zero for empty token lists.
const epsilon = 1e-6

// Query is the deduplicated token set of a persona/task description.
type Query struct {
	terms map[string]struct{}
}

// NewQuery builds a Query from tokens; repeats collapse.
func NewQuery(tokens []string) Query {
	terms := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		terms[t] = struct{}{}
	}
	return Query{terms: terms}
}

// Len returns the number of distinct query terms.
func (q Query) Len() int { return len(q.terms) }

// Contains reports whether token is a query term.
func (q Query) Contains(token string) bool {
	_, ok := q.terms[token]
	return ok
}

// Score is the fraction of tokens that are query terms:
// matches / (len(tokens) + epsilon). Empty tokens or an empty query score 0.
func Score(tokens []string, q Query) float64 {
	if len(tokens) == 0 || q.Len() == 0 {
		return 0
	}
	matches := 0
	for _, t := range tokens {
		if q.Contains(t) {
			matches++
		}
	}
	return float64(matches) / (float64(len(tokens)) + epsilon)
}

// Package matcher scores catalog rows against a free-text query by counting
// query tokens that appear inside the product name.
package matcher

import (
	"sort"
	"strings"

	"stock-bot/internal/models"
)

// Normalize lowercases text, trims it and collapses whitespace runs to a
// single space.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Tokens returns the distinct tokens of the normalized query in first-seen
// order. An empty or whitespace-only query has no tokens.
func Tokens(query string) []string {
	fields := strings.Fields(Normalize(query))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// Score counts how many tokens occur as a substring of the normalized name.
func Score(name string, tokens []string) int {
	normalized := Normalize(name)
	score := 0
	for _, tok := range tokens {
		if tok != "" && strings.Contains(normalized, tok) {
			score++
		}
	}
	return score
}

// FindMatches returns every record with a positive score, highest score
// first. Equal scores keep catalog order.
func FindMatches(records []models.Product, query string) []models.ScoredMatch {
	tokens := Tokens(query)
	if len(tokens) == 0 || len(records) == 0 {
		return []models.ScoredMatch{}
	}

	matches := make([]models.ScoredMatch, 0)
	for _, r := range records {
		if s := Score(r.Name, tokens); s > 0 {
			matches = append(matches, models.ScoredMatch{Product: r, Score: s})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

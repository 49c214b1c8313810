// Package keyword scores line-item descriptions against a weighted
// phrase dictionary to suggest a budget category.
package keyword

import (
	"strings"

	"github.com/buildtally/buildtally/internal/model"
)

// DefaultMinConfidence is the floor below which no match is returned.
const DefaultMinConfidence = 0.05

// nameBoost is added when the category's own name appears verbatim in
// the normalized description.
const nameBoost = 0.2

// Categorize scores the description against every category that is both
// active for the project and present in the dictionary, and returns the
// best match or nil. Confidence is always in [0,1]. Ties between
// categories keep the first-seen category in the supplied list order.
func (c *Categorizer) Categorize(description string, activeCategories []string, minConfidence float64) *model.CategoryMatch {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	desc := normalizeDescription(description)
	if desc == "" {
		return nil
	}

	var best *model.CategoryMatch
	for _, category := range activeCategories {
		phrases, ok := c.phrases[category]
		if !ok {
			// Active categories absent from the dictionary never win
			// via this path.
			continue
		}

		var matched, total int
		for _, wp := range phrases {
			total += wp.Weight
			if strings.Contains(desc, wp.Phrase) {
				matched += wp.Weight
			}
		}

		// A phrase-less category scores 0 raw but can still earn the
		// name boost.
		var score float64
		if total > 0 {
			score = float64(matched) / float64(total)
		}
		if strings.Contains(desc, normalizeDescription(category)) {
			score += nameBoost
			if score > 1.0 {
				score = 1.0
			}
		}

		// Strict > keeps the earlier category on ties.
		if best == nil || score > best.Confidence {
			best = &model.CategoryMatch{Category: category, Confidence: score}
		}
	}

	if best == nil || best.Confidence < minConfidence {
		return nil
	}
	return best
}

// normalizeDescription lowercases and strips everything outside
// [a-z0-9 / - &], collapsing runs of whitespace.
func normalizeDescription(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/' || r == '-' || r == '&':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

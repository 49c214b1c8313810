package vendors

import "strings"

// Similarity scores how alike two vendor names are, in [0,1]. Inputs may
// be raw or already normalized; normalization is idempotent so both are
// safe. The rules apply in order, first match wins:
//
//  1. equal normalized forms: 1.0
//  2. either normalized form empty: 0.0
//  3. one normalized form contains the other: 0.9
//  4. Jaccard overlap of whitespace-split token sets
//
// Containment deliberately outranks token overlap: short legal-name
// variants ("Acme" vs "Acme Construction") are common and should score
// higher than Jaccard alone would give them.
func Similarity(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)

	if na == nb {
		if na == "" {
			return 0.0
		}
		return 1.0
	}
	if na == "" || nb == "" {
		return 0.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.9
	}

	setA := tokenSet(na)
	setB := tokenSet(nb)

	intersection := 0
	union := len(setB)
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

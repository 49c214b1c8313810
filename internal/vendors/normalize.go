// Package vendors implements vendor identity resolution: name
// normalization, similarity scoring, best-match lookup, and duplicate
// group detection.
package vendors

import "strings"

// entitySuffixes are business-entity suffix tokens removed during
// normalization. Matched as whole words anywhere in the name, not only
// at the end.
var entitySuffixes = map[string]struct{}{
	"llc":  {},
	"inc":  {},
	"corp": {},
	"co":   {},
	"ltd":  {},
	"lp":   {},
	"plc":  {},
	"pllc": {},
	"dba":  {},
}

// Normalize canonicalizes a vendor display name into the comparable key
// used for dedup and matching. The function is pure and idempotent:
// normalizing an already-normalized name returns it unchanged. Input
// that normalizes to nothing yields the empty string.
func Normalize(name string) string {
	s := strings.ToLower(name)

	// Dotted suffix variants ("l.l.c.", "inc.") collapse onto the plain
	// token once periods are dropped.
	s = strings.ReplaceAll(s, ".", "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, tok := range fields {
		if _, drop := entitySuffixes[tok]; drop {
			continue
		}
		kept = append(kept, tok)
	}

	return strings.Join(kept, " ")
}

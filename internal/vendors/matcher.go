package vendors

import (
	"strings"

	"github.com/buildtally/buildtally/internal/model"
)

// DefaultMatchThreshold is the minimum similarity for a vendor match.
const DefaultMatchThreshold = 0.7

// Match is the best-matching known vendor for a parsed name.
type Match struct {
	VendorID   string
	Name       string
	Similarity float64
}

// FindBestMatch scores the parsed name against every known vendor and
// returns the best match at or above the threshold, or nil. Ties keep
// the first candidate reaching the maximum score; ties are rare and
// non-adversarial, so the order-dependence is acceptable. An empty
// parsed name is no match, not an error.
func FindBestMatch(name string, vendors []model.Vendor, threshold float64) *Match {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	var best *Match
	for i := range vendors {
		target := vendors[i].NormalizedName
		if target == "" {
			target = vendors[i].Name
		}
		score := Similarity(name, target)
		if best == nil || score > best.Similarity {
			best = &Match{
				VendorID:   vendors[i].ID,
				Name:       vendors[i].Name,
				Similarity: score,
			}
		}
	}

	if best == nil || best.Similarity < threshold {
		return nil
	}
	return best
}

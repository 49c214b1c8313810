package vendors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical raw names",
			a:    "Acme Construction",
			b:    "Acme Construction",
			want: 1.0,
		},
		{
			name: "equal after normalization",
			a:    "Acme LLC",
			b:    "ACME Inc.",
			want: 1.0,
		},
		{
			name: "containment scores 0.9",
			a:    "Acme Construction LLC",
			b:    "Acme",
			want: 0.9,
		},
		{
			name: "one side empty",
			a:    "Acme",
			b:    "",
			want: 0.0,
		},
		{
			name: "suffix-only name normalizes empty",
			a:    "Acme",
			b:    "LLC",
			want: 0.0,
		},
		{
			name: "jaccard partial overlap",
			a:    "Acme Roofing Supply",
			b:    "Acme Plumbing Supply",
			// tokens {acme, roofing, supply} vs {acme, plumbing, supply}:
			// 2 shared of 4 total.
			want: 0.5,
		},
		{
			name: "no overlap",
			a:    "Acme Roofing",
			b:    "Zenith Electric",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Acme Construction LLC", "Acme"},
		{"Acme Roofing Supply", "Acme Plumbing Supply"},
		{"Bob's Plumbing", "Bobs Plumbing Inc."},
		{"", "Acme"},
		{"Zenith Electric", "Acme Roofing"},
	}

	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]),
			"similarity not symmetric for %q / %q", p[0], p[1])
	}
}

func TestSimilarityBounds(t *testing.T) {
	names := []string{"Acme", "Acme Construction LLC", "Bob's Plumbing", "", "Smith & Sons"}

	for _, a := range names {
		for _, b := range names {
			got := Similarity(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
		if Normalize(a) != "" {
			assert.Equal(t, 1.0, Similarity(a, a))
		}
	}
}

func TestSimilarityContainmentPriority(t *testing.T) {
	// Containment must outrank the Jaccard score those names would get.
	got := Similarity("Acme Construction LLC", "Acme")
	assert.Equal(t, 0.9, got)

	got = Similarity("Acme", "Acme Construction")
	assert.Equal(t, 0.9, got)
}

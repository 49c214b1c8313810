package vendors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases",
			input: "ACME Construction",
			want:  "acme construction",
		},
		{
			name:  "strips llc suffix",
			input: "Acme Construction LLC",
			want:  "acme construction",
		},
		{
			name:  "strips punctuated suffix",
			input: "ACME Inc.",
			want:  "acme",
		},
		{
			name:  "strips dotted suffix variant",
			input: "Acme L.L.C.",
			want:  "acme",
		},
		{
			name:  "strips suffix mid-string",
			input: "Acme LLC Plumbing",
			want:  "acme plumbing",
		},
		{
			name:  "apostrophe becomes space",
			input: "Bob's Plumbing LLC",
			want:  "bob s plumbing",
		},
		{
			name:  "collapses whitespace",
			input: "  Acme    Builders  ",
			want:  "acme builders",
		},
		{
			name:  "ampersand and commas",
			input: "Smith & Sons, Ltd.",
			want:  "smith sons",
		},
		{
			name:  "dba variant",
			input: "John Doe DBA Doe Roofing",
			want:  "john doe doe roofing",
		},
		{
			name:  "only suffixes normalizes to empty",
			input: "LLC Inc. Corp",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "suffix token inside a word is kept",
			input: "Copper Incline Co",
			want:  "copper incline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Acme Construction LLC",
		"ACME Inc.",
		"Bob's Plumbing L.L.C.",
		"Smith & Sons, Ltd.",
		"  Mixed   CASE  Co.  ",
		"co-op market",
		"",
		"LLC",
		"A1 Hauling & Disposal LP",
	}

	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "normalize not idempotent for %q", input)
	}
}

package keyword

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed dictionary.yaml
var dictionaryYAML []byte

// WeightedPhrase is one dictionary entry: a phrase and its signal
// strength, 1 (weak) through 5 (near-certain).
type WeightedPhrase struct {
	Phrase string `yaml:"phrase"`
	Weight int    `yaml:"weight"`
}

type dictionaryEntry struct {
	Name    string           `yaml:"name"`
	Phrases []WeightedPhrase `yaml:"phrases"`
}

type dictionaryFile struct {
	Categories []dictionaryEntry `yaml:"categories"`
}

// Categorizer holds the parsed phrase dictionary. Safe for concurrent
// use; the dictionary is read-only after construction.
type Categorizer struct {
	phrases map[string][]WeightedPhrase
	order   []string
}

// NewCategorizer parses the embedded dictionary.
func NewCategorizer() (*Categorizer, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(dictionaryYAML, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keyword dictionary: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("keyword dictionary is empty")
	}

	c := &Categorizer{
		phrases: make(map[string][]WeightedPhrase, len(file.Categories)),
		order:   make([]string, 0, len(file.Categories)),
	}
	for _, entry := range file.Categories {
		if entry.Name == "" {
			return nil, fmt.Errorf("keyword dictionary contains an unnamed category")
		}
		if _, dup := c.phrases[entry.Name]; dup {
			return nil, fmt.Errorf("keyword dictionary repeats category %q", entry.Name)
		}
		for _, wp := range entry.Phrases {
			if wp.Phrase == "" {
				return nil, fmt.Errorf("category %q has an empty phrase", entry.Name)
			}
			if wp.Weight < 1 || wp.Weight > 5 {
				return nil, fmt.Errorf("category %q phrase %q has weight %d outside 1..5", entry.Name, wp.Phrase, wp.Weight)
			}
		}
		c.phrases[entry.Name] = entry.Phrases
		c.order = append(c.order, entry.Name)
	}

	return c, nil
}

// Categories returns the dictionary's category names in file order.
// Used to seed a new project's budget categories.
func (c *Categorizer) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

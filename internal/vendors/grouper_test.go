package vendors

import (
	"testing"

	"github.com/buildtally/buildtally/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupDuplicates(t *testing.T) {
	vendors := []model.Vendor{
		{ID: "v1", Name: "Acme LLC", NormalizedName: "acme", UseCount: 3},
		{ID: "v2", Name: "ACME Inc.", NormalizedName: "acme", UseCount: 7},
		{ID: "v3", Name: "Acme", NormalizedName: "acme", UseCount: 1},
		{ID: "v4", Name: "Zenith Electric", NormalizedName: "zenith electric", UseCount: 5},
		{ID: "v5", Name: "Bob's Plumbing", NormalizedName: "bob s plumbing", UseCount: 2},
		{ID: "v6", Name: "Bobs Plumbing LLC", NormalizedName: "bob s plumbing", UseCount: 2},
	}

	groups := GroupDuplicates(vendors)
	require.Len(t, groups, 2)

	// Groups come back sorted by normalized name.
	assert.Equal(t, "acme", groups[0].NormalizedName)
	assert.Equal(t, "bob s plumbing", groups[1].NormalizedName)

	// Acme group: usage descending, most-used first.
	acme := groups[0].Vendors
	require.Len(t, acme, 3)
	assert.Equal(t, "v2", acme[0].ID)
	assert.Equal(t, "v1", acme[1].ID)
	assert.Equal(t, "v3", acme[2].ID)

	// Equal usage breaks ties by name ascending.
	bobs := groups[1].Vendors
	require.Len(t, bobs, 2)
	assert.Equal(t, "Bob's Plumbing", bobs[0].Name)
	assert.Equal(t, "Bobs Plumbing LLC", bobs[1].Name)
}

func TestGroupDuplicatesSingletonsExcluded(t *testing.T) {
	vendors := []model.Vendor{
		{ID: "v1", Name: "Acme", NormalizedName: "acme", UseCount: 1},
		{ID: "v2", Name: "Zenith", NormalizedName: "zenith", UseCount: 1},
	}

	assert.Empty(t, GroupDuplicates(vendors))
}

func TestGroupDuplicatesDerivesMissingKey(t *testing.T) {
	vendors := []model.Vendor{
		{ID: "v1", Name: "Acme LLC", UseCount: 1},
		{ID: "v2", Name: "ACME Inc.", UseCount: 2},
	}

	groups := GroupDuplicates(vendors)
	require.Len(t, groups, 1)
	assert.Equal(t, "acme", groups[0].NormalizedName)
	assert.Equal(t, "v2", groups[0].Vendors[0].ID)
}

package vendors

import (
	"sort"

	"github.com/buildtally/buildtally/internal/model"
)

// GroupDuplicates partitions vendors by normalized name and returns the
// partitions with more than one member. Within each group vendors are
// ordered by invoice usage descending (name ascending on ties) so the
// most-used vendor is the default keep candidate. Read-only analysis;
// nothing is mutated.
func GroupDuplicates(vendors []model.Vendor) []model.DuplicateGroup {
	byKey := make(map[string][]model.Vendor)
	for i := range vendors {
		key := vendors[i].NormalizedName
		if key == "" {
			key = Normalize(vendors[i].Name)
		}
		if key == "" {
			continue
		}
		byKey[key] = append(byKey[key], vendors[i])
	}

	var groups []model.DuplicateGroup
	for key, members := range byKey {
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].UseCount != members[j].UseCount {
				return members[i].UseCount > members[j].UseCount
			}
			return members[i].Name < members[j].Name
		})
		groups = append(groups, model.DuplicateGroup{
			NormalizedName: key,
			Vendors:        members,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].NormalizedName < groups[j].NormalizedName
	})
	return groups
}

package mesh

import "sort"

// Influence is one vertex group membership.
type Influence struct {
	Group  int
	Weight float32
}

// TopInfluences returns the MaxInfluences heaviest influences in descending
// weight order, zero-padded. Ties keep their input order.
func TopInfluences(groups []Influence) [MaxInfluences]Influence {
	sorted := append([]Influence(nil), groups...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	var out [MaxInfluences]Influence
	copy(out[:], sorted)
	return out
}

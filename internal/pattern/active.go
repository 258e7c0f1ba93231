package pattern

import (
	"sort"

	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Active returns the patterns ending within withinBars of lastIndex, highest
// confidence first. Ties keep detection order.
func Active(patterns []types.Pattern, lastIndex, withinBars int) []types.Pattern {
	active := make([]types.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.End <= lastIndex && p.End >= lastIndex-withinBars {
			active = append(active, p)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Confidence > active[j].Confidence
	})

	return active
}

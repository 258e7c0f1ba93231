package prediction

import (
	"math"

	"github.com/rxtech-lab/argo-chart/internal/types"
)

// RealizedDirection classifies the move from current to future. Relative moves
// within threshold count as SIDEWAYS.
func RealizedDirection(current, future, threshold float64) types.Direction {
	change := future - current
	if current != 0 {
		change /= math.Abs(current)
	}

	switch {
	case change > threshold:
		return types.DirectionUp
	case change < -threshold:
		return types.DirectionDown
	default:
		return types.DirectionSideways
	}
}

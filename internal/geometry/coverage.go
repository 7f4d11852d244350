// Package geometry derives real-world ground coverage from camera mounting
// parameters. Computation is pure: the same profile always yields the same
// coverage, and nothing here is persisted.
package geometry

import (
	"math"

	"github.com/vigilsafe/vigil/internal/domain"
)

func degreesToRadians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// ComputeCoverage converts mounting height (m), vertical/horizontal FOV and
// tilt (degrees) into the observed ground trapezoid.
//
// Near and far edge distances follow from the tilt and the vertical FOV:
// a camera tilted such that the near edge would sit above the horizon gets a
// near distance of 0, never a negative one, and the far edge is clamped to
// stay at or beyond the near edge. Degenerate geometry yields area 0, which
// is valid output, not an error.
func ComputeCoverage(height, verticalFOV, horizontalFOV, tilt float64) domain.CoverageArea {
	theta := degreesToRadians(verticalFOV)
	phi := degreesToRadians(horizontalFOV)
	alpha := degreesToRadians(tilt)

	d1 := height * math.Tan(alpha-theta/2)
	d2 := height * math.Tan(alpha+theta/2)

	d1 = math.Max(0, d1)
	d2 = math.Max(d1, d2)

	w1 := math.Max(0, 2*d1*math.Tan(phi/2))
	w2 := math.Max(0, 2*d2*math.Tan(phi/2))

	area := 0.5 * (w1 + w2) * (d2 - d1)

	return domain.CoverageArea{
		NearDistance: domain.Round(d1, 2),
		FarDistance:  domain.Round(d2, 2),
		NearWidth:    domain.Round(w1, 2),
		FarWidth:     domain.Round(w2, 2),
		Area:         domain.Round(area, 2),
	}
}

// CoverageForProfile is a convenience wrapper over ComputeCoverage.
func CoverageForProfile(p *domain.CameraProfile) domain.CoverageArea {
	return ComputeCoverage(p.MountingHeight, p.VerticalFOV, p.HorizontalFOV, p.Tilt)
}

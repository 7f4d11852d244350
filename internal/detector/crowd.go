package detector

import (
	"context"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/vision"
)

// Crowd model tuning. The low confidence threshold deliberately trades
// precision for recall: missing people in a density estimate is worse than
// counting a few phantoms.
const (
	crowdConfThreshold = 0.1
	crowdIoUThreshold  = 0.5

	// Percent of the covered ground occupied by people before the area
	// counts as overcrowded.
	overcrowdedDensityPct = 15
)

var crowdClasses = []string{"person", "undefined"}

// CrowdDetector estimates crowd density by projecting the summed person box
// area onto the camera's real-world ground coverage.
//
// Person boxes are decoded in original-image coordinates but the coverage
// ratio divides by the model input area, so box areas are mapped back to the
// 640x640 grid before summing. Overlapping boxes double-count.
type CrowdDetector struct {
	runner inference.Runner
}

func NewCrowdDetector(runner inference.Runner) *CrowdDetector {
	return &CrowdDetector{runner: runner}
}

// Detect runs the person model and derives density for the given real-world
// coverage area in square meters.
func (d *CrowdDetector) Detect(ctx context.Context, input *vision.Input, coverageArea float64) (*domain.CrowdResult, error) {
	data, dims, err := d.runner.Run(ctx, input.Tensor)
	if err != nil {
		return nil, err
	}

	detections := vision.DecodeDetections(data, dims, input.Width, input.Height, crowdClasses, crowdConfThreshold, crowdIoUThreshold)

	persons := detections[:0:0]
	for _, det := range detections {
		if det.ClassName == "person" {
			persons = append(persons, det)
		}
	}

	scaleX := float64(input.Width) / vision.InputSize
	scaleY := float64(input.Height) / vision.InputSize

	var totalPersonArea float64
	for _, det := range persons {
		totalPersonArea += (det.Box.Width() / scaleX) * (det.Box.Height() / scaleY)
	}

	modelArea := float64(vision.InputSize * vision.InputSize)
	coverageRatio := totalPersonArea / modelArea
	occupied := coverageRatio * coverageArea

	densityPct := 0.0
	if coverageArea > 0 {
		densityPct = occupied / coverageArea * 100
	}

	return &domain.CrowdResult{
		PersonCount:       len(persons),
		TotalPersonArea:   totalPersonArea,
		AreaCoverageRatio: domain.Round(coverageRatio, 4),
		OccupiedRealArea:  domain.Round(occupied, 2),
		DensityPercentage: domain.Round(densityPct, 2),
		CoverageArea:      coverageArea,
		IsOvercrowded:     densityPct > overcrowdedDensityPct,
		DensityLevel:      densityLevel(densityPct),
		Detections:        persons,
	}, nil
}

func densityLevel(pct float64) domain.RiskLevel {
	switch {
	case pct > 20:
		return domain.RiskCritical
	case pct > 15:
		return domain.RiskHigh
	case pct > 10:
		return domain.RiskModerate
	case pct > 5:
		return domain.RiskLow
	default:
		return domain.RiskMinimal
	}
}

// Package detector implements the per-signal analyzers that turn raw model
// output into safety assessments: fire intensity, crowd density, pose based
// unconsciousness, and frame-to-frame stampede movement.
package detector

import (
	"context"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/vision"
)

// Fire model tuning.
const (
	fireConfThreshold = 0.25
	fireIoUThreshold  = 0.45

	// Fraction of the frame burning before the frame counts as fire.
	fireIntensityThreshold = 0.1
	fireHighRiskThreshold  = 0.3
)

var fireClasses = []string{"fire", "smoke"}

// FireDetector estimates fire intensity as the fraction of the original
// frame covered by fire boxes. Smoke detections inform nothing yet; only
// the fire class contributes area.
type FireDetector struct {
	runner inference.Runner
}

func NewFireDetector(runner inference.Runner) *FireDetector {
	return &FireDetector{runner: runner}
}

// Detect runs the fire model over a preprocessed frame.
func (d *FireDetector) Detect(ctx context.Context, input *vision.Input) (*domain.FireResult, error) {
	data, dims, err := d.runner.Run(ctx, input.Tensor)
	if err != nil {
		return nil, err
	}

	detections := vision.DecodeDetections(data, dims, input.Width, input.Height, fireClasses, fireConfThreshold, fireIoUThreshold)

	var fireArea float64
	for _, det := range detections {
		if det.ClassName == "fire" {
			fireArea += det.Box.Area()
		}
	}

	frameArea := float64(input.Width) * float64(input.Height)
	intensity := 0.0
	if frameArea > 0 {
		intensity = fireArea / frameArea
	}
	detected := intensity > fireIntensityThreshold

	risk := domain.RiskLow
	if detected {
		risk = domain.RiskMedium
		if intensity > fireHighRiskThreshold {
			risk = domain.RiskHigh
		}
	}

	return &domain.FireResult{
		Intensity:    domain.Round(intensity, 4),
		FireDetected: detected,
		RiskLevel:    risk,
	}, nil
}

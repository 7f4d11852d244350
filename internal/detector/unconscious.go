package detector

import (
	"context"
	"math"
	"sort"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/vision"
)

// Pose model tuning. The confidence threshold sits well above the other
// detectors: a false unconscious-person alert dispatches medical response.
const (
	poseConfThreshold = 0.6
	poseIoUThreshold  = 0.3

	// Heuristic weights. Scores are additive across all four checks.
	horizontalBodyScore = 0.6
	headBelowHipsScore  = 0.5
	unnaturalLimbScore  = 0.3
	completelyFlatScore = 0.4

	unconsciousLikelyThreshold = 0.8
)

// UnconsciousDetector scores pose keypoints against lying, collapsed and
// flat-on-ground heuristics. Only the single highest-scoring person is
// reported per frame to keep alert noise down.
type UnconsciousDetector struct {
	runner inference.Runner
}

func NewUnconsciousDetector(runner inference.Runner) *UnconsciousDetector {
	return &UnconsciousDetector{runner: runner}
}

// Detect runs the pose model and applies the unconsciousness heuristics.
func (d *UnconsciousDetector) Detect(ctx context.Context, input *vision.Input) (*domain.UnconsciousResult, error) {
	data, dims, err := d.runner.Run(ctx, input.Tensor)
	if err != nil {
		return nil, err
	}

	poses := vision.DecodePoses(data, dims, poseConfThreshold, poseIoUThreshold)

	var unconscious []domain.UnconsciousPerson
	for i, pose := range poses {
		score, poseType, reasons := scorePose(pose.Keypoints)
		if score <= unconsciousLikelyThreshold {
			continue
		}
		unconscious = append(unconscious, domain.UnconsciousPerson{
			PersonID:   i,
			Box:        pose.Box,
			Confidence: pose.Confidence,
			Score:      domain.Round(score, 4),
			PoseType:   poseType,
			RiskLevel:  unconsciousRiskLevel(score),
			Reasons:    reasons,
		})
	}

	sort.SliceStable(unconscious, func(i, j int) bool {
		return unconscious[i].Score > unconscious[j].Score
	})
	if len(unconscious) > 1 {
		unconscious = unconscious[:1]
	}

	overall := "SAFE"
	if len(unconscious) > 0 {
		overall = "EMERGENCY"
	}

	alerts := make([]domain.EmergencyAlert, 0, len(unconscious))
	for _, p := range unconscious {
		alerts = append(alerts, domain.EmergencyAlert{
			Type:       "UNCONSCIOUS_PERSON_DETECTED",
			Severity:   p.RiskLevel,
			Confidence: p.Score,
			PoseType:   p.PoseType,
			Reasons:    p.Reasons,
			Box:        p.Box,
		})
	}

	return &domain.UnconsciousResult{
		TotalPersons:       len(poses),
		UnconsciousCount:   len(unconscious),
		UnconsciousPersons: unconscious,
		OverallRisk:        overall,
		AlertLevel:         unconsciousAlertLevel(len(unconscious)),
		EmergencyAlerts:    alerts,
	}, nil
}

// scorePose applies the four unconsciousness heuristics to one person's
// keypoints. Heuristics referencing keypoints that are not visible with
// sufficient confidence are skipped, not scored zero.
func scorePose(kps [domain.PoseKeypointCount]domain.Keypoint) (score float64, poseType string, reasons []string) {
	poseType = domain.PoseStanding
	reasons = []string{}

	nose := kps[domain.KeypointNose]
	avgShoulder := averagePoint(kps[domain.KeypointLeftShoulder], kps[domain.KeypointRightShoulder])
	avgHip := averagePoint(kps[domain.KeypointLeftHip], kps[domain.KeypointRightHip])
	avgAnkle := averagePoint(kps[domain.KeypointLeftAnkle], kps[domain.KeypointRightAnkle])

	// Body more horizontal than vertical between shoulders and ankles.
	if avgShoulder != nil && avgHip != nil && avgAnkle != nil {
		bodyLength := math.Abs(avgShoulder.X - avgAnkle.X)
		bodyHeight := math.Abs(avgShoulder.Y - avgAnkle.Y)
		if bodyLength > bodyHeight*1.5 {
			score += horizontalBodyScore
			reasons = append(reasons, domain.ReasonHorizontalBody)
			poseType = domain.PoseLyingDown
		}
	}

	// Head below the hips. Larger Y is lower in image coordinates.
	if nose.Confidence > vision.KeypointConfThreshold && avgHip != nil && nose.Y > avgHip.Y {
		score += headBelowHipsScore
		reasons = append(reasons, domain.ReasonHeadBelowHips)
		poseType = domain.PoseCollapsed
	}

	if hasUnnaturalLimbs(kps) {
		score += unnaturalLimbScore
		reasons = append(reasons, domain.ReasonUnnaturalLimb)
	}

	// All major points at near-identical height. The nose position counts
	// here even when barely visible; an occluded face is common in a
	// face-down collapse.
	if avgShoulder != nil && avgHip != nil && avgAnkle != nil {
		ys := []float64{nose.Y, avgShoulder.Y, avgHip.Y, avgAnkle.Y}
		minY, maxY := ys[0], ys[0]
		for _, y := range ys[1:] {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
		if maxY-minY < 50 {
			score += completelyFlatScore
			reasons = append(reasons, domain.ReasonCompletelyFlat)
			poseType = domain.PoseFlatOnGround
		}
	}

	return score, poseType, reasons
}

// hasUnnaturalLimbs reports whether either elbow sits more than 30px above
// its same-side shoulder, suggesting a twisted arm.
func hasUnnaturalLimbs(kps [domain.PoseKeypointCount]domain.Keypoint) bool {
	pairs := [][2]int{
		{domain.KeypointLeftElbow, domain.KeypointLeftShoulder},
		{domain.KeypointRightElbow, domain.KeypointRightShoulder},
	}
	for _, pair := range pairs {
		elbow, shoulder := kps[pair[0]], kps[pair[1]]
		if elbow.Confidence > vision.KeypointConfThreshold &&
			shoulder.Confidence > vision.KeypointConfThreshold &&
			elbow.Y < shoulder.Y-30 {
			return true
		}
	}
	return false
}

// averagePoint averages the keypoints visible above the keypoint confidence
// threshold, or returns nil if neither qualifies.
func averagePoint(points ...domain.Keypoint) *domain.Keypoint {
	var sumX, sumY, sumConf float64
	var n int
	for _, p := range points {
		if p.Confidence > vision.KeypointConfThreshold {
			sumX += p.X
			sumY += p.Y
			sumConf += p.Confidence
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &domain.Keypoint{
		X:          sumX / float64(n),
		Y:          sumY / float64(n),
		Confidence: sumConf / float64(n),
	}
}

func unconsciousRiskLevel(score float64) domain.RiskLevel {
	switch {
	case score > 0.9:
		return domain.RiskCritical
	case score > 0.8:
		return domain.RiskHigh
	case score > 0.6:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func unconsciousAlertLevel(count int) domain.RiskLevel {
	switch {
	case count >= 3:
		return domain.RiskCritical
	case count >= 2:
		return domain.RiskHigh
	case count >= 1:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

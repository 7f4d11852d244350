package detector

import (
	"github.com/vigilsafe/vigil/internal/domain"
)

// Stampede movement tuning, in pixels of box-center displacement between
// consecutive sampled frames.
//
// Displacement is measured in original-image coordinates, the space the
// decoded detections live in. On high-resolution cameras the same on-screen
// motion spans more pixels than on the 640x640 model grid, so the match
// limit and the movement buckets fire earlier there.
const (
	stampedeThreshold     = 0.6
	highMovementThreshold = 50
	maxMatchDistance      = 200
	movementHistorySize   = 5
)

type instantAnalysis struct {
	score       float64
	reasons     []string
	avgMovement float64
}

// StampedeDetector tracks person movement across consecutive frames. It is
// stateful and scoped to exactly one camera session; two video sources
// sharing an instance would cross-contaminate the movement history.
// Not safe for concurrent use.
type StampedeDetector struct {
	previousDetections []domain.Detection
	movementHistory    []instantAnalysis
}

func NewStampedeDetector() *StampedeDetector {
	return &StampedeDetector{}
}

// Detect consumes the current frame's person detections and scores crowd
// movement against the previous frame. The first frame of a session always
// yields a safe result since movement needs two frames.
func (d *StampedeDetector) Detect(current []domain.Detection) *domain.StampedeResult {
	if len(d.previousDetections) == 0 {
		d.previousDetections = current
		return safeStampedeResult()
	}

	movements := calculateMovements(d.previousDetections, current)
	instant := analyzeMovements(movements, len(current))

	d.movementHistory = append(d.movementHistory, instant)
	if len(d.movementHistory) > movementHistorySize {
		d.movementHistory = d.movementHistory[1:]
	}

	temporal := d.analyzeTemporalPattern()
	score, reasons := combineAnalysis(instant, temporal)

	d.previousDetections = current

	avgMovement := 0.0
	highCount := 0
	if len(movements) > 0 {
		var sum float64
		for _, m := range movements {
			sum += m
			if m > highMovementThreshold {
				highCount++
			}
		}
		avgMovement = sum / float64(len(movements))
	}

	return &domain.StampedeResult{
		IsStampede: score > stampedeThreshold,
		Score:      domain.Round(score, 3),
		RiskLevel:  stampedeRiskLevel(score),
		Reasons:    reasons,
		AlertLevel: stampedeAlertLevel(score),
		MovementStats: domain.MovementStats{
			TotalMovements:    len(movements),
			AverageMovement:   domain.Round(avgMovement, 2),
			HighMovementCount: highCount,
			PersonCount:       len(current),
		},
		TemporalPattern: temporal,
	}
}

// Reset clears all state. Callers must reset (or construct fresh) between
// independent video sessions.
func (d *StampedeDetector) Reset() {
	d.previousDetections = nil
	d.movementHistory = nil
}

// calculateMovements matches each current person to the closest previous
// person within the match distance and records the displacement.
func calculateMovements(prev, curr []domain.Detection) []float64 {
	movements := make([]float64, 0, len(curr))
	for _, person := range curr {
		if dist, ok := closestDistance(person, prev); ok {
			movements = append(movements, dist)
		}
	}
	return movements
}

func closestDistance(target domain.Detection, candidates []domain.Detection) (float64, bool) {
	best := 0.0
	found := false
	for _, c := range candidates {
		dist := target.Box.CenterDistance(c.Box)
		if dist < maxMatchDistance && (!found || dist < best) {
			best = dist
			found = true
		}
	}
	return best, found
}

// analyzeMovements buckets the instant frame-pair movement into an additive
// score. Within each bucket group only the highest bracket applies.
func analyzeMovements(movements []float64, personCount int) instantAnalysis {
	if len(movements) == 0 {
		return instantAnalysis{reasons: []string{}}
	}

	var sum float64
	highCount := 0
	for _, m := range movements {
		sum += m
		if m > highMovementThreshold {
			highCount++
		}
	}
	avg := sum / float64(len(movements))
	highRatio := float64(highCount) / float64(len(movements))

	score := 0.0
	reasons := []string{}

	switch {
	case avg > 80:
		score += 0.4
		reasons = append(reasons, domain.ReasonExtremeMovement)
	case avg > 50:
		score += 0.3
		reasons = append(reasons, domain.ReasonHighAvgMovement)
	case avg > 30:
		score += 0.2
		reasons = append(reasons, domain.ReasonModerateMovement)
	}

	switch {
	case highRatio > 0.7:
		score += 0.4
		reasons = append(reasons, domain.ReasonMajorityRapid)
	case highRatio > 0.5:
		score += 0.3
		reasons = append(reasons, domain.ReasonSignificantRapid)
	case highRatio > 0.3:
		score += 0.2
		reasons = append(reasons, domain.ReasonSomeRapid)
	}

	if personCount > 10 && avg > 30 {
		score += 0.2
		reasons = append(reasons, domain.ReasonLargeCrowdMovement)
	}

	return instantAnalysis{score: score, reasons: reasons, avgMovement: avg}
}

// analyzeTemporalPattern inspects the last three instant scores for
// escalation, calming, or sustained high movement.
func (d *StampedeDetector) analyzeTemporalPattern() domain.TemporalPattern {
	if len(d.movementHistory) < 3 {
		return domain.TemporalPattern{Trend: domain.TrendInsufficientData}
	}

	recent := d.movementHistory[len(d.movementHistory)-3:]
	s0, s1, s2 := recent[0].score, recent[1].score, recent[2].score

	avg := (s0 + s1 + s2) / 3
	escalating := s2 > s1 && s1 > s0
	calming := s2 < s1 && s1 < s0
	sustained := s0 > 0.3 && s1 > 0.3 && s2 > 0.3

	trend := domain.TrendStable
	switch {
	case escalating:
		trend = domain.TrendEscalating
	case calming:
		trend = domain.TrendCalming
	case sustained:
		trend = domain.TrendSustainedHigh
	}

	return domain.TemporalPattern{
		SustainedMovement: sustained,
		Trend:             trend,
		AvgRecentScore:    domain.Round(avg, 3),
		IsEscalating:      escalating,
		IsCalming:         calming,
	}
}

func combineAnalysis(instant instantAnalysis, temporal domain.TemporalPattern) (float64, []string) {
	score := instant.score
	reasons := append([]string{}, instant.reasons...)

	if temporal.IsEscalating {
		score += 0.2
		reasons = append(reasons, domain.ReasonEscalatingMovement)
	}
	if temporal.SustainedMovement {
		score += 0.15
		reasons = append(reasons, domain.ReasonSustainedMovement)
	}
	if temporal.IsCalming {
		score = max(0, score-0.1)
		reasons = append(reasons, domain.ReasonMovementCalmingDown)
	}

	return min(1.0, score), reasons
}

func stampedeRiskLevel(score float64) domain.RiskLevel {
	switch {
	case score > 0.8:
		return domain.RiskCritical
	case score > 0.6:
		return domain.RiskHigh
	case score > 0.4:
		return domain.RiskMedium
	case score > 0.2:
		return domain.RiskLow
	default:
		return domain.RiskMinimal
	}
}

func stampedeAlertLevel(score float64) string {
	if score > stampedeThreshold {
		return "CRITICAL"
	}
	return "SAFE"
}

func safeStampedeResult() *domain.StampedeResult {
	return &domain.StampedeResult{
		IsStampede: false,
		Score:      0,
		RiskLevel:  domain.RiskMinimal,
		Reasons:    []string{},
		AlertLevel: "SAFE",
		TemporalPattern: domain.TemporalPattern{
			SustainedMovement: false,
			Trend:             domain.TrendNoData,
		},
	}
}

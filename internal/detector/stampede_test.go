package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsafe/vigil/internal/domain"
)

// person builds a 40x40 person detection centered at (cx, cy).
func person(cx, cy float64) domain.Detection {
	return domain.Detection{
		Box:        domain.BoundingBox{X1: cx - 20, Y1: cy - 20, X2: cx + 20, Y2: cy + 20},
		Confidence: 0.9,
		ClassName:  "person",
	}
}

func TestStampedeDetector_FirstFrameIsSafe(t *testing.T) {
	d := NewStampedeDetector()

	got := d.Detect([]domain.Detection{person(100, 100)})

	assert.False(t, got.IsStampede)
	assert.Zero(t, got.Score)
	assert.Equal(t, domain.RiskMinimal, got.RiskLevel)
	assert.Equal(t, "SAFE", got.AlertLevel)
	assert.Equal(t, domain.TrendNoData, got.TemporalPattern.Trend)
	assert.Empty(t, got.Reasons)
}

func TestStampedeDetector_RapidMovement(t *testing.T) {
	d := NewStampedeDetector()
	d.Detect([]domain.Detection{person(100, 100), person(500, 100)})

	// Both persons moved 100px since the previous frame.
	got := d.Detect([]domain.Detection{person(200, 100), person(500, 200)})

	// avg 100 > 80 (+0.4) and every movement > 50px (+0.4).
	assert.True(t, got.IsStampede)
	assert.InDelta(t, 0.8, got.Score, 1e-9)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.Equal(t, "CRITICAL", got.AlertLevel)
	assert.ElementsMatch(t, []string{domain.ReasonExtremeMovement, domain.ReasonMajorityRapid}, got.Reasons)

	assert.Equal(t, 2, got.MovementStats.TotalMovements)
	assert.InDelta(t, 100, got.MovementStats.AverageMovement, 1e-9)
	assert.Equal(t, 2, got.MovementStats.HighMovementCount)
	assert.Equal(t, 2, got.MovementStats.PersonCount)
	assert.Equal(t, domain.TrendInsufficientData, got.TemporalPattern.Trend)
}

func TestStampedeDetector_CalmCrowd(t *testing.T) {
	d := NewStampedeDetector()
	d.Detect([]domain.Detection{person(100, 100), person(300, 300)})

	got := d.Detect([]domain.Detection{person(105, 100), person(302, 305)})

	assert.False(t, got.IsStampede)
	assert.Zero(t, got.Score)
	assert.Equal(t, domain.RiskMinimal, got.RiskLevel)
	assert.Equal(t, "SAFE", got.AlertLevel)
}

// A person displaced beyond the match distance is a new person, not a
// movement.
func TestStampedeDetector_MatchDistanceLimit(t *testing.T) {
	d := NewStampedeDetector()
	d.Detect([]domain.Detection{person(100, 100)})

	got := d.Detect([]domain.Detection{person(450, 100)})

	assert.Zero(t, got.MovementStats.TotalMovements)
	assert.Zero(t, got.Score)
}

func TestStampedeDetector_SustainedMovement(t *testing.T) {
	d := NewStampedeDetector()

	// Persons sprint 100px per frame; each frame pair scores 0.8 instant.
	positions := []float64{100, 200, 300, 400, 500}
	for i, x := range positions[:4] {
		res := d.Detect([]domain.Detection{person(x, 100), person(x, 400)})
		if i == 3 {
			// Third scored frame pair: history is [0.8 0.8 0.8], all
			// above 0.3 and not strictly monotonic.
			assert.Equal(t, domain.TrendSustainedHigh, res.TemporalPattern.Trend)
			assert.True(t, res.TemporalPattern.SustainedMovement)
			assert.InDelta(t, 0.95, res.Score, 1e-9)
			assert.Equal(t, domain.RiskCritical, res.RiskLevel)
			assert.Contains(t, res.Reasons, domain.ReasonSustainedMovement)
		}
	}

	// A fifth frame keeps the pattern sustained.
	res := d.Detect([]domain.Detection{person(positions[4], 100), person(positions[4], 400)})
	assert.True(t, res.IsStampede)
	assert.Contains(t, res.Reasons, domain.ReasonSustainedMovement)
}

func TestStampedeDetector_EscalatingBoost(t *testing.T) {
	d := NewStampedeDetector()

	// Movement grows frame over frame: 0px, then ~35px, then ~60px, then
	// ~100px, producing strictly increasing instant scores.
	xs := []float64{100, 100, 135, 195, 295}
	var last *domain.StampedeResult
	for _, x := range xs {
		last = d.Detect([]domain.Detection{person(x, 100)})
	}

	require.NotNil(t, last)
	assert.Equal(t, domain.TrendEscalating, last.TemporalPattern.Trend)
	assert.True(t, last.TemporalPattern.IsEscalating)
	assert.Contains(t, last.Reasons, domain.ReasonEscalatingMovement)
}

func TestStampedeDetector_Reset(t *testing.T) {
	d := NewStampedeDetector()
	d.Detect([]domain.Detection{person(100, 100)})
	d.Detect([]domain.Detection{person(200, 100)})

	d.Reset()

	got := d.Detect([]domain.Detection{person(500, 500)})
	assert.Equal(t, safeStampedeResult(), got, "post-reset first frame matches a cold start")
}

func TestAnalyzeMovements_LargeCrowdBonus(t *testing.T) {
	// 11 people all moving 40px: avg 40 (+0.2 moderate), no high movers,
	// crowd bonus applies.
	movements := make([]float64, 11)
	for i := range movements {
		movements[i] = 40
	}

	got := analyzeMovements(movements, 11)

	assert.InDelta(t, 0.4, got.score, 1e-9)
	assert.ElementsMatch(t, []string{domain.ReasonModerateMovement, domain.ReasonLargeCrowdMovement}, got.reasons)
}

func TestStampedeRiskLevel(t *testing.T) {
	assert.Equal(t, domain.RiskCritical, stampedeRiskLevel(0.9))
	assert.Equal(t, domain.RiskHigh, stampedeRiskLevel(0.7))
	assert.Equal(t, domain.RiskMedium, stampedeRiskLevel(0.5))
	assert.Equal(t, domain.RiskLow, stampedeRiskLevel(0.3))
	assert.Equal(t, domain.RiskMinimal, stampedeRiskLevel(0.1))
}

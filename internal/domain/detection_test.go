package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox_IoU(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}
	b := BoundingBox{X1: 5, Y1: 5, X2: 15, Y2: 15}
	c := BoundingBox{X1: 20, Y1: 20, X2: 30, Y2: 30}

	t.Run("identity", func(t *testing.T) {
		assert.Equal(t, 1.0, a.IoU(a))
	})

	t.Run("symmetry", func(t *testing.T) {
		assert.Equal(t, a.IoU(b), b.IoU(a))
		assert.Equal(t, a.IoU(c), c.IoU(a))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// intersection 25, union 175
		assert.InDelta(t, 25.0/175.0, a.IoU(b), 1e-9)
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		assert.Equal(t, 0.0, a.IoU(c))
	})

	t.Run("touching edges do not overlap", func(t *testing.T) {
		d := BoundingBox{X1: 10, Y1: 0, X2: 20, Y2: 10}
		assert.Equal(t, 0.0, a.IoU(d))
	})
}

func TestBoundingBox_CenterDistance(t *testing.T) {
	a := BoundingBox{X1: 0, Y1: 0, X2: 10, Y2: 10}   // center (5, 5)
	b := BoundingBox{X1: 30, Y1: 40, X2: 40, Y2: 50} // center (35, 45)

	assert.InDelta(t, 50.0, a.CenterDistance(b), 1e-9)
	assert.Equal(t, a.CenterDistance(b), b.CenterDistance(a))
	assert.Equal(t, 0.0, a.CenterDistance(a))
}

func TestHigherRisk(t *testing.T) {
	tests := []struct {
		a, b, want RiskLevel
	}{
		{RiskSafe, RiskCritical, RiskCritical},
		{RiskCritical, RiskSafe, RiskCritical},
		{RiskLow, RiskModerate, RiskModerate},
		{RiskMedium, RiskMedium, RiskMedium},
		{RiskHigh, RiskMinimal, RiskHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HigherRisk(tt.a, tt.b))
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.1221, Round(0.12207, 4))
	assert.Equal(t, 12.35, Round(12.345678, 2))
	assert.Equal(t, 0.0, Round(0, 3))
}

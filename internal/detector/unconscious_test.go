package detector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsafe/vigil/internal/domain"
)

// kp is a visible keypoint shorthand.
func kp(x, y float64) domain.Keypoint {
	return domain.Keypoint{X: x, Y: y, Confidence: 0.9}
}

func TestScorePose_HorizontalBody(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointLeftShoulder] = kp(100, 200)
	kps[domain.KeypointRightShoulder] = kp(100, 200)
	kps[domain.KeypointLeftHip] = kp(200, 205)
	kps[domain.KeypointRightHip] = kp(200, 205)
	kps[domain.KeypointLeftAnkle] = kp(400, 210)
	kps[domain.KeypointRightAnkle] = kp(400, 210)

	score, poseType, reasons := scorePose(kps)

	assert.InDelta(t, 0.6, score, 1e-9)
	assert.Equal(t, domain.PoseLyingDown, poseType)
	assert.Equal(t, []string{domain.ReasonHorizontalBody}, reasons)
}

func TestScorePose_HeadBelowHips(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointNose] = kp(150, 300)
	kps[domain.KeypointLeftHip] = kp(150, 250)
	kps[domain.KeypointRightHip] = kp(150, 250)

	score, poseType, reasons := scorePose(kps)

	assert.InDelta(t, 0.5, score, 1e-9)
	assert.Equal(t, domain.PoseCollapsed, poseType)
	assert.Equal(t, []string{domain.ReasonHeadBelowHips}, reasons)
}

func TestScorePose_UnnaturalLimb(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointLeftElbow] = kp(100, 100)
	kps[domain.KeypointLeftShoulder] = kp(100, 140)

	score, poseType, reasons := scorePose(kps)

	assert.InDelta(t, 0.3, score, 1e-9)
	assert.Equal(t, domain.PoseStanding, poseType)
	assert.Equal(t, []string{domain.ReasonUnnaturalLimb}, reasons)
}

func TestScorePose_CompletelyFlat(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointNose] = kp(100, 200)
	kps[domain.KeypointLeftShoulder] = kp(150, 205)
	kps[domain.KeypointRightShoulder] = kp(150, 205)
	kps[domain.KeypointLeftHip] = kp(155, 210)
	kps[domain.KeypointRightHip] = kp(155, 210)
	kps[domain.KeypointLeftAnkle] = kp(160, 215)
	kps[domain.KeypointRightAnkle] = kp(160, 215)

	score, poseType, reasons := scorePose(kps)

	assert.InDelta(t, 0.4, score, 1e-9)
	assert.Equal(t, domain.PoseFlatOnGround, poseType)
	assert.Equal(t, []string{domain.ReasonCompletelyFlat}, reasons)
}

func TestScorePose_Standing(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointNose] = kp(200, 100)
	kps[domain.KeypointLeftShoulder] = kp(190, 150)
	kps[domain.KeypointRightShoulder] = kp(210, 150)
	kps[domain.KeypointLeftHip] = kp(195, 250)
	kps[domain.KeypointRightHip] = kp(205, 250)
	kps[domain.KeypointLeftAnkle] = kp(195, 400)
	kps[domain.KeypointRightAnkle] = kp(205, 400)

	score, poseType, reasons := scorePose(kps)

	assert.Zero(t, score)
	assert.Equal(t, domain.PoseStanding, poseType)
	assert.Empty(t, reasons)
}

// A face-down collapse often hides the nose. The flat check still counts
// the nose position, so the pose scores 1.0 (horizontal 0.6 + flat 0.4),
// while head-below-hips stays gated on nose visibility.
func TestScorePose_FlatWithOccludedNose(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointNose] = domain.Keypoint{X: 80, Y: 100, Confidence: 0.2}
	kps[domain.KeypointLeftShoulder] = kp(150, 100)
	kps[domain.KeypointRightShoulder] = kp(150, 100)
	kps[domain.KeypointLeftHip] = kp(250, 100)
	kps[domain.KeypointRightHip] = kp(250, 100)
	kps[domain.KeypointLeftAnkle] = kp(400, 100)
	kps[domain.KeypointRightAnkle] = kp(400, 100)

	score, poseType, reasons := scorePose(kps)

	assert.InDelta(t, 1.0, score, 1e-9)
	assert.Equal(t, domain.PoseFlatOnGround, poseType)
	assert.ElementsMatch(t, []string{domain.ReasonHorizontalBody, domain.ReasonCompletelyFlat}, reasons)
}

// Occluded keypoints skip their heuristics rather than scoring them zero.
func TestScorePose_OccludedKeypointsSkipped(t *testing.T) {
	var kps [domain.PoseKeypointCount]domain.Keypoint
	kps[domain.KeypointNose] = domain.Keypoint{X: 150, Y: 300, Confidence: 0.1}
	kps[domain.KeypointLeftHip] = kp(150, 250)
	kps[domain.KeypointRightHip] = kp(150, 250)

	score, _, reasons := scorePose(kps)

	assert.Zero(t, score)
	assert.Empty(t, reasons)
}

func TestAveragePoint(t *testing.T) {
	got := averagePoint(kp(100, 200), kp(200, 300))
	require.NotNil(t, got)
	assert.InDelta(t, 150, got.X, 1e-9)
	assert.InDelta(t, 250, got.Y, 1e-9)

	// One occluded partner: average degrades to the visible point.
	got = averagePoint(kp(100, 200), domain.Keypoint{X: 900, Y: 900, Confidence: 0.1})
	require.NotNil(t, got)
	assert.InDelta(t, 100, got.X, 1e-9)

	assert.Nil(t, averagePoint(domain.Keypoint{}, domain.Keypoint{}))
}

func TestUnconsciousRiskLevel(t *testing.T) {
	assert.Equal(t, domain.RiskCritical, unconsciousRiskLevel(1.0))
	assert.Equal(t, domain.RiskHigh, unconsciousRiskLevel(0.85))
	assert.Equal(t, domain.RiskMedium, unconsciousRiskLevel(0.7))
	assert.Equal(t, domain.RiskLow, unconsciousRiskLevel(0.5))
}

// poseTensorRow flattens one pose-model row from a keypoint set.
func poseTensorRow(x1, y1, x2, y2, conf float32, kps [domain.PoseKeypointCount]domain.Keypoint) []float32 {
	row := []float32{x1, y1, x2, y2, conf}
	for _, p := range kps {
		row = append(row, float32(p.X), float32(p.Y), float32(p.Confidence))
	}
	return row
}

func poseTensor(t *testing.T, rows [][]float32) ([]float32, []int64) {
	t.Helper()
	require.NotEmpty(t, rows)

	var data []float32
	for _, row := range rows {
		require.Len(t, row, len(rows[0]))
		data = append(data, row...)
	}
	return data, []int64{1, int64(len(rows)), int64(len(rows[0]))}
}

func TestUnconsciousDetector(t *testing.T) {
	// One person lying flat (horizontal + flat heuristics, score 1.0) and
	// one standing upright.
	var lying [domain.PoseKeypointCount]domain.Keypoint
	lying[domain.KeypointNose] = kp(100, 400)
	lying[domain.KeypointLeftShoulder] = kp(150, 405)
	lying[domain.KeypointRightShoulder] = kp(150, 405)
	lying[domain.KeypointLeftHip] = kp(250, 410)
	lying[domain.KeypointRightHip] = kp(250, 410)
	lying[domain.KeypointLeftAnkle] = kp(400, 415)
	lying[domain.KeypointRightAnkle] = kp(400, 415)

	var standing [domain.PoseKeypointCount]domain.Keypoint
	standing[domain.KeypointNose] = kp(500, 100)
	standing[domain.KeypointLeftShoulder] = kp(495, 150)
	standing[domain.KeypointRightShoulder] = kp(505, 150)
	standing[domain.KeypointLeftHip] = kp(495, 250)
	standing[domain.KeypointRightHip] = kp(505, 250)
	standing[domain.KeypointLeftAnkle] = kp(495, 400)
	standing[domain.KeypointRightAnkle] = kp(505, 400)

	data, dims := poseTensor(t, [][]float32{
		poseTensorRow(80, 380, 420, 440, 0.9, lying),
		poseTensorRow(470, 80, 530, 420, 0.85, standing),
	})
	d := NewUnconsciousDetector(&fakeRunner{data: data, dims: dims})

	got, err := d.Detect(context.Background(), blankInput(640, 640))
	require.NoError(t, err)

	assert.Equal(t, 2, got.TotalPersons)
	assert.Equal(t, 1, got.UnconsciousCount)
	assert.Equal(t, "EMERGENCY", got.OverallRisk)
	assert.Equal(t, domain.RiskMedium, got.AlertLevel)

	require.Len(t, got.UnconsciousPersons, 1)
	p := got.UnconsciousPersons[0]
	assert.InDelta(t, 1.0, p.Score, 1e-6)
	assert.Equal(t, domain.RiskCritical, p.RiskLevel)
	assert.Equal(t, domain.PoseFlatOnGround, p.PoseType)
	assert.ElementsMatch(t, []string{domain.ReasonHorizontalBody, domain.ReasonCompletelyFlat}, p.Reasons)

	require.Len(t, got.EmergencyAlerts, 1)
	assert.Equal(t, "UNCONSCIOUS_PERSON_DETECTED", got.EmergencyAlerts[0].Type)
	assert.Equal(t, domain.RiskCritical, got.EmergencyAlerts[0].Severity)
}

func TestUnconsciousDetector_AllSafe(t *testing.T) {
	var standing [domain.PoseKeypointCount]domain.Keypoint
	standing[domain.KeypointNose] = kp(200, 100)
	standing[domain.KeypointLeftShoulder] = kp(195, 150)
	standing[domain.KeypointRightShoulder] = kp(205, 150)
	standing[domain.KeypointLeftHip] = kp(195, 250)
	standing[domain.KeypointRightHip] = kp(205, 250)
	standing[domain.KeypointLeftAnkle] = kp(195, 400)
	standing[domain.KeypointRightAnkle] = kp(205, 400)

	data, dims := poseTensor(t, [][]float32{
		poseTensorRow(170, 80, 230, 420, 0.9, standing),
	})
	d := NewUnconsciousDetector(&fakeRunner{data: data, dims: dims})

	got, err := d.Detect(context.Background(), blankInput(640, 640))
	require.NoError(t, err)

	assert.Equal(t, 1, got.TotalPersons)
	assert.Zero(t, got.UnconsciousCount)
	assert.Equal(t, "SAFE", got.OverallRisk)
	assert.Equal(t, domain.RiskLow, got.AlertLevel)
	assert.Empty(t, got.EmergencyAlerts)
}

package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilsafe/vigil/internal/domain"
)

// poseRow builds one pose-model output row: box corners, confidence, then 17
// keypoints at the given coordinates and keypoint confidence.
func poseRow(x1, y1, x2, y2, conf, kpConf float32) []float32 {
	row := []float32{x1, y1, x2, y2, conf}
	for j := 0; j < domain.PoseKeypointCount; j++ {
		row = append(row, x1+float32(j), y1+float32(j), kpConf)
	}
	return row
}

func buildPoseOutput(t *testing.T, rows [][]float32) ([]float32, []int64) {
	t.Helper()
	require.NotEmpty(t, rows)

	features := len(rows[0])
	data := make([]float32, 0, len(rows)*features)
	for _, row := range rows {
		require.Len(t, row, features)
		data = append(data, row...)
	}
	return data, []int64{1, int64(len(rows)), int64(features)}
}

func TestDecodePoses(t *testing.T) {
	data, dims := buildPoseOutput(t, [][]float32{
		poseRow(100, 100, 200, 300, 0.9, 0.8),
		poseRow(400, 100, 500, 300, 0.4, 0.8), // below confidence threshold
	})

	got := DecodePoses(data, dims, 0.6, 0.3)
	require.Len(t, got, 1)

	assert.InDelta(t, 0.9, got[0].Confidence, 1e-6)
	assert.Equal(t, "person", got[0].ClassName)
	assert.InDelta(t, 100, got[0].Box.X1, 1e-4)
	assert.InDelta(t, 300, got[0].Box.Y2, 1e-4)
	assert.InDelta(t, 100, got[0].Keypoints[domain.KeypointNose].X, 1e-4)
	assert.InDelta(t, 0.8, got[0].Keypoints[domain.KeypointLeftAnkle].Confidence, 1e-6)
}

func TestDecodePoses_TooFewVisibleKeypoints(t *testing.T) {
	// Keypoint confidence below the visibility cutoff on every keypoint.
	data, dims := buildPoseOutput(t, [][]float32{
		poseRow(100, 100, 200, 300, 0.9, 0.1),
	})

	assert.Empty(t, DecodePoses(data, dims, 0.6, 0.3))
}

func TestDecodePoses_DegenerateBox(t *testing.T) {
	data, dims := buildPoseOutput(t, [][]float32{
		poseRow(200, 100, 100, 300, 0.9, 0.8), // x2 < x1
	})

	assert.Empty(t, DecodePoses(data, dims, 0.6, 0.3))
}

func TestDecodePoses_NMS(t *testing.T) {
	data, dims := buildPoseOutput(t, [][]float32{
		poseRow(100, 100, 200, 300, 0.8, 0.8),
		poseRow(105, 102, 205, 302, 0.95, 0.8), // near-duplicate, higher confidence
	})

	got := DecodePoses(data, dims, 0.6, 0.3)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.95, got[0].Confidence, 1e-6)
}

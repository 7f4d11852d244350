package vision

import (
	"sort"

	"github.com/vigilsafe/vigil/internal/domain"
)

const (
	// poseFeatures is the per-detection feature width of the pose model:
	// 4 box corners + 1 confidence + 17 keypoints x (x, y, confidence).
	poseFeatures = 5 + domain.PoseKeypointCount*3

	// KeypointConfThreshold is the per-keypoint visibility cutoff; keypoints
	// below it contribute no information to the pose heuristics.
	KeypointConfThreshold = 0.3

	// minValidKeypoints is the minimum number of visible keypoints for a
	// pose detection to be usable at all.
	minValidKeypoints = 5
)

// DecodePoses converts the raw pose-model output tensor, shaped
// [batch, numDetections, 56], into typed pose detections. Boxes arrive as
// corner coordinates with a single objectness confidence; detections below
// confThreshold, with a degenerate box, or with fewer than five visible
// keypoints are dropped, and the survivors are deduplicated with box-IoU NMS.
func DecodePoses(data []float32, dims []int64, confThreshold, iouThreshold float64) []domain.PoseDetection {
	if len(dims) != 3 {
		return nil
	}
	numDetections := int(dims[1])
	features := int(dims[2])
	if features < poseFeatures || len(data) < numDetections*features {
		return nil
	}

	var candidates []domain.PoseDetection
	for i := 0; i < numDetections; i++ {
		base := i * features

		box := domain.BoundingBox{
			X1: float64(data[base+0]),
			Y1: float64(data[base+1]),
			X2: float64(data[base+2]),
			Y2: float64(data[base+3]),
		}
		conf := float64(data[base+4])

		if conf <= confThreshold || box.X2 <= box.X1 || box.Y2 <= box.Y1 {
			continue
		}

		var keypoints [domain.PoseKeypointCount]domain.Keypoint
		valid := 0
		for j := 0; j < domain.PoseKeypointCount; j++ {
			k := base + 5 + j*3
			keypoints[j] = domain.Keypoint{
				X:          float64(data[k]),
				Y:          float64(data[k+1]),
				Confidence: float64(data[k+2]),
			}
			if keypoints[j].Confidence > KeypointConfThreshold {
				valid++
			}
		}
		if valid < minValidKeypoints {
			continue
		}

		candidates = append(candidates, domain.PoseDetection{
			Detection: domain.Detection{
				Box:        box,
				Confidence: conf,
				ClassName:  "person",
			},
			Keypoints: keypoints,
		})
	}

	return nmsPoses(candidates, iouThreshold)
}

func nmsPoses(poses []domain.PoseDetection, iouThreshold float64) []domain.PoseDetection {
	if len(poses) == 0 {
		return poses
	}

	order := make([]int, len(poses))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return poses[order[a]].Confidence > poses[order[b]].Confidence
	})

	boxes := make([]domain.BoundingBox, len(poses))
	for i, p := range poses {
		boxes[i] = p.Box
	}

	kept := nmsKeep(boxes, order, iouThreshold)
	out := make([]domain.PoseDetection, 0, len(kept))
	for _, i := range kept {
		out = append(out, poses[i])
	}
	return out
}

package vision

import (
	"sort"

	"github.com/vigilsafe/vigil/internal/domain"
)

// DecodeDetections converts a raw detection-model output tensor into typed
// detections in original-image pixel coordinates, then deduplicates them
// with greedy NMS.
//
// The raw tensor shape is [batch, channels, numBoxes] with channels = 4 box
// values (center-x, center-y, width, height in model-input pixel space)
// followed by one score per class. Per box, confidence is the maximum class
// score and the class is its argmax; boxes at or below confThreshold are
// dropped before NMS.
func DecodeDetections(data []float32, dims []int64, origWidth, origHeight int, classes []string, confThreshold, iouThreshold float64) []domain.Detection {
	if len(dims) != 3 {
		return nil
	}
	channels := int(dims[1])
	numBoxes := int(dims[2])
	if channels < 5 || len(data) < channels*numBoxes {
		return nil
	}

	scaleX := float64(origWidth) / InputSize
	scaleY := float64(origHeight) / InputSize

	var candidates []domain.Detection
	for i := 0; i < numBoxes; i++ {
		// Tensor is channel-major: value for channel j of box i sits at
		// j*numBoxes + i.
		classID, conf := 0, float64(0)
		for j := 4; j < channels; j++ {
			if score := float64(data[j*numBoxes+i]); score > conf {
				conf = score
				classID = j - 4
			}
		}
		if conf <= confThreshold || classID >= len(classes) {
			continue
		}

		cx := float64(data[0*numBoxes+i])
		cy := float64(data[1*numBoxes+i])
		w := float64(data[2*numBoxes+i])
		h := float64(data[3*numBoxes+i])

		candidates = append(candidates, domain.Detection{
			Box: domain.BoundingBox{
				X1: (cx - w/2) * scaleX,
				Y1: (cy - h/2) * scaleY,
				X2: (cx + w/2) * scaleX,
				Y2: (cy + h/2) * scaleY,
			},
			Confidence: conf,
			ClassName:  classes[classID],
		})
	}

	return NonMaxSuppression(candidates, iouThreshold)
}

// NonMaxSuppression keeps only the highest-confidence box among mutually
// overlapping detections: sort by confidence descending, repeatedly keep the
// best remaining box and discard any unkept box whose IoU with it exceeds
// the threshold.
func NonMaxSuppression(detections []domain.Detection, iouThreshold float64) []domain.Detection {
	if len(detections) == 0 {
		return detections
	}

	order := make([]int, len(detections))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return detections[order[a]].Confidence > detections[order[b]].Confidence
	})

	boxes := make([]domain.BoundingBox, len(detections))
	for i, d := range detections {
		boxes[i] = d.Box
	}

	kept := nmsKeep(boxes, order, iouThreshold)
	out := make([]domain.Detection, 0, len(kept))
	for _, i := range kept {
		out = append(out, detections[i])
	}
	return out
}

// nmsKeep runs the greedy suppression loop over boxes visited in the given
// order and returns the kept indices, in visit order.
func nmsKeep(boxes []domain.BoundingBox, order []int, iouThreshold float64) []int {
	suppressed := make([]bool, len(boxes))
	var kept []int

	for a, i := range order {
		if suppressed[i] {
			continue
		}
		kept = append(kept, i)

		for _, j := range order[a+1:] {
			if suppressed[j] {
				continue
			}
			if boxes[i].IoU(boxes[j]) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

package domain

import "math"

// BoundingBox is an axis-aligned box in original-image pixel coordinates.
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

func (b BoundingBox) Area() float64 {
	return b.Width() * b.Height()
}

// Center returns the box midpoint.
func (b BoundingBox) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// CenterDistance is the Euclidean distance between two box centers.
func (b BoundingBox) CenterDistance(other BoundingBox) float64 {
	x1, y1 := b.Center()
	x2, y2 := other.Center()
	return math.Hypot(x1-x2, y1-y2)
}

// IoU computes intersection-over-union with another box. Non-overlapping
// boxes yield 0.
func (b BoundingBox) IoU(other BoundingBox) float64 {
	xi1 := math.Max(b.X1, other.X1)
	yi1 := math.Max(b.Y1, other.Y1)
	xi2 := math.Min(b.X2, other.X2)
	yi2 := math.Min(b.Y2, other.Y2)

	if xi2 <= xi1 || yi2 <= yi1 {
		return 0
	}

	inter := (xi2 - xi1) * (yi2 - yi1)
	union := b.Area() + other.Area() - inter
	return inter / union
}

// Detection is one detected object instance in a frame.
type Detection struct {
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	ClassName  string      `json:"class_name"`
}

// Keypoint is one pose keypoint with its own confidence.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// PoseKeypointCount is the keypoint layout of the pose model (COCO order).
const PoseKeypointCount = 17

// Keypoint indices into PoseDetection.Keypoints.
const (
	KeypointNose = iota
	KeypointLeftEye
	KeypointRightEye
	KeypointLeftEar
	KeypointRightEar
	KeypointLeftShoulder
	KeypointRightShoulder
	KeypointLeftElbow
	KeypointRightElbow
	KeypointLeftWrist
	KeypointRightWrist
	KeypointLeftHip
	KeypointRightHip
	KeypointLeftKnee
	KeypointRightKnee
	KeypointLeftAnkle
	KeypointRightAnkle
)

// PoseDetection extends Detection with the pose model's keypoints.
type PoseDetection struct {
	Detection
	Keypoints [PoseKeypointCount]Keypoint `json:"keypoints"`
}

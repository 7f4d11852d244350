package domain

import (
	"time"

	"github.com/google/uuid"
)

// CameraProfile holds the static mounting geometry of one fixed CCTV camera.
// Profiles are set at registration time and never mutated by the analysis
// core; coverage is always derived from them on demand.
type CameraProfile struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Location       string    `json:"location,omitempty"`
	MountingHeight float64   `json:"mounting_height"` // meters, > 0
	VerticalFOV    float64   `json:"vertical_fov"`    // degrees, (0, 180)
	HorizontalFOV  float64   `json:"horizontal_fov"`  // degrees, (0, 180)
	Tilt           float64   `json:"tilt"`            // degrees below horizontal, [-90, 90]
	StreamURL      string    `json:"stream_url,omitempty"`
	VideoFileURL   string    `json:"video_file_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *CameraProfile) Validate() error {
	if p.Name == "" {
		return ErrValidationFailed
	}
	if p.MountingHeight <= 0 {
		return ErrInvalidGeometry
	}
	if p.VerticalFOV <= 0 || p.VerticalFOV >= 180 {
		return ErrInvalidGeometry
	}
	if p.HorizontalFOV <= 0 || p.HorizontalFOV >= 180 {
		return ErrInvalidGeometry
	}
	if p.Tilt < -90 || p.Tilt > 90 {
		return ErrInvalidGeometry
	}
	return nil
}

// HasVideoSource reports whether the camera has anything to analyze.
func (p *CameraProfile) HasVideoSource() bool {
	return p.StreamURL != "" || p.VideoFileURL != ""
}

// CoverageArea is the ground trapezoid a camera observes, derived from its
// mounting geometry. Distances and widths are meters, Area is square meters.
// Degenerate geometry yields a zero area, which is valid output.
type CoverageArea struct {
	NearDistance float64 `json:"near_distance"` // d1
	FarDistance  float64 `json:"far_distance"`  // d2, >= d1
	NearWidth    float64 `json:"near_width"`    // w1
	FarWidth     float64 `json:"far_width"`     // w2
	Area         float64 `json:"area"`
}

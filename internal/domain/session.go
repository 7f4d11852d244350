package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session status values.
const (
	SessionStatusRunning   = "running"
	SessionStatusCompleted = "completed"
	SessionStatusFailed    = "failed"
)

// AnalysisSession is one processing run over a camera's frame sequence.
type AnalysisSession struct {
	ID              uuid.UUID             `json:"id"`
	CameraID        uuid.UUID             `json:"camera_id"`
	SourceLocator   string                `json:"source_locator"`
	IntervalSeconds float64               `json:"interval_seconds"`
	Status          string                `json:"status"`
	Coverage        CoverageArea          `json:"coverage"`
	Summary         *SessionSummary       `json:"summary,omitempty"`
	Frames          []FrameAnalysisResult `json:"frames,omitempty"`
	StartedAt       time.Time             `json:"started_at"`
	CompletedAt     *time.Time            `json:"completed_at,omitempty"`
}

// CrowdSafetySummary aggregates crowd figures across a session.
type CrowdSafetySummary struct {
	OvercrowdedFrames    int     `json:"overcrowded_frames"`
	HighDensityFrames    int     `json:"high_density_frames"`
	MaxDensityPercentage float64 `json:"max_density_percentage"`
	AvgDensityPercentage float64 `json:"avg_density_percentage"`
}

// UnconsciousSafetySummary aggregates unconscious-person figures.
type UnconsciousSafetySummary struct {
	FramesWithUnconscious int `json:"frames_with_unconscious_persons"`
	TotalUnconsciousCount int `json:"total_unconscious_detected"`
	MaxUnconsciousInFrame int `json:"max_unconscious_in_frame"`
}

// StampedeSafetySummary aggregates stampede figures.
type StampedeSafetySummary struct {
	StampedeFrames   int     `json:"stampede_detected_frames"`
	HighMotionFrames int     `json:"high_motion_frames"`
	AvgStampedeScore float64 `json:"avg_stampede_score"`
}

// OverallSafetySummary is the session-level risk rollup.
type OverallSafetySummary struct {
	CriticalFrames          int       `json:"critical_frames"`
	HighRiskFrames          int       `json:"high_risk_frames"`
	ImmediateResponseFrames int       `json:"immediate_response_frames"`
	OverallRiskLevel        RiskLevel `json:"overall_risk_level"`
}

// SessionSummary aggregates per-frame results into one report.
type SessionSummary struct {
	TotalFrames           int                      `json:"total_frames"`
	ProcessedFrames       int                      `json:"processed_frames"`
	ErroredFrames         int                      `json:"errored_frames"`
	FireDetectedFrames    int                      `json:"fire_detected_frames"`
	HighFireRiskFrames    int                      `json:"high_fire_risk_frames"`
	AveragePeoplePerFrame float64                  `json:"average_people_per_frame"`
	OverallFireRisk       string                   `json:"overall_fire_risk"` // DETECTED or SAFE
	CrowdSafety           CrowdSafetySummary       `json:"crowd_safety"`
	UnconsciousSafety     UnconsciousSafetySummary `json:"unconscious_safety"`
	StampedeSafety        StampedeSafetySummary    `json:"stampede_safety"`
	OverallSafety         OverallSafetySummary     `json:"overall_safety"`
}

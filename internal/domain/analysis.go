package domain

import "math"

// Round truncates v to the given number of decimal places. Detector outputs
// are rounded to a fixed precision so downstream consumers see stable values.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// FireResult is the fire detector output for one frame.
type FireResult struct {
	Intensity    float64   `json:"intensity"`
	FireDetected bool      `json:"fire_detected"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

// CrowdResult is the crowd-density detector output for one frame.
//
// TotalPersonArea is a raw sum of person box areas: overlapping boxes are
// double-counted. This is a known approximation carried over from the
// reference pipeline, not a bug.
type CrowdResult struct {
	PersonCount       int       `json:"person_count"`
	TotalPersonArea   float64   `json:"total_person_area"`
	AreaCoverageRatio float64   `json:"area_coverage_ratio"`
	OccupiedRealArea  float64   `json:"occupied_real_area"`
	DensityPercentage float64   `json:"density_percentage"`
	CoverageArea      float64   `json:"coverage_area"`
	IsOvercrowded     bool      `json:"is_overcrowded"`
	DensityLevel      RiskLevel `json:"density_level"`

	// Detections feeds the stampede detector's frame-to-frame matching; it
	// is not part of the serialized frame result.
	Detections []Detection `json:"-"`
}

// Pose classifications assigned by the unconsciousness heuristics.
const (
	PoseStanding     = "STANDING"
	PoseLyingDown    = "LYING_DOWN"
	PoseCollapsed    = "COLLAPSED"
	PoseFlatOnGround = "FLAT_ON_GROUND"
)

// Unconsciousness heuristic reasons.
const (
	ReasonHorizontalBody = "HORIZONTAL_BODY_POSITION"
	ReasonHeadBelowHips  = "HEAD_BELOW_HIPS"
	ReasonUnnaturalLimb  = "UNNATURAL_LIMB_POSITION"
	ReasonCompletelyFlat = "COMPLETELY_FLAT_POSITION"
)

// UnconsciousPerson is one person scored above the unconsciousness threshold.
type UnconsciousPerson struct {
	PersonID   int         `json:"person_id"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	Score      float64     `json:"unconscious_score"`
	PoseType   string      `json:"pose_type"`
	RiskLevel  RiskLevel   `json:"risk_level"`
	Reasons    []string    `json:"reasons"`
}

// EmergencyAlert mirrors one unconscious-person finding for alert consumers.
type EmergencyAlert struct {
	Type       string      `json:"type"`
	Severity   RiskLevel   `json:"severity"`
	Confidence float64     `json:"confidence"`
	PoseType   string      `json:"pose_type"`
	Reasons    []string    `json:"reasons"`
	Box        BoundingBox `json:"box"`
}

// UnconsciousResult is the pose-based unconsciousness detector output.
// Only the single highest-scoring person is reported per frame; the cap
// keeps alert noise down and is a deliberate product decision.
type UnconsciousResult struct {
	TotalPersons       int                 `json:"total_persons"`
	UnconsciousCount   int                 `json:"unconscious_count"`
	UnconsciousPersons []UnconsciousPerson `json:"unconscious_persons"`
	OverallRisk        string              `json:"overall_risk"` // EMERGENCY or SAFE
	AlertLevel         RiskLevel           `json:"alert_level"`
	EmergencyAlerts    []EmergencyAlert    `json:"emergency_alerts"`
}

// Stampede movement reasons.
const (
	ReasonExtremeMovement     = "EXTREMELY_HIGH_MOVEMENT"
	ReasonHighAvgMovement     = "HIGH_AVERAGE_MOVEMENT"
	ReasonModerateMovement    = "MODERATE_MOVEMENT"
	ReasonMajorityRapid       = "MAJORITY_RAPID_MOVEMENT"
	ReasonSignificantRapid    = "SIGNIFICANT_RAPID_MOVEMENT"
	ReasonSomeRapid           = "SOME_RAPID_MOVEMENT"
	ReasonLargeCrowdMovement  = "LARGE_CROWD_WITH_MOVEMENT"
	ReasonEscalatingMovement  = "ESCALATING_MOVEMENT_PATTERN"
	ReasonSustainedMovement   = "SUSTAINED_HIGH_MOVEMENT"
	ReasonMovementCalmingDown = "MOVEMENT_CALMING_DOWN"
)

// Temporal movement trends.
const (
	TrendNoData           = "NO_DATA"
	TrendInsufficientData = "INSUFFICIENT_DATA"
	TrendStable           = "STABLE"
	TrendEscalating       = "ESCALATING"
	TrendCalming          = "CALMING"
	TrendSustainedHigh    = "SUSTAINED_HIGH"
)

// MovementStats summarizes frame-to-frame person movement.
type MovementStats struct {
	TotalMovements    int     `json:"total_movements"`
	AverageMovement   float64 `json:"average_movement"`
	HighMovementCount int     `json:"high_movement_count"`
	PersonCount       int     `json:"person_count"`
}

// TemporalPattern is the rolling-history trend analysis.
type TemporalPattern struct {
	SustainedMovement bool    `json:"sustained_movement"`
	Trend             string  `json:"trend"`
	AvgRecentScore    float64 `json:"avg_recent_score,omitempty"`
	IsEscalating      bool    `json:"is_escalating,omitempty"`
	IsCalming         bool    `json:"is_calming,omitempty"`
}

// StampedeResult is the stateful movement detector output for one frame.
type StampedeResult struct {
	IsStampede      bool            `json:"is_stampede"`
	Score           float64         `json:"stampede_score"`
	RiskLevel       RiskLevel       `json:"risk_level"`
	Reasons         []string        `json:"reasons"`
	AlertLevel      string          `json:"alert_level"` // CRITICAL or SAFE
	MovementStats   MovementStats   `json:"movement_stats"`
	TemporalPattern TemporalPattern `json:"temporal_pattern"`
}

// Threat is one entry in the fused threat list.
type Threat struct {
	Type        string    `json:"type"`
	Severity    RiskLevel `json:"severity"`
	Description string    `json:"description"`
	Score       float64   `json:"score"`
}

// OverallRisk is the fused risk assessment for one frame.
type OverallRisk struct {
	Level           RiskLevel `json:"level"`
	Description     string    `json:"description"`
	ImmediateAction string    `json:"immediate_action"`
	Threats         []Threat  `json:"threats"`
	RiskScore       float64   `json:"risk_score"`
}

// EmergencyPriority is the 5-tier classification, level 1 most severe.
type EmergencyPriority struct {
	Level          int    `json:"level"`
	Classification string `json:"classification"`
	Description    string `json:"description"`
	ResponseTime   string `json:"response_time"`
}

// FrameAnalysisResult aggregates every detector output for one frame. It is
// created once per processed frame and immutable after creation. A frame
// that could not be analyzed carries Error and nil detector results;
// consumers must never conflate it with "no threat detected".
type FrameAnalysisResult struct {
	FrameID           int                `json:"frame_id"`
	Timestamp         float64            `json:"timestamp"`
	Fire              *FireResult        `json:"fire_detection,omitempty"`
	Crowd             *CrowdResult       `json:"crowd_detection,omitempty"`
	Unconscious       *UnconsciousResult `json:"unconscious_detection,omitempty"`
	Stampede          *StampedeResult    `json:"stampede_detection,omitempty"`
	OverallRisk       *OverallRisk       `json:"overall_risk,omitempty"`
	EmergencyPriority *EmergencyPriority `json:"emergency_priority,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// Errored reports whether the frame failed analysis.
func (r *FrameAnalysisResult) Errored() bool {
	return r.Error != ""
}

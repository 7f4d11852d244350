package domain

// RiskLevel is the ordered severity scale shared by all detectors and the
// fusion engine. SAFE is a valid outcome, not an error state.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskMinimal  RiskLevel = "MINIMAL"
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

var riskOrder = map[RiskLevel]int{
	RiskSafe:     0,
	RiskMinimal:  1,
	RiskLow:      2,
	RiskModerate: 3,
	RiskMedium:   4,
	RiskHigh:     5,
	RiskCritical: 6,
}

// HigherRisk returns whichever of the two levels ranks higher on the scale.
func HigherRisk(a, b RiskLevel) RiskLevel {
	if riskOrder[b] > riskOrder[a] {
		return b
	}
	return a
}

// Threat types produced by the fusion engine.
const (
	ThreatStampede     = "STAMPEDE"
	ThreatUnconscious  = "UNCONSCIOUS_PERSON"
	ThreatOvercrowding = "OVERCROWDING"
)

// Immediate actions, most to least urgent.
const (
	ActionEmergencyEvacuation = "EMERGENCY_EVACUATION_REQUIRED"
	ActionCrowdControl        = "CROWD_CONTROL_REQUIRED"
	ActionMedicalAssistance   = "MEDICAL_ASSISTANCE_REQUIRED"
	ActionMonitorCrowd        = "MONITOR_CLOSELY_MANAGE_CROWD"
	ActionContinueMonitoring  = "CONTINUE_MONITORING"
)

// Emergency priority classifications, level 1 (most severe) to 5.
const (
	PriorityCriticalEmergency = "CRITICAL_EMERGENCY"
	PriorityHighEmergency     = "HIGH_EMERGENCY"
	PriorityMediumEmergency   = "MEDIUM_EMERGENCY"
	PriorityLow               = "LOW_PRIORITY"
	PriorityNormal            = "NORMAL"
)

// Emergency response time directives.
const (
	ResponseImmediate = "IMMEDIATE"
	ResponseUrgent    = "URGENT"
	ResponseStandard  = "STANDARD"
	ResponseRoutine   = "ROUTINE"
)

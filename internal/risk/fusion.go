// Package risk combines the individual detector outputs into one overall
// assessment plus a 5-tier emergency priority. Fusion is a pure function of
// its three inputs.
package risk

import (
	"fmt"
	"strings"

	"github.com/vigilsafe/vigil/internal/domain"
)

// Unconscious persons always rank as a severe threat regardless of the pose
// score that produced them.
const unconsciousThreatScore = 0.9

// Fuse merges the crowd, unconscious and stampede results for one frame.
// Fire is reported alongside but does not participate in threat fusion; the
// assessment covers crowd dynamics and casualties.
func Fuse(crowd *domain.CrowdResult, unconscious *domain.UnconsciousResult, stampede *domain.StampedeResult) (*domain.OverallRisk, *domain.EmergencyPriority) {
	var threats []domain.Threat
	maxLevel := domain.RiskSafe

	if stampede.IsStampede {
		threats = append(threats, domain.Threat{
			Type:        domain.ThreatStampede,
			Severity:    stampede.RiskLevel,
			Description: "Dangerous crowd movement patterns detected",
			Score:       stampede.Score,
		})
		maxLevel = domain.HigherRisk(maxLevel, domain.RiskCritical)
	}

	if unconscious.UnconsciousCount > 0 {
		threats = append(threats, domain.Threat{
			Type:        domain.ThreatUnconscious,
			Severity:    unconscious.AlertLevel,
			Description: fmt.Sprintf("%d unconscious person(s) detected", unconscious.UnconsciousCount),
			Score:       unconsciousThreatScore,
		})
		maxLevel = domain.HigherRisk(maxLevel, domain.RiskHigh)
	}

	if crowd.IsOvercrowded {
		threats = append(threats, domain.Threat{
			Type:        domain.ThreatOvercrowding,
			Severity:    crowd.DensityLevel,
			Description: fmt.Sprintf("Overcrowded area: %.2f%% density", crowd.DensityPercentage),
			Score:       crowd.DensityPercentage / 100,
		})
		maxLevel = domain.HigherRisk(maxLevel, crowd.DensityLevel)
	}

	level := domain.RiskSafe
	action := domain.ActionContinueMonitoring
	description := "Normal conditions detected"

	switch len(threats) {
	case 0:
	case 1:
		level = maxLevel
		description = threats[0].Description
	default:
		// Multiple concurrent threats always escalate, whatever their
		// individual severities.
		level = domain.RiskCritical
		types := make([]string, len(threats))
		for i, t := range threats {
			types[i] = t.Type
		}
		description = "Multiple threats detected: " + strings.Join(types, ", ")
	}

	switch {
	case stampede.IsStampede && crowd.IsOvercrowded:
		action = domain.ActionEmergencyEvacuation
		level = domain.RiskCritical
		description = "CRITICAL: Stampede in overcrowded area"
	case stampede.IsStampede:
		action = domain.ActionCrowdControl
	case unconscious.UnconsciousCount > 0:
		action = domain.ActionMedicalAssistance
	case crowd.IsOvercrowded:
		action = domain.ActionMonitorCrowd
	}

	var riskScore float64
	for _, t := range threats {
		if t.Score > riskScore {
			riskScore = t.Score
		}
	}

	overall := &domain.OverallRisk{
		Level:           level,
		Description:     description,
		ImmediateAction: action,
		Threats:         threats,
		RiskScore:       riskScore,
	}

	return overall, classifyPriority(crowd, unconscious, stampede)
}

// classifyPriority is the strict-order 5-tier triage: first match wins.
func classifyPriority(crowd *domain.CrowdResult, unconscious *domain.UnconsciousResult, stampede *domain.StampedeResult) *domain.EmergencyPriority {
	switch {
	case stampede.IsStampede && unconscious.UnconsciousCount > 0:
		return &domain.EmergencyPriority{
			Level:          1,
			Classification: domain.PriorityCriticalEmergency,
			Description:    "Stampede with unconscious persons - Multiple casualties likely",
			ResponseTime:   domain.ResponseImmediate,
		}
	case stampede.IsStampede && crowd.DensityPercentage > 25:
		return &domain.EmergencyPriority{
			Level:          2,
			Classification: domain.PriorityHighEmergency,
			Description:    "Stampede in high-density crowd - High casualty risk",
			ResponseTime:   domain.ResponseImmediate,
		}
	case unconscious.UnconsciousCount > 0:
		return &domain.EmergencyPriority{
			Level:          3,
			Classification: domain.PriorityMediumEmergency,
			Description:    "Medical emergency detected",
			ResponseTime:   domain.ResponseUrgent,
		}
	case stampede.IsStampede:
		return &domain.EmergencyPriority{
			Level:          3,
			Classification: domain.PriorityMediumEmergency,
			Description:    "Crowd movement emergency",
			ResponseTime:   domain.ResponseUrgent,
		}
	case crowd.IsOvercrowded:
		return &domain.EmergencyPriority{
			Level:          4,
			Classification: domain.PriorityLow,
			Description:    "Overcrowding detected - Monitor for escalation",
			ResponseTime:   domain.ResponseStandard,
		}
	default:
		return &domain.EmergencyPriority{
			Level:          5,
			Classification: domain.PriorityNormal,
			Description:    "No immediate threats detected",
			ResponseTime:   domain.ResponseRoutine,
		}
	}
}

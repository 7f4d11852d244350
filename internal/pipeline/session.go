package pipeline

import (
	"context"
	"errors"
	"io"

	"github.com/vigilsafe/vigil/internal/domain"
)

// RunOptions tunes one session run.
type RunOptions struct {
	// MaxFrames caps how many frames are pulled from the source; 0 means
	// unlimited. The cap is caller policy, not detection logic.
	MaxFrames int

	// OnFrame, when set, observes each frame result as it is produced
	// (live streaming). It runs on the session goroutine.
	OnFrame func(*domain.FrameAnalysisResult)
}

// Run drains the frame source through the analyzer and aggregates a session
// summary. Per-frame failures are recorded as errored frames; only context
// cancellation or a source failure aborts the run.
func Run(ctx context.Context, src FrameSource, analyzer *Analyzer, opts RunOptions) ([]domain.FrameAnalysisResult, *domain.SessionSummary, error) {
	var results []domain.FrameAnalysisResult

	for opts.MaxFrames == 0 || len(results) < opts.MaxFrames {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return results, nil, err
		}

		result := analyzer.AnalyzeFrame(ctx, frame)
		results = append(results, *result)

		if opts.OnFrame != nil {
			opts.OnFrame(result)
		}
	}

	return results, Summarize(results), nil
}

// Summarize rolls per-frame results into a session report. Errored frames
// count toward totals but contribute nothing to the threat statistics.
func Summarize(results []domain.FrameAnalysisResult) *domain.SessionSummary {
	s := &domain.SessionSummary{TotalFrames: len(results)}
	if len(results) == 0 {
		s.OverallFireRisk = "SAFE"
		s.OverallSafety.OverallRiskLevel = domain.RiskLow
		return s
	}

	var (
		totalPeople      int
		sumDensity       float64
		sumStampedeScore float64

		overcrowdedFrames int
		unconsciousFrames int
		stampedeFrames    int
	)

	for _, r := range results {
		if r.Errored() {
			s.ErroredFrames++
			continue
		}
		s.ProcessedFrames++

		if r.Fire != nil {
			if r.Fire.FireDetected {
				s.FireDetectedFrames++
			}
			if r.Fire.RiskLevel == domain.RiskHigh {
				s.HighFireRiskFrames++
			}
		}

		if r.Crowd != nil {
			totalPeople += r.Crowd.PersonCount
			sumDensity += r.Crowd.DensityPercentage
			if r.Crowd.DensityPercentage > s.CrowdSafety.MaxDensityPercentage {
				s.CrowdSafety.MaxDensityPercentage = r.Crowd.DensityPercentage
			}
			if r.Crowd.IsOvercrowded {
				overcrowdedFrames++
			}
			if r.Crowd.DensityLevel == domain.RiskHigh {
				s.CrowdSafety.HighDensityFrames++
			}
		}

		if r.Unconscious != nil && r.Unconscious.UnconsciousCount > 0 {
			unconsciousFrames++
			s.UnconsciousSafety.TotalUnconsciousCount += r.Unconscious.UnconsciousCount
			if r.Unconscious.UnconsciousCount > s.UnconsciousSafety.MaxUnconsciousInFrame {
				s.UnconsciousSafety.MaxUnconsciousInFrame = r.Unconscious.UnconsciousCount
			}
		}

		if r.Stampede != nil {
			sumStampedeScore += r.Stampede.Score
			if r.Stampede.IsStampede {
				stampedeFrames++
			}
			if r.Stampede.RiskLevel == domain.RiskHigh {
				s.StampedeSafety.HighMotionFrames++
			}
		}

		if r.OverallRisk != nil {
			switch r.OverallRisk.Level {
			case domain.RiskCritical:
				s.OverallSafety.CriticalFrames++
			case domain.RiskHigh:
				s.OverallSafety.HighRiskFrames++
			}
		}
		if r.EmergencyPriority != nil && r.EmergencyPriority.ResponseTime == domain.ResponseImmediate {
			s.OverallSafety.ImmediateResponseFrames++
		}
	}

	total := float64(len(results))
	s.AveragePeoplePerFrame = domain.Round(float64(totalPeople)/total, 1)
	s.CrowdSafety.OvercrowdedFrames = overcrowdedFrames
	s.CrowdSafety.AvgDensityPercentage = domain.Round(sumDensity/total, 1)
	s.UnconsciousSafety.FramesWithUnconscious = unconsciousFrames
	s.StampedeSafety.StampedeFrames = stampedeFrames
	s.StampedeSafety.AvgStampedeScore = domain.Round(sumStampedeScore/total, 3)

	s.OverallFireRisk = "SAFE"
	if s.FireDetectedFrames > 0 {
		s.OverallFireRisk = "DETECTED"
	}

	anyThreat := s.FireDetectedFrames > 0 || overcrowdedFrames > 0 ||
		unconsciousFrames > 0 || stampedeFrames > 0
	switch {
	case s.OverallSafety.CriticalFrames > 0:
		s.OverallSafety.OverallRiskLevel = domain.RiskCritical
	case s.OverallSafety.HighRiskFrames > 0:
		s.OverallSafety.OverallRiskLevel = domain.RiskHigh
	case anyThreat:
		s.OverallSafety.OverallRiskLevel = domain.RiskModerate
	default:
		s.OverallSafety.OverallRiskLevel = domain.RiskLow
	}

	return s
}

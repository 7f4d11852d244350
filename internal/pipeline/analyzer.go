package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vigilsafe/vigil/internal/detector"
	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/risk"
	"github.com/vigilsafe/vigil/internal/vision"
)

// Analyzer runs every detector over single frames for one camera session.
// It owns a stateful stampede detector, so one Analyzer serves exactly one
// session; construct a fresh one per session.
type Analyzer struct {
	fire        *detector.FireDetector
	crowd       *detector.CrowdDetector
	unconscious *detector.UnconsciousDetector
	stampede    *detector.StampedeDetector

	coverageArea float64
	log          *slog.Logger
}

// NewAnalyzer wires the detectors to the loaded model registry. coverageArea
// is the camera's derived ground coverage in square meters.
func NewAnalyzer(models *inference.Registry, coverageArea float64, log *slog.Logger) *Analyzer {
	return &Analyzer{
		fire:         detector.NewFireDetector(models.Fire),
		crowd:        detector.NewCrowdDetector(models.Person),
		unconscious:  detector.NewUnconsciousDetector(models.Pose),
		stampede:     detector.NewStampedeDetector(),
		coverageArea: coverageArea,
		log:          log,
	}
}

// AnalyzeFrame processes one frame end to end. Errors are recorded on the
// returned result, never propagated: a frame that cannot be analyzed must
// not abort the session, and must not feed the stampede history.
func (a *Analyzer) AnalyzeFrame(ctx context.Context, frame *Frame) *domain.FrameAnalysisResult {
	result := &domain.FrameAnalysisResult{
		FrameID:   frame.Index,
		Timestamp: frame.Timestamp,
	}

	input, err := vision.Preprocess(frame.Data)
	if err != nil {
		a.log.Warn("frame preprocessing failed", "frame", frame.Index, "error", err)
		result.Error = err.Error()
		return result
	}

	// Fire, crowd and pose inference are independent reads of the same
	// input; run them concurrently.
	var (
		wg          sync.WaitGroup
		fire        *domain.FireResult
		crowd       *domain.CrowdResult
		unconscious *domain.UnconsciousResult

		fireErr, crowdErr, poseErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fire, fireErr = a.fire.Detect(ctx, input)
	}()
	go func() {
		defer wg.Done()
		crowd, crowdErr = a.crowd.Detect(ctx, input, a.coverageArea)
	}()
	go func() {
		defer wg.Done()
		unconscious, poseErr = a.unconscious.Detect(ctx, input)
	}()
	wg.Wait()

	for _, err := range []error{fireErr, crowdErr, poseErr} {
		if err != nil {
			a.log.Warn("frame analysis failed", "frame", frame.Index, "error", err)
			result.Error = err.Error()
			return result
		}
	}

	stampede := a.stampede.Detect(crowd.Detections)
	overall, priority := risk.Fuse(crowd, unconscious, stampede)

	result.Fire = fire
	result.Crowd = crowd
	result.Unconscious = unconscious
	result.Stampede = stampede
	result.OverallRisk = overall
	result.EmergencyPriority = priority
	return result
}

// Reset clears per-session detector state so the analyzer could serve a new
// independent frame sequence.
func (a *Analyzer) Reset() {
	a.stampede.Reset()
}

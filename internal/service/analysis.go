package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/alert"
	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/geometry"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/pipeline"
	"github.com/vigilsafe/vigil/internal/ws"
)

type SessionRepositoryInterface interface {
	Create(ctx context.Context, session *domain.AnalysisSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error)
	ListByCamera(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error)
	Complete(ctx context.Context, session *domain.AnalysisSession) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

// SourceFactory opens a frame source for a locator. Locators are camera
// video file URLs or paths to directories of pre-extracted frames.
type SourceFactory interface {
	Open(ctx context.Context, locator string, intervalSeconds float64) (pipeline.FrameSource, error)
}

// Broadcaster pushes live events to websocket subscribers.
type Broadcaster interface {
	BroadcastToCamera(cameraID uuid.UUID, eventType ws.EventType, data interface{})
}

// AlertNotifier delivers emergency webhooks.
type AlertNotifier interface {
	GetWebhooksByEvent(ctx context.Context, cameraID uuid.UUID, eventType string) ([]*alert.Webhook, error)
	Send(ctx context.Context, webhook *alert.Webhook, event alert.EventPayload) error
}

// AnalyzeRequest starts one session. Source falls back to the camera's
// registered video file, then stream URL. Interval and MaxFrames fall back
// to the service defaults.
type AnalyzeRequest struct {
	CameraID  uuid.UUID
	Source    string
	Interval  float64
	MaxFrames int
}

// AnalysisService runs full analysis sessions: load camera, derive
// coverage, walk the frame source through a fresh analyzer, persist the
// outcome and fan out live events and emergency alerts along the way.
type AnalysisService struct {
	cameraRepo  CameraRepositoryInterface
	sessionRepo SessionRepositoryInterface
	models      *inference.Registry
	sources     SourceFactory
	hub         Broadcaster
	engine      *alert.Engine
	notifier    AlertNotifier
	logger      *slog.Logger

	defaultInterval float64
	defaultFrameCap int
}

func NewAnalysisService(
	cameraRepo CameraRepositoryInterface,
	sessionRepo SessionRepositoryInterface,
	models *inference.Registry,
	sources SourceFactory,
	hub Broadcaster,
	engine *alert.Engine,
	notifier AlertNotifier,
	logger *slog.Logger,
	defaultInterval float64,
	defaultFrameCap int,
) *AnalysisService {
	return &AnalysisService{
		cameraRepo:      cameraRepo,
		sessionRepo:     sessionRepo,
		models:          models,
		sources:         sources,
		hub:             hub,
		engine:          engine,
		notifier:        notifier,
		logger:          logger,
		defaultInterval: defaultInterval,
		defaultFrameCap: defaultFrameCap,
	}
}

func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisSession, error) {
	camera, err := s.cameraRepo.GetByID(ctx, req.CameraID)
	if err != nil {
		return nil, err
	}

	locator := req.Source
	if locator == "" {
		locator = camera.VideoFileURL
	}
	if locator == "" {
		locator = camera.StreamURL
	}
	if locator == "" {
		return nil, domain.ErrNoVideoSource
	}

	interval := req.Interval
	if interval <= 0 {
		interval = s.defaultInterval
	}
	frameCap := req.MaxFrames
	if frameCap <= 0 {
		frameCap = s.defaultFrameCap
	}

	session := &domain.AnalysisSession{
		CameraID:        camera.ID,
		SourceLocator:   locator,
		IntervalSeconds: interval,
		Coverage:        geometry.CoverageForProfile(camera),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	log := s.logger.With(
		slog.String("camera_id", camera.ID.String()),
		slog.String("session_id", session.ID.String()),
	)
	log.Info("analysis session started",
		slog.String("source", locator),
		slog.Float64("interval_seconds", interval),
		slog.Float64("coverage_area", session.Coverage.Area),
	)
	s.hub.BroadcastToCamera(camera.ID, ws.EventSessionStarted, session)

	src, err := s.sources.Open(ctx, locator, interval)
	if err != nil {
		s.failSession(session.ID, log)
		return nil, fmt.Errorf("open frame source: %w", err)
	}
	defer func() { _ = src.Close() }()

	analyzer := pipeline.NewAnalyzer(s.models, session.Coverage.Area, log)

	results, summary, err := pipeline.Run(ctx, src, analyzer, pipeline.RunOptions{
		MaxFrames: frameCap,
		OnFrame: func(result *domain.FrameAnalysisResult) {
			s.publishFrame(ctx, camera.ID, session.ID, result)
		},
	})
	if err != nil {
		s.failSession(session.ID, log)
		return nil, fmt.Errorf("run analysis session: %w", err)
	}

	session.Summary = summary
	session.Frames = results
	if err := s.sessionRepo.Complete(ctx, session); err != nil {
		return nil, err
	}

	log.Info("analysis session completed",
		slog.Int("total_frames", summary.TotalFrames),
		slog.Int("errored_frames", summary.ErroredFrames),
		slog.String("overall_risk", string(summary.OverallSafety.OverallRiskLevel)),
	)
	s.hub.BroadcastToCamera(camera.ID, ws.EventSessionCompleted, summary)
	s.dispatchWebhooks(ctx, camera.ID, session.ID, alert.EventSessionCompleted, summary)

	return session, nil
}

func (s *AnalysisService) GetSession(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error) {
	return s.sessionRepo.GetByID(ctx, id)
}

func (s *AnalysisService) ListSessions(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error) {
	return s.sessionRepo.ListByCamera(ctx, cameraID, limit)
}

// publishFrame streams the frame result and, for priority 1-2 frames past
// the cooldown, fires the emergency fan-out.
func (s *AnalysisService) publishFrame(ctx context.Context, cameraID, sessionID uuid.UUID, result *domain.FrameAnalysisResult) {
	s.hub.BroadcastToCamera(cameraID, ws.EventFrameAnalyzed, result)

	if !s.engine.ShouldNotify(cameraID, result.EmergencyPriority, time.Now()) {
		return
	}

	s.logger.Warn("emergency detected",
		slog.String("camera_id", cameraID.String()),
		slog.Int("frame", result.FrameID),
		slog.Int("priority_level", result.EmergencyPriority.Level),
		slog.String("classification", result.EmergencyPriority.Classification),
	)

	s.hub.BroadcastToCamera(cameraID, ws.EventEmergencyDetected, result)
	s.dispatchWebhooks(ctx, cameraID, sessionID, alert.EventEmergencyDetected, result)
}

func (s *AnalysisService) dispatchWebhooks(ctx context.Context, cameraID, sessionID uuid.UUID, eventType string, data interface{}) {
	webhooks, err := s.notifier.GetWebhooksByEvent(ctx, cameraID, eventType)
	if err != nil {
		s.logger.Error("failed to load webhooks", "event", eventType, "error", err)
		return
	}

	event := alert.EventPayload{
		Type:      eventType,
		Data:      data,
		CameraID:  cameraID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}

	for _, webhook := range webhooks {
		if err := s.notifier.Send(ctx, webhook, event); err != nil {
			s.logger.Error("webhook delivery failed",
				"webhook_id", webhook.ID,
				"event", eventType,
				"error", err,
			)
		}
	}
}

// failSession runs on a fresh context, the session context may already be
// cancelled when the failure is recorded.
func (s *AnalysisService) failSession(id uuid.UUID, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.sessionRepo.MarkFailed(ctx, id); err != nil {
		log.Error("failed to mark session failed", "error", err)
	}
}

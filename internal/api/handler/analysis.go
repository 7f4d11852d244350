package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/domain"
	"github.com/vigilsafe/vigil/internal/service"
)

// AnalysisService interface for the service
type AnalysisService interface {
	Analyze(ctx context.Context, req service.AnalyzeRequest) (*domain.AnalysisSession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.AnalysisSession, error)
	ListSessions(ctx context.Context, cameraID uuid.UUID, limit int) ([]domain.AnalysisSession, error)
}

// AnalysisHandler handles analysis session requests
type AnalysisHandler struct {
	service AnalysisService
	logger  *slog.Logger
}

func NewAnalysisHandler(service AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// AnalyzeRequest is the analysis start payload. All fields are optional,
// the camera's registered source and the configured defaults apply.
type AnalyzeRequest struct {
	Source          string  `json:"source"`
	IntervalSeconds float64 `json:"interval_seconds"`
	MaxFrames       int     `json:"max_frames"`
}

// Analyze POST /v1/cameras/:id/analyze - run a full analysis session
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req AnalyzeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.ErrBadRequest.WithError(err)
		}
	}

	session, err := h.service.Analyze(c.Context(), service.AnalyzeRequest{
		CameraID:  id,
		Source:    req.Source,
		Interval:  req.IntervalSeconds,
		MaxFrames: req.MaxFrames,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(session)
}

// GetSession GET /v1/sessions/:id
func (h *AnalysisHandler) GetSession(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	session, err := h.service.GetSession(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// ListSessions GET /v1/cameras/:id/sessions
func (h *AnalysisHandler) ListSessions(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	sessions, err := h.service.ListSessions(c.Context(), id, c.QueryInt("limit"))
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []domain.AnalysisSession{}
	}

	return c.JSON(sessions)
}

package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/domain"
)

// CameraService interface for the service
type CameraService interface {
	Register(ctx context.Context, camera *domain.CameraProfile) error
	Get(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, error)
	List(ctx context.Context) ([]domain.CameraProfile, error)
	Update(ctx context.Context, camera *domain.CameraProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	Coverage(ctx context.Context, id uuid.UUID) (*domain.CameraProfile, domain.CoverageArea, error)
}

// CameraHandler handles camera profile requests
type CameraHandler struct {
	service CameraService
	logger  *slog.Logger
}

func NewCameraHandler(service CameraService, logger *slog.Logger) *CameraHandler {
	return &CameraHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterCameraRequest is the camera registration payload
type RegisterCameraRequest struct {
	Name           string  `json:"name"`
	Location       string  `json:"location"`
	MountingHeight float64 `json:"mounting_height"`
	VerticalFOV    float64 `json:"vertical_fov"`
	HorizontalFOV  float64 `json:"horizontal_fov"`
	Tilt           float64 `json:"tilt"`
	StreamURL      string  `json:"stream_url"`
	VideoFileURL   string  `json:"video_file_url"`
}

// CoverageResponse pairs a camera with its derived ground coverage
type CoverageResponse struct {
	CameraID uuid.UUID           `json:"camera_id"`
	Coverage domain.CoverageArea `json:"coverage"`
}

// Register POST /v1/cameras - register a camera with its mounting geometry
func (h *CameraHandler) Register(c *fiber.Ctx) error {
	var req RegisterCameraRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	camera := &domain.CameraProfile{
		Name:           req.Name,
		Location:       req.Location,
		MountingHeight: req.MountingHeight,
		VerticalFOV:    req.VerticalFOV,
		HorizontalFOV:  req.HorizontalFOV,
		Tilt:           req.Tilt,
		StreamURL:      req.StreamURL,
		VideoFileURL:   req.VideoFileURL,
	}

	if err := h.service.Register(c.Context(), camera); err != nil {
		return err
	}

	h.logger.Info("camera registered",
		slog.String("camera_id", camera.ID.String()),
		slog.String("name", camera.Name),
	)

	return c.Status(fiber.StatusCreated).JSON(camera)
}

// Get GET /v1/cameras/:id
func (h *CameraHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	camera, err := h.service.Get(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(camera)
}

// List GET /v1/cameras
func (h *CameraHandler) List(c *fiber.Ctx) error {
	cameras, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	if cameras == nil {
		cameras = []domain.CameraProfile{}
	}

	return c.JSON(cameras)
}

// Update PUT /v1/cameras/:id - replace a camera's mounting geometry
func (h *CameraHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req RegisterCameraRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	camera := &domain.CameraProfile{
		ID:             id,
		Name:           req.Name,
		Location:       req.Location,
		MountingHeight: req.MountingHeight,
		VerticalFOV:    req.VerticalFOV,
		HorizontalFOV:  req.HorizontalFOV,
		Tilt:           req.Tilt,
		StreamURL:      req.StreamURL,
		VideoFileURL:   req.VideoFileURL,
	}

	if err := h.service.Update(c.Context(), camera); err != nil {
		return err
	}

	return c.JSON(camera)
}

// Delete DELETE /v1/cameras/:id
func (h *CameraHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Coverage GET /v1/cameras/:id/coverage - derived ground coverage area
func (h *CameraHandler) Coverage(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	camera, coverage, err := h.service.Coverage(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(CoverageResponse{
		CameraID: camera.ID,
		Coverage: coverage,
	})
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, domain.ErrValidationFailed.WithError(errors.New("invalid id"))
	}
	return id, nil
}

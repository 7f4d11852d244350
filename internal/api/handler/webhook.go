package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/vigilsafe/vigil/internal/alert"
	"github.com/vigilsafe/vigil/internal/domain"
)

// WebhookService interface for the alert service
type WebhookService interface {
	ListWebhooks(ctx context.Context) ([]*alert.Webhook, error)
	CreateWebhook(ctx context.Context, webhook *alert.Webhook) error
	DeleteWebhook(ctx context.Context, webhookID uuid.UUID) error
}

// WebhookHandler manages webhook subscriptions
type WebhookHandler struct {
	service WebhookService
	logger  *slog.Logger
}

func NewWebhookHandler(service WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		logger:  logger,
	}
}

// CreateWebhookRequest is the subscription payload. CameraID left empty
// subscribes the endpoint to events from every camera.
type CreateWebhookRequest struct {
	CameraID *uuid.UUID `json:"camera_id"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	Secret   string     `json:"secret"`
	Events   []string   `json:"events"`
}

// List GET /v1/webhooks
func (h *WebhookHandler) List(c *fiber.Ctx) error {
	webhooks, err := h.service.ListWebhooks(c.Context())
	if err != nil {
		return err
	}

	if webhooks == nil {
		webhooks = []*alert.Webhook{}
	}

	return c.JSON(fiber.Map{
		"webhooks": webhooks,
		"total":    len(webhooks),
	})
}

// Create POST /v1/webhooks
func (h *WebhookHandler) Create(c *fiber.Ctx) error {
	var req CreateWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}

	if req.Name == "" || req.URL == "" || req.Secret == "" {
		return domain.ErrValidationFailed.WithError(errors.New("name, url and secret are required"))
	}
	if len(req.Events) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("at least one event is required"))
	}

	webhook := &alert.Webhook{
		CameraID: req.CameraID,
		Name:     req.Name,
		URL:      req.URL,
		Secret:   req.Secret,
		Events:   req.Events,
		Enabled:  true,
	}

	if err := h.service.CreateWebhook(c.Context(), webhook); err != nil {
		return err
	}

	h.logger.Info("webhook created",
		slog.String("webhook_id", webhook.ID.String()),
		slog.String("url", webhook.URL),
	)

	return c.Status(fiber.StatusCreated).JSON(webhook)
}

// Delete DELETE /v1/webhooks/:id
func (h *WebhookHandler) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("invalid webhook id"))
	}

	if err := h.service.DeleteWebhook(c.Context(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vigilsafe/vigil/internal/alert"
	"github.com/vigilsafe/vigil/internal/api/handler"
	"github.com/vigilsafe/vigil/internal/api/middleware"
	"github.com/vigilsafe/vigil/internal/inference"
	"github.com/vigilsafe/vigil/internal/repository"
	"github.com/vigilsafe/vigil/internal/service"
	"github.com/vigilsafe/vigil/internal/ws"
)

type Dependencies struct {
	CameraRepo  *repository.CameraRepository
	SessionRepo *repository.SessionRepository
	Models      *inference.Registry
	DB          *pgxpool.Pool

	SampleInterval float64
	FrameCap       int
	AlertCooldown  time.Duration
}

type Router struct {
	app          *fiber.App
	logger       *slog.Logger
	deps         *Dependencies
	wsHub        *ws.Hub
	alertWorker  *alert.Worker
	cancelWorker context.CancelFunc
	cancelHub    context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Vigil API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Health check endpoints
	var pinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		pinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	// Only configure the full surface if dependencies were provided
	if r.deps != nil {
		// WebSocket hub fans analysis events out to live viewers
		r.wsHub = ws.NewHub()
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.wsHub.Run(hubCtx)

		// Webhook delivery: synchronous send with a queue-backed retry worker
		alertService := alert.NewService(r.deps.DB)
		r.alertWorker = alert.NewWorker(r.deps.DB, alertService, r.logger)

		workerCtx, workerCancel := context.WithCancel(context.Background())
		r.cancelWorker = workerCancel
		go r.alertWorker.Run(workerCtx)

		cameraService := service.NewCameraService(r.deps.CameraRepo)

		analysisService := service.NewAnalysisService(
			r.deps.CameraRepo,
			r.deps.SessionRepo,
			r.deps.Models,
			service.LocalSourceFactory{},
			r.wsHub,
			alert.NewEngine(r.deps.AlertCooldown),
			alertService,
			r.logger,
			r.deps.SampleInterval,
			r.deps.FrameCap,
		)

		cameraHandler := handler.NewCameraHandler(cameraService, r.logger)
		analysisHandler := handler.NewAnalysisHandler(analysisService, r.logger)
		webhookHandler := handler.NewWebhookHandler(alertService, r.logger)

		// Camera routes
		v1.Post("/cameras", cameraHandler.Register)
		v1.Get("/cameras", cameraHandler.List)
		v1.Get("/cameras/:id", cameraHandler.Get)
		v1.Put("/cameras/:id", cameraHandler.Update)
		v1.Delete("/cameras/:id", cameraHandler.Delete)
		v1.Get("/cameras/:id/coverage", cameraHandler.Coverage)

		// Analysis routes
		v1.Post("/cameras/:id/analyze", analysisHandler.Analyze)
		v1.Get("/cameras/:id/sessions", analysisHandler.ListSessions)
		v1.Get("/sessions/:id", analysisHandler.GetSession)

		// Live event stream per camera
		v1.Get("/cameras/:id/live", ws.UpgradeMiddleware(), ws.Handler(r.wsHub))

		// Webhook subscription routes
		v1.Get("/webhooks", webhookHandler.List)
		v1.Post("/webhooks", webhookHandler.Create)
		v1.Delete("/webhooks/:id", webhookHandler.Delete)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop webhook retry worker
	if r.cancelWorker != nil {
		r.cancelWorker()
	}

	return r.app.Shutdown()
}

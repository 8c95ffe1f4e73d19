// Package router assembles the fiber application.
package router

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/developia-II/feedback-analyzer-backend/internal/apperr"
	"github.com/developia-II/feedback-analyzer-backend/internal/handlers"
	"github.com/developia-II/feedback-analyzer-backend/internal/ratelimit"
	"github.com/developia-II/feedback-analyzer-backend/utils"
)

type Options struct {
	FrontendURL string
	// GlobalRateLimit caps requests per client per minute across all
	// routes. Zero disables it.
	GlobalRateLimit int
	AccessLog       bool
	Logger          *slog.Logger
}

func New(h *handlers.Handler, opts Options) *fiber.App {
	if opts.FrontendURL == "" {
		opts.FrontendURL = "*"
	}

	app := fiber.New(fiber.Config{
		AppName:      "feedback-analyzer",
		ErrorHandler: handlers.ErrorHandler(opts.Logger),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: utils.RequestIDKey,
	}))
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  opts.FrontendURL,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: handlers.RefreshHeader + ", " + fiber.HeaderXRequestID,
	}))
	if opts.GlobalRateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.GlobalRateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				switch c.Path() {
				case "/health", "/ready", "/metrics":
					return true
				}
				return false
			},
			LimitReached: func(c *fiber.Ctx) error {
				h.Metrics.RateLimited("global")
				return apperr.New(apperr.KindRateLimited, "Rate limit exceeded")
			},
		}))
	}
	app.Use(h.RefreshMiddleware)

	// Probes
	app.Get("/", handlers.Welcome)
	app.Get("/health", handlers.Health)
	app.Get("/ready", h.Ready)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics.Registry, promhttp.HandlerOpts{
			Registry: h.Metrics.Registry,
		})))
	}

	// Auth
	authGroup := app.Group("/auth")
	authGroup.Post("/token", h.Token)
	authGroup.Post("/change-password", h.RequireAdmin, h.ChangePassword)

	api := app.Group("/api")

	// Analysis
	api.Post("/translate", h.Limit("translate", ratelimit.TranslateLimit, ratelimit.TranslateWindow), h.Translate)
	api.Post("/feedback", h.Limit("feedback", ratelimit.FeedbackLimit, ratelimit.FeedbackWindow), h.SubmitFeedback)

	// Feedback administration; /feedback/all must precede /feedback/:id
	api.Get("/feedback", h.RequireAdmin, h.GetAllFeedback)
	api.Delete("/feedback", h.RequireAdmin, h.DeleteFeedbackBulk)
	api.Delete("/feedback/all", h.RequireAdmin, h.DeleteAllFeedback)
	api.Delete("/feedback/:id", h.RequireAdmin, h.DeleteFeedback)
	api.Get("/stats", h.RequireAdmin, h.GetStats)

	// Products
	api.Get("/products", h.GetProducts)
	api.Post("/products", h.RequireAdmin, h.CreateProduct)
	api.Delete("/products/:id", h.RequireAdmin, h.DeleteProduct)

	// Models
	api.Get("/models", h.RequireAdmin, h.GetModels)
	api.Get("/models/current", h.RequireAdmin, h.GetCurrentModel)
	api.Post("/models/current", h.RequireAdmin, h.SetCurrentModel)

	return app
}

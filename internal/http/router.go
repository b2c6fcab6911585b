// Package http exposes the management API: sitemap CRUD, record export,
// and scrape run control.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scrapemap/internal/config"
	"scrapemap/internal/metrics"
	"scrapemap/internal/runs"
	"scrapemap/internal/scrape"
	"scrapemap/internal/store"
)

type Server struct {
	app    *fiber.App
	config *config.Config
	store  *store.Store
	logger *slog.Logger
}

func NewServer(cfg *config.Config, st *store.Store, mgr *runs.Manager, fetcher scrape.Fetcher, logger *slog.Logger) *Server {
	app := fiber.New()

	// Inject shared dependencies into context for handlers
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("config", cfg)
		c.Locals("store", st)
		c.Locals("runs", mgr)
		c.Locals("fetcher", fetcher)
		return c.Next()
	})

	// Request logging + metrics middleware
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		// Ensure a request ID exists
		reqID := c.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Locals("request_id", reqID)
		if logger != nil {
			c.Locals("logger", logger)
		}

		err := c.Next()

		latency := time.Since(start)
		status := c.Response().StatusCode()
		method := c.Method()
		path := c.Path()

		metrics.RecordRequest(method, path, status, latency.Milliseconds())

		if logger != nil {
			logger.Info("request",
				"request_id", reqID,
				"method", method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}

		return err
	})

	// Redis client for rate limiting and health checks
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
			rdb = redis.NewClient(opt)
		}
	}

	// Health endpoints
	app.Get("/healthz", func(c *fiber.Ctx) error {
		// Shallow health: process is up
		if c.Query("deep") != "true" {
			return c.JSON(fiber.Map{"status": "ok"})
		}

		// Deep health: check DB and Redis connectivity.
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := st.DB.PingContext(ctx); err != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisStatus = "error"
			} else {
				redisStatus = "ok"
			}
		}

		status := "ok"
		if dbStatus != "ok" || redisStatus == "error" {
			status = "error"
		}

		return c.JSON(fiber.Map{
			"status": status,
			"db":     dbStatus,
			"redis":  redisStatus,
		})
	})

	// Prometheus-style metrics endpoint
	app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Type("text/plain")
		return c.SendString(metrics.Export())
	})

	var rateMw fiber.Handler
	if rdb != nil {
		rateMw = rateLimitMiddleware(cfg, rdb)
	} else {
		rateMw = func(c *fiber.Ctx) error { return c.Next() }
	}

	v1 := app.Group("/v1", rateMw)
	registerV1Routes(v1)

	return &Server{
		app:    app,
		config: cfg,
		store:  st,
		logger: logger,
	}
}

func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	return s.app.Listen(addr)
}

func registerV1Routes(group fiber.Router) {
	group.Get("/sitemaps", listSitemapsHandler)
	group.Get("/sitemaps/:id", getSitemapHandler)
	group.Put("/sitemaps/:id", putSitemapHandler)
	group.Delete("/sitemaps/:id", deleteSitemapHandler)
	group.Get("/sitemaps/:id/records", recordsHandler)
	group.Post("/sitemaps/:id/scrape", scrapeHandler)
	group.Get("/runs/:id", runStatusHandler)
}

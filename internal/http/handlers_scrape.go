package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"scrapemap/internal/config"
	"scrapemap/internal/runs"
	"scrapemap/internal/scrape"
	"scrapemap/internal/store"
)

// scrapeHandler starts an asynchronous scrape run for a sitemap. Existing
// records for the sitemap are cleared before the run begins.
func scrapeHandler(c *fiber.Ctx) error {
	cfg := c.Locals("config").(*config.Config)
	st := c.Locals("store").(*store.Store)
	mgr := c.Locals("runs").(*runs.Manager)
	fetcher := c.Locals("fetcher").(scrape.Fetcher)

	id := c.Params("id")
	m, err := st.GetSitemap(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   err.Error(),
		})
	}

	run := mgr.NewRun(id)
	// The run outlives the request; it gets its own context.
	mgr.Start(context.Background(), run, m, st, fetcher, scrape.Options{
		RequestInterval: time.Duration(cfg.Scraper.RequestIntervalMs) * time.Millisecond,
		PageloadDelay:   time.Duration(cfg.Scraper.PageloadDelayMs) * time.Millisecond,
	})

	protocol := c.Protocol()
	host := c.Hostname()

	return c.Status(http.StatusOK).JSON(RunResponse{
		Success:   true,
		ID:        run.ID,
		SitemapID: run.SitemapID,
		Status:    string(runs.StatusPending),
		URL:       protocol + "://" + host + "/v1/runs/" + run.ID,
		CreatedAt: run.CreatedAt,
	})
}

func runStatusHandler(c *fiber.Ctx) error {
	mgr := c.Locals("runs").(*runs.Manager)

	run, ok := mgr.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "run not found",
		})
	}

	return c.JSON(RunResponse{
		Success:     true,
		ID:          run.ID,
		SitemapID:   run.SitemapID,
		Status:      string(run.Status),
		CreatedAt:   run.CreatedAt,
		CompletedAt: run.CompletedAt,
		Error:       run.Error,
	})
}

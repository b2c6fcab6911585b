package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"scrapemap/internal/sitemap"
	"scrapemap/internal/store"
)

func listSitemapsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	ids, err := st.ListSitemaps(c.Context())
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "SITEMAP_LIST_FAILED",
			Error:   err.Error(),
		})
	}
	if ids == nil {
		ids = []string{}
	}

	return c.JSON(SitemapListResponse{Success: true, Sitemaps: ids})
}

func getSitemapHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	m, err := st.GetSitemap(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   err.Error(),
		})
	}

	return c.JSON(m)
}

func putSitemapHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	m, err := sitemap.Parse(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	// The path is authoritative for the id.
	m.ID = c.Params("id")

	if err := st.SaveSitemap(c.Context(), m); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "SITEMAP_SAVE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "id": m.ID})
}

func deleteSitemapHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)

	if err := st.DeleteSitemap(c.Context(), c.Params("id")); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "SITEMAP_DELETE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

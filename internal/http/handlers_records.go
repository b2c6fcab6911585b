package http

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"scrapemap/internal/export"
	"scrapemap/internal/selector"
	"scrapemap/internal/store"
)

// recordsHandler returns a sitemap's records. The default format is a JSON
// envelope; format=csv and format=markdown stream the raw export instead.
func recordsHandler(c *fiber.Ctx) error {
	st := c.Locals("store").(*store.Store)
	id := c.Params("id")

	m, err := st.GetSitemap(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   err.Error(),
		})
	}

	records, err := st.ListRecords(c.Context(), id)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "RECORD_LIST_FAILED",
			Error:   err.Error(),
		})
	}

	name := c.Query("format", "json")
	if name == "json" {
		if records == nil {
			records = []selector.Record{}
		}
		return c.JSON(RecordsResponse{
			Success: true,
			Columns: m.Columns(),
			Records: records,
		})
	}

	format, err := export.ParseFormat(name)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   err.Error(),
		})
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, m, records); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "EXPORT_FAILED",
			Error:   err.Error(),
		})
	}

	switch format {
	case export.FormatCSV:
		c.Type("csv")
	default:
		c.Type("text/plain")
	}
	return c.Send(buf.Bytes())
}

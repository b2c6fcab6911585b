// Package export renders scraped records in the supported output formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	htmlmd "github.com/JohannesKaufmann/html-to-markdown"

	"scrapemap/internal/selector"
	"scrapemap/internal/sitemap"
)

// Format represents a logical output format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unsupported format %q; allowed formats are: json, csv, markdown", name)
}

// Write renders records to w in the given format. Column order follows the
// sitemap's column tuple.
func Write(w io.Writer, format Format, m *sitemap.Sitemap, records []selector.Record) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, records)
	case FormatCSV:
		return writeCSV(w, m, records)
	case FormatMarkdown:
		return writeMarkdown(w, m, records)
	}
	return fmt.Errorf("unsupported format %q", format)
}

// writeJSON emits one JSON object per line, in record order.
func writeJSON(w io.Writer, records []selector.Record) error {
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, m *sitemap.Sitemap, records []selector.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(m.CSVRows(records)); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// writeMarkdown renders a markdown table. Cells produced by HTML selectors
// are converted from HTML to markdown; everything else is pipe-escaped.
func writeMarkdown(w io.Writer, m *sitemap.Sitemap, records []selector.Record) error {
	converter := htmlmd.NewConverter("", true, nil)
	htmlCols := make(map[string]bool)
	for _, s := range m.Selectors() {
		if s.Kind == selector.KindHTML {
			htmlCols[s.ID] = true
		}
	}

	rows := m.CSVRows(records)
	if len(rows) == 0 {
		return nil
	}
	headers := rows[0]

	var b strings.Builder
	writeMarkdownRow(&b, headers)
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	for _, row := range rows[1:] {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i < len(headers) && htmlCols[headers[i]] && cell != "" {
				if md, err := converter.ConvertString(cell); err == nil {
					cell = md
				}
			}
			cells[i] = cell
		}
		writeMarkdownRow(&b, cells)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, cell := range cells {
		cell = strings.ReplaceAll(cell, "|", "\\|")
		cell = strings.ReplaceAll(cell, "\n", "<br>")
		b.WriteString(" " + cell + " |")
	}
	b.WriteString("\n")
}

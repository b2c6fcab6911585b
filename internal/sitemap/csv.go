package sitemap

import (
	"encoding/json"

	"scrapemap/internal/selector"
)

// CSVRows renders records as CSV rows: the header is the sitemap's column
// tuple in declaration order, and non-string cells are JSON-encoded.
// Columns a record does not carry come out empty.
func (m *Sitemap) CSVRows(records []selector.Record) [][]string {
	headers := m.Columns()
	rows := [][]string{headers}
	for _, rec := range records {
		row := make([]string, len(headers))
		for i, h := range headers {
			v, ok := rec[h]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr {
				row[i] = s
				continue
			}
			if b, err := json.Marshal(v); err == nil {
				row[i] = string(b)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

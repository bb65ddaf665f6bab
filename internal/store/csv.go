// Package store persists playback records as flat CSV and merges record
// sets with key-based deduplication. Files carry a UTF-8 BOM so the CJK
// fields open cleanly in spreadsheet software.
package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hyperifyio/playlog/internal/reconstruct"
)

var columns = []string{
	"date", "date_mmdd", "time", "song", "performer",
	"album", "publisher", "catalog_no",
	"days_ago", "page", "retrieved_at",
}

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// WriteCSV writes records to path, creating parent directories as needed.
func WriteCSV(path string, records []reconstruct.Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date, r.DateMMDD, r.Time, r.Song, r.Performer,
			r.Album, r.Publisher, r.CatalogNo,
			strconv.Itoa(r.DaysAgo), strconv.Itoa(r.Page), r.RetrievedAt,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadCSV loads records from a file previously written by WriteCSV,
// tolerating a leading BOM. Columns are matched by header name so older
// files with fewer columns still load.
func ReadCSV(path string) ([]reconstruct.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, utf8BOM)
	rd := csv.NewReader(bytes.NewReader(b))
	rd.FieldsPerRecord = -1
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[name] = i
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	out := make([]reconstruct.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		daysAgo, _ := strconv.Atoi(field(row, "days_ago"))
		page, _ := strconv.Atoi(field(row, "page"))
		out = append(out, reconstruct.Record{
			Date:        field(row, "date"),
			DateMMDD:    field(row, "date_mmdd"),
			Time:        field(row, "time"),
			Song:        field(row, "song"),
			Performer:   field(row, "performer"),
			Album:       field(row, "album"),
			Publisher:   field(row, "publisher"),
			CatalogNo:   field(row, "catalog_no"),
			DaysAgo:     daysAgo,
			Page:        page,
			RetrievedAt: field(row, "retrieved_at"),
		})
	}
	return out, nil
}

// MergeDedupe returns the deduplicated union of old and new records, keyed
// on (date, time, song, performer). On a key collision the later-supplied
// record wins. Records missing key fields fall back to whole-row identity.
func MergeDedupe(old, new []reconstruct.Record) []reconstruct.Record {
	out := make([]reconstruct.Record, 0, len(old)+len(new))
	seen := make(map[string]int, len(old)+len(new))
	for _, r := range append(append([]reconstruct.Record{}, old...), new...) {
		key := r.Key()
		if key == "" {
			key = "row\x1f" + fmt.Sprintf("%+v", r)
		}
		if at, ok := seen[key]; ok {
			out[at] = r
			continue
		}
		seen[key] = len(out)
		out = append(out, r)
	}
	return out
}

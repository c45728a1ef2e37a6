// internal/app/system/csvutil/csvutil.go
//
// Package csvutil prepares CSV downloads that open cleanly in Excel:
// UTF-8 BOM, CRLF line endings, and formula-injection hardening on every
// field.
package csvutil

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// NewDownload sets download headers on w and returns a CSV writer that has
// already emitted the UTF-8 BOM. Callers must Flush the writer when done.
func NewDownload(w http.ResponseWriter, filename string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write([]byte{0xEF, 0xBB, 0xBF})
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return cw
}

// SanitizeField neutralizes spreadsheet formula injection by prefixing
// values that a spreadsheet would interpret as a formula.
func SanitizeField(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@':
		return "'" + s
	}
	return s
}

// SanitizeRow applies SanitizeField to every field.
func SanitizeRow(fields []string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = SanitizeField(f)
	}
	return out
}

// FormatTime renders t for CSV cells, or "" for a nil time.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// Filename builds "<prefix>_<yyyy-mm-dd>.csv" with unsafe runes removed.
func Filename(prefix string, now time.Time) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, prefix)
	return fmt.Sprintf("%s_%s.csv", clean, now.UTC().Format("2006-01-02"))
}

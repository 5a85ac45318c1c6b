// Package export renders a list page as a spreadsheet or a PDF.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Table is a titled grid of already-formatted cells.
type Table struct {
	Title       string
	GeneratedAt time.Time
	Notice      string // shown under the title, e.g. when the rows are stale
	Headers     []string
	Rows        [][]string
}

// Filename builds a download name such as "staff-20260601.xlsx".
func Filename(base, ext string, at time.Time) string {
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(base))
	if base == "" {
		base = "export"
	}
	return fmt.Sprintf("%s-%s.%s", base, at.Format("20060102"), ext)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02.01.2006 15:04")
}

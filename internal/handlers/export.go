package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/diewo77/eventdesk/i18n"
	"github.com/diewo77/eventdesk/internal/export"
	"github.com/diewo77/eventdesk/internal/logger"
	"github.com/diewo77/eventdesk/internal/middleware"
	"github.com/diewo77/eventdesk/internal/resources"
	"github.com/diewo77/eventdesk/internal/upstream"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// Export downloads every row matching ?q=, across pages, as a spreadsheet
// or a PDF.
func (h *ResourceHandler) Export(res resources.Resource, format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := scopeOf(r)
		listing, err := res.Fetch(r.Context(), scope)
		if err != nil {
			if h.fetchFailed(w, r, res, err) {
				return
			}
			if !listing.Stale {
				middleware.Flash(w, r, middleware.LevelError, "fetch_failed", upstream.Message(err))
				http.Redirect(w, r, BasePath(res, scope), http.StatusSeeOther)
				return
			}
		}

		lang := middleware.LangFrom(r)
		now := time.Now()
		title := i18n.T(lang, res.Title())
		if scope.EventID != "" {
			title += " · " + i18n.T(lang, "field.event") + " #" + scope.EventID
		}
		table := export.Table{Title: title, GeneratedAt: now}
		if listing.Stale {
			table.Notice = i18n.T(lang, "stale_data")
			middleware.Flash(w, r, middleware.LevelError, "fetch_failed", upstream.Message(err))
		}
		for _, hdr := range res.Headers() {
			table.Headers = append(table.Headers, i18n.T(lang, hdr))
		}
		for _, row := range listing.Filter(r.URL.Query().Get("q")) {
			table.Rows = append(table.Rows, row.Cells)
		}

		var (
			body        []byte
			contentType string
		)
		switch format {
		case FormatPDF:
			body, err = export.PDF(table)
			contentType = export.PDFContentType
		default:
			format = FormatXLSX
			body, err = export.XLSX(table)
			contentType = export.XLSXContentType
		}
		if err != nil {
			logger.FromContext(r.Context()).Error("export failed", zap.String("resource", res.Key()), zap.String("format", format), zap.Error(err))
			renderError(w, r, http.StatusInternalServerError, "fetch_failed")
			return
		}

		name := res.Key()
		if scope.EventID != "" {
			name += "-" + scope.EventID
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(name, format, now)+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		_, _ = w.Write(body)
	}
}

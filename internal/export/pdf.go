package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	PDFContentType = "application/pdf"
	pdfFont        = "Helvetica"
	pageWidth      = 267.0 // A4 landscape minus 15mm margins
	rowHeight      = 7.0
)

// PDF renders t as a landscape A4 table, repeating the header row on every
// page.
func PDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := columnWidths(len(t.Headers))
	header := func() {
		drawRow(pdf, tr, t.Headers, widths, true)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	if stamp := formatStamp(t.GeneratedAt); stamp != "" {
		pdf.SetFont(pdfFont, "", 9)
		pdf.CellFormat(0, 5, stamp, "", 1, "L", false, 0, "")
	}
	if t.Notice != "" {
		pdf.SetFont(pdfFont, "I", 9)
		pdf.MultiCell(0, 5, tr(t.Notice), "", "L", false)
	}
	pdf.Ln(3)
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		drawRow(pdf, tr, row, widths, false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: write: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(n int) []float64 {
	if n == 0 {
		return nil
	}
	w := pageWidth / float64(n)
	out := make([]float64, n)
	for i := range out {
		out[i] = w
	}
	return out
}

func drawRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(pdfFont, style, 9)
	for i, w := range widths {
		value := ""
		if i < len(cols) {
			value = fit(pdf, tr(cols[i]), w-2)
		}
		pdf.CellFormat(w, rowHeight, value, "1", 0, "L", header, 0, "")
	}
	pdf.Ln(-1)
}

// fit truncates s so it fits in width millimetres.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

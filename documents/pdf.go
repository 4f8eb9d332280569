package documents

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const clinicName = "Medical Center"

type page struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPage(title string) *page {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(0, 82, 147)
	pdf.CellFormat(0, 10, clinicName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 5, "Campus Health Services", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, title, "1", 1, "C", false, 0, "")
	pdf.Ln(3)
	return p
}

func (p *page) detail(label, value string) {
	p.pdf.SetFont("Arial", "B", 10)
	p.pdf.SetFillColor(240, 240, 240)
	p.pdf.CellFormat(50, 8, p.tr(label), "1", 0, "", true, 0, "")
	p.pdf.SetFont("Arial", "", 10)
	p.pdf.CellFormat(0, 8, p.tr(value), "1", 1, "", false, 0, "")
}

func (p *page) section(heading, body string) {
	p.pdf.Ln(4)
	p.pdf.SetFont("Arial", "B", 11)
	p.pdf.CellFormat(0, 7, p.tr(heading), "B", 1, "", false, 0, "")
	p.pdf.Ln(1)
	p.pdf.SetFont("Arial", "", 10)
	if body == "" {
		body = "-"
	}
	p.pdf.MultiCell(0, 5, p.tr(body), "", "L", false)
}

func (p *page) footer(generated time.Time) {
	p.pdf.Ln(10)
	p.pdf.SetFont("Arial", "I", 8)
	p.pdf.SetTextColor(120, 120, 120)
	p.pdf.CellFormat(0, 5, "This is a computer generated document", "", 1, "R", false, 0, "")
	p.pdf.CellFormat(0, 5, "Generated "+generated.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")
}

func (p *page) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

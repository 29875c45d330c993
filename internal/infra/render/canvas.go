package render

import (
	"veritas/internal/domain"
	"veritas/internal/infra/security"

	"github.com/jung-kurt/gofpdf"
)

// pdfCanvas adapts gofpdf to security.Canvas and stego.HiddenTextWriter.
type pdfCanvas struct {
	pdf  *gofpdf.Fpdf
	fill domain.RGB
}

func newPDFCanvas(pdf *gofpdf.Fpdf) *pdfCanvas {
	return &pdfCanvas{pdf: pdf, fill: domain.Black}
}

func (c *pdfCanvas) SetStrokeColor(col domain.RGB) {
	c.pdf.SetDrawColor(int(col.R), int(col.G), int(col.B))
}

func (c *pdfCanvas) SetFillColor(col domain.RGB) {
	c.fill = col
	c.pdf.SetFillColor(int(col.R), int(col.G), int(col.B))
}

func (c *pdfCanvas) SetLineWidth(w float64) {
	c.pdf.SetLineWidth(w)
}

func (c *pdfCanvas) SetAlpha(a float64) {
	c.pdf.SetAlpha(a, "Normal")
}

func (c *pdfCanvas) Line(x1, y1, x2, y2 float64) {
	c.pdf.Line(x1, y1, x2, y2)
}

func (c *pdfCanvas) Polyline(points []security.Point) {
	if len(points) < 2 {
		return
	}
	c.pdf.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		c.pdf.LineTo(p.X, p.Y)
	}
	c.pdf.DrawPath("D")
}

func (c *pdfCanvas) Polygon(points []security.Point, fill bool) {
	pts := make([]gofpdf.PointType, len(points))
	for i, p := range points {
		pts[i] = gofpdf.PointType{X: p.X, Y: p.Y}
	}
	c.pdf.Polygon(pts, style(fill))
}

func (c *pdfCanvas) Circle(x, y, r float64, fill bool) {
	c.pdf.Circle(x, y, r, style(fill))
}

func (c *pdfCanvas) Rect(r security.Rect, fill bool) {
	c.pdf.Rect(r.X, r.Y, r.W, r.H, style(fill))
}

func (c *pdfCanvas) Text(x, y, size float64, s string) {
	c.pdf.SetFont(coreHelvetica, "", size)
	c.pdf.SetTextColor(int(c.fill.R), int(c.fill.G), int(c.fill.B))
	c.pdf.Text(x, y, s)
}

// HiddenText writes near-invisible text that stays in the text layer.
func (c *pdfCanvas) HiddenText(x, y float64, s string) {
	c.pdf.SetAlpha(0.01, "Normal")
	c.pdf.SetFont(coreHelvetica, "", 1)
	c.pdf.SetTextColor(255, 255, 255)
	c.pdf.Text(x, y, s)
	c.pdf.SetAlpha(1, "Normal")
}

func style(fill bool) string {
	if fill {
		return "F"
	}
	return "D"
}

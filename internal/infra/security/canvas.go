package security

import (
	"fmt"
	"strings"

	"veritas/internal/domain"
)

type Point struct {
	X float64
	Y float64
}

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Canvas is the drawing surface the pattern layers write to. Coordinates are
// in the caller's unit (millimetres for the PDF renderer).
type Canvas interface {
	SetStrokeColor(c domain.RGB)
	SetFillColor(c domain.RGB)
	SetLineWidth(w float64)
	SetAlpha(a float64)
	Line(x1, y1, x2, y2 float64)
	Polyline(points []Point)
	Polygon(points []Point, fill bool)
	Circle(x, y, r float64, fill bool)
	Rect(r Rect, fill bool)
	Text(x, y, size float64, s string)
}

// Recorder is a Canvas that keeps a textual log of every operation.
type Recorder struct {
	Ops []string
}

func (r *Recorder) record(format string, args ...any) {
	r.Ops = append(r.Ops, fmt.Sprintf(format, args...))
}

func (r *Recorder) SetStrokeColor(c domain.RGB) { r.record("stroke %s", c.Hex()) }
func (r *Recorder) SetFillColor(c domain.RGB) { r.record("fill %s", c.Hex()) }
func (r *Recorder) SetLineWidth(w float64) { r.record("width %.3f", w) }
func (r *Recorder) SetAlpha(a float64) { r.record("alpha %.3f", a) }

func (r *Recorder) Line(x1, y1, x2, y2 float64) {
	r.record("line %.3f %.3f %.3f %.3f", x1, y1, x2, y2)
}

func (r *Recorder) Polyline(points []Point) {
	r.record("polyline %s", formatPoints(points))
}

func (r *Recorder) Polygon(points []Point, fill bool) {
	r.record("polygon %t %s", fill, formatPoints(points))
}

func (r *Recorder) Circle(x, y, radius float64, fill bool) {
	r.record("circle %t %.3f %.3f %.3f", fill, x, y, radius)
}

func (r *Recorder) Rect(rect Rect, fill bool) {
	r.record("rect %t %.3f %.3f %.3f %.3f", fill, rect.X, rect.Y, rect.W, rect.H)
}

func (r *Recorder) Text(x, y, size float64, s string) {
	r.record("text %.3f %.3f %.2f %s", x, y, size, s)
}

// Count returns how many recorded operations start with prefix.
func (r *Recorder) Count(prefix string) int {
	n := 0
	for _, op := range r.Ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

func formatPoints(points []Point) string {
	var b strings.Builder
	for i, p := range points {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.3f,%.3f", p.X, p.Y)
	}
	return b.String()
}

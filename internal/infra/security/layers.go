package security

import (
	"math"
	"strings"

	"veritas/internal/domain"
)

// Fingerprint draws the 8x8 visual checksum with its top-left corner at pos.
func (g *Generator) Fingerprint(c Canvas, pos Point, size float64, color domain.RGB) {
	cell := size / 8
	c.SetStrokeColor(color)
	c.SetFillColor(color)
	c.SetLineWidth(0.1)
	c.Rect(Rect{X: pos.X, Y: pos.Y, W: size, H: size}, false)
	for idx, filled := range g.FingerprintCells() {
		if !filled {
			continue
		}
		i, j := idx/8, idx%8
		c.Rect(Rect{X: pos.X + float64(j)*cell, Y: pos.Y + float64(i)*cell, W: cell, H: cell}, true)
	}
}

// Border draws a double frame with a seed-phased wave running between the rules.
func (g *Generator) Border(c Canvas, bounds Rect, primary, secondary domain.RGB) {
	outer := inset(bounds, 5)
	inner := inset(bounds, 9)

	c.SetStrokeColor(primary)
	c.SetLineWidth(1.2)
	c.Rect(outer, false)
	c.SetStrokeColor(secondary)
	c.SetLineWidth(0.4)
	c.Rect(inner, false)

	mid := inset(bounds, 7)
	freq := g.Between("border-freq", 0, 0.6, 1.2)
	phase := g.Unit("border-phase", 0) * 2 * math.Pi
	amp := 1.2
	c.SetLineWidth(0.15)
	c.SetStrokeColor(primary)
	c.Polyline(waveAlong(Point{mid.X, mid.Y}, Point{mid.X + mid.W, mid.Y}, amp, freq, phase))
	c.Polyline(waveAlong(Point{mid.X, mid.Y + mid.H}, Point{mid.X + mid.W, mid.Y + mid.H}, amp, freq, phase))
	c.Polyline(waveAlong(Point{mid.X, mid.Y}, Point{mid.X, mid.Y + mid.H}, amp, freq, phase))
	c.Polyline(waveAlong(Point{mid.X + mid.W, mid.Y}, Point{mid.X + mid.W, mid.Y + mid.H}, amp, freq, phase))
}

func waveAlong(from, to Point, amp, freq, phase float64) []Point {
	dx, dy := to.X-from.X, to.Y-from.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return []Point{from}
	}
	nx, ny := -dy/length, dx/length
	steps := int(length * 2)
	pts := make([]Point, 0, steps+1)
	for s := 0; s <= steps; s++ {
		t := float64(s) / float64(steps)
		off := amp * math.Sin(freq*t*length+phase)
		pts = append(pts, Point{X: from.X + dx*t + nx*off, Y: from.Y + dy*t + ny*off})
	}
	return pts
}

// CornerOrnaments draws a small rosette in each corner of bounds.
func (g *Generator) CornerOrnaments(c Canvas, bounds Rect, color domain.RGB) {
	petals := 5 + int(g.Unit("corner-petals", 0)*4)
	radius := g.Between("corner-radius", 0, 6, 9)
	corners := []Point{
		{bounds.X + 14, bounds.Y + 14},
		{bounds.X + bounds.W - 14, bounds.Y + 14},
		{bounds.X + 14, bounds.Y + bounds.H - 14},
		{bounds.X + bounds.W - 14, bounds.Y + bounds.H - 14},
	}
	c.SetStrokeColor(color)
	c.SetLineWidth(0.2)
	for k, p := range corners {
		rot := g.Unit("corner-rotation", k) * math.Pi
		pts := make([]Point, 0, 181)
		for s := 0; s <= 180; s++ {
			t := 2 * math.Pi * float64(s) / 180
			r := radius * math.Abs(math.Cos(float64(petals)*t/2))
			pts = append(pts, Point{X: p.X + r*math.Cos(t+rot), Y: p.Y + r*math.Sin(t+rot)})
		}
		c.Polyline(pts)
		c.Circle(p.X, p.Y, radius*0.25, false)
	}
}

// RainbowGradient fills bounds with thin vertical stripes sweeping the hue
// wheel from a seed-chosen start.
func (g *Generator) RainbowGradient(c Canvas, bounds Rect, opacity float64) {
	const stripes = 72
	start := g.Unit("rainbow-hue", 0) * 360
	w := bounds.W / stripes
	c.SetAlpha(opacity)
	for i := 0; i < stripes; i++ {
		hue := math.Mod(start+360*float64(i)/stripes, 360)
		c.SetFillColor(hsv(hue, 0.55, 1))
		c.Rect(Rect{X: bounds.X + float64(i)*w, Y: bounds.Y, W: w + 0.05, H: bounds.H}, true)
	}
	c.SetAlpha(1)
}

func hsv(h, s, v float64) domain.RGB {
	cc := v * s
	x := cc * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - cc
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = cc, x, 0
	case h < 120:
		r, g, b = x, cc, 0
	case h < 180:
		r, g, b = 0, cc, x
	case h < 240:
		r, g, b = 0, x, cc
	case h < 300:
		r, g, b = x, 0, cc
	default:
		r, g, b = cc, 0, x
	}
	return domain.RGB{R: uint8(math.Round((r + m) * 255)), G: uint8(math.Round((g + m) * 255)), B: uint8(math.Round((b + m) * 255))}
}

// Microtext repeats a line carrying the certificate identity along the top
// and bottom inner edges at a size that only survives magnification.
func (g *Generator) Microtext(c Canvas, bounds Rect, certificateID string, color domain.RGB) {
	const size = 2.2
	unit := "VERITAS " + certificateID + " " + strings.ToUpper(g.seed) + " "
	chars := int((bounds.W - 22) / (size * 0.18))
	if chars <= 0 {
		return
	}
	line := strings.Repeat(unit, chars/len(unit)+1)[:chars]
	c.SetAlpha(0.6)
	c.SetFillColor(color)
	c.Text(bounds.X+11, bounds.Y+11.8, size, line)
	c.Text(bounds.X+11, bounds.Y+bounds.H-10.6, size, line)
	c.SetAlpha(1)
}

func inset(r Rect, d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

package security

import (
	"math"

	"veritas/internal/domain"
)

const (
	spiralCount   = 3
	spiralSamples = 720
	microDots     = 140
)

// Guilloche draws three phase-shifted spirals with a sinusoidally modulated
// radius, then the seed-selected fill pattern and a scatter of micro dots.
func (g *Generator) Guilloche(c Canvas, bounds Rect, color domain.RGB, opacity float64) {
	c.SetAlpha(opacity)
	c.SetStrokeColor(color)
	c.SetLineWidth(0.15)

	center := bounds.Center()
	base := math.Min(bounds.W, bounds.H) / 2
	for k := 0; k < spiralCount; k++ {
		phase := float64(k) * 2 * math.Pi / spiralCount
		amp := base * g.Between("spiral-amp", k, 0.08, 0.18)
		freq := math.Floor(g.Between("spiral-freq", k, 5, 12))
		turns := g.Between("spiral-turns", k, 3, 5)
		span := turns * 2 * math.Pi

		points := make([]Point, 0, spiralSamples+1)
		for s := 0; s <= spiralSamples; s++ {
			t := span * float64(s) / spiralSamples
			r := base*(0.2+0.7*t/span) + amp*math.Sin(freq*t+phase)
			points = append(points, Point{
				X: center.X + r*math.Cos(t+phase)*bounds.W/(2*base),
				Y: center.Y + r*math.Sin(t+phase),
			})
		}
		c.Polyline(points)
	}

	switch g.FillPattern() {
	case FillDiamondMesh:
		g.diamondMesh(c, bounds)
	case FillWaveInterference:
		g.waveInterference(c, bounds)
	case FillHexagonalGrid:
		g.hexagonalGrid(c, bounds)
	case FillFibonacciSpiral:
		g.fibonacciSpiral(c, bounds)
	}

	g.microDots(c, bounds, color)
	c.SetAlpha(1)
}

func (g *Generator) diamondMesh(c Canvas, b Rect) {
	spacing := g.Between("diamond-spacing", 0, 8, 14)
	for x := b.X - b.H; x < b.X+b.W; x += spacing {
		c.Line(x, b.Y, x+b.H, b.Y+b.H)
		c.Line(x+b.H, b.Y, x, b.Y+b.H)
	}
}

func (g *Generator) waveInterference(c Canvas, b Rect) {
	rows := 10 + int(g.Unit("wave-rows", 0)*8)
	f1 := g.Between("wave-f1", 0, 0.05, 0.12)
	f2 := g.Between("wave-f2", 0, 0.13, 0.25)
	amp := b.H / float64(rows) / 2
	for row := 0; row < rows; row++ {
		y0 := b.Y + b.H*(float64(row)+0.5)/float64(rows)
		phase := g.Unit("wave-phase", row) * 2 * math.Pi
		points := make([]Point, 0, 121)
		for s := 0; s <= 120; s++ {
			x := b.X + b.W*float64(s)/120
			y := y0 + amp*0.5*math.Sin(x*f1) + amp*0.5*math.Sin(x*f2+phase)
			points = append(points, Point{X: x, Y: y})
		}
		c.Polyline(points)
	}
}

func (g *Generator) hexagonalGrid(c Canvas, b Rect) {
	r := g.Between("hex-radius", 0, 5, 9)
	w := math.Sqrt(3) * r
	row := 0
	for y := b.Y; y < b.Y+b.H+r; y += 1.5 * r {
		offset := 0.0
		if row%2 == 1 {
			offset = w / 2
		}
		for x := b.X + offset; x < b.X+b.W+w; x += w {
			c.Polygon(hexagon(x, y, r), false)
		}
		row++
	}
}

func hexagon(cx, cy, r float64) []Point {
	pts := make([]Point, 6)
	for i := range pts {
		a := math.Pi/6 + float64(i)*math.Pi/3
		pts[i] = Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return pts
}

func (g *Generator) fibonacciSpiral(c Canvas, b Rect) {
	const golden = 137.50776405 * math.Pi / 180
	center := b.Center()
	n := 260 + int(g.Unit("fib-count", 0)*120)
	scale := math.Min(b.W, b.H) / 2 / math.Sqrt(float64(n))
	rot := g.Unit("fib-rotation", 0) * 2 * math.Pi
	for i := 0; i < n; i++ {
		r := scale * math.Sqrt(float64(i))
		a := float64(i)*golden + rot
		c.Circle(center.X+r*math.Cos(a)*b.W/math.Min(b.W, b.H), center.Y+r*math.Sin(a), 0.4, false)
	}
}

func (g *Generator) microDots(c Canvas, b Rect, color domain.RGB) {
	c.SetFillColor(color)
	for i := 0; i < microDots; i++ {
		x := b.X + b.W*g.Unit("dot-x", i)
		y := b.Y + b.H*g.Unit("dot-y", i)
		c.Circle(x, y, 0.2+0.2*g.Unit("dot-r", i), true)
	}
}

package render

import "math"

// Point is a 2D position in canvas logical coordinates.
type Point struct {
	X, Y float64
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// FillCircle fills a disc centred at (cx, cy) with radius r, in logical
// coordinates. The disc is scaled per axis, so it stays round on the
// half-block grid only when the logical space matches the terminal aspect.
func (c *Canvas) FillCircle(cx, cy, r float64, ink Ink) {
	if r <= 0 {
		return
	}
	pcx, pcy := cx*c.scaleX, cy*c.scaleY
	rx, ry := r*c.scaleX, r*c.scaleY

	yStart := max(int(math.Floor(pcy-ry)), 0)
	yEnd := min(int(math.Ceil(pcy+ry)), c.subPixelHeight-1)
	for y := yStart; y <= yEnd; y++ {
		dy := (float64(y) + 0.5 - pcy) / ry
		if dy < -1 || dy > 1 {
			continue
		}
		half := rx * math.Sqrt(1-dy*dy)
		xStart := max(int(math.Ceil(pcx-half-0.5)), 0)
		xEnd := min(int(math.Floor(pcx+half-0.5)), c.termWidth-1)
		for x := xStart; x <= xEnd; x++ {
			c.setPixel(x, y, ink)
		}
	}

	// Tiny discs still show up as a single pixel
	if rx < 1 && ry < 1 {
		c.SetFloat(cx, cy, ink)
	}
}

// DrawCircle draws the outline of a circle as a closed polygon.
func (c *Canvas) DrawCircle(cx, cy, r float64, ink Ink) {
	if r <= 0 {
		return
	}
	segments := circleSegments(r * max(c.scaleX, c.scaleY))
	points := c.borrowPoints(segments)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(segments)
		points[i] = Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	c.DrawPolygon(points, ink)
}

// circleSegments picks an outline resolution for a radius in pixels.
func circleSegments(px float64) int {
	n := int(px * 2)
	return min(max(n, 8), 64)
}

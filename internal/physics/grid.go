package physics

import "math"

// GridBroadphase buckets spheres by their ground footprint on a uniform
// (x, z) grid and pairs each body with the 3x3 block of cells around it.
// The cell size must be at least the largest sphere diameter. Footprints
// outside the covered area land in the edge cells.
type GridBroadphase struct {
	minX, minZ float64
	inv        float64 // cells per world unit
	cols, rows int
	buckets    [][]*Body
}

// NewGridBroadphase covers x in [minX, minX+width) and z in [minZ, minZ+depth).
func NewGridBroadphase(minX, minZ, width, depth, cellSize float64) *GridBroadphase {
	cols := max(int(math.Ceil(width/cellSize)), 1)
	rows := max(int(math.Ceil(depth/cellSize)), 1)
	return &GridBroadphase{
		minX:    minX,
		minZ:    minZ,
		inv:     1 / cellSize,
		cols:    cols,
		rows:    rows,
		buckets: make([][]*Body, cols*rows),
	}
}

// Prepare rebuilds the buckets from the current sphere positions.
func (g *GridBroadphase) Prepare(bodies []*Body) {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
	for _, b := range bodies {
		if b.Radius() == 0 {
			continue
		}
		col, row := g.cell(b.Position)
		i := row*g.cols + col
		g.buckets[i] = append(g.buckets[i], b)
	}
}

// Near calls fn for every other body bucketed next to b.
func (g *GridBroadphase) Near(b *Body, fn func(other *Body)) {
	col, row := g.cell(b.Position)
	for r := max(row-1, 0); r <= min(row+1, g.rows-1); r++ {
		for c := max(col-1, 0); c <= min(col+1, g.cols-1); c++ {
			for _, other := range g.buckets[r*g.cols+c] {
				if other != b {
					fn(other)
				}
			}
		}
	}
}

// Remove does nothing; Prepare rebuilds the grid every step.
func (g *GridBroadphase) Remove(*Body) {}

func (g *GridBroadphase) cell(p Vec3) (col, row int) {
	col = clampIndex(int(math.Floor((p.X()-g.minX)*g.inv)), g.cols)
	row = clampIndex(int(math.Floor((p.Z()-g.minZ)*g.inv)), g.rows)
	return col, row
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

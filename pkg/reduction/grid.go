package reduction

import (
	"math"
)

const (
	gridDimension  = 2
	machineEpsilon = 2.220446049250313e-16
)

// gradientGrid is a complete quadtree over a 2-D embedding. Layer 0 is the
// root; the cell with Morton code m at layer l is stored at layerOffset(l)+m.
// Morton codes place row bits on odd positions and column bits on even ones,
// so the parent of code m is m>>2 and its children are 4m..4m+3.
type gradientGrid struct {
	depth             int
	originalDimension int

	populations      []int
	targetAverages   []float64
	originalAverages []float64
	gradients        []float64

	leafMembers [][]int // sample indices per leaf Morton code
	leafOf      []int   // leaf Morton code per sample

	minValues [gridDimension]float64
	maxValues [gridDimension]float64
}

// layerOffset returns the number of cells stored before the given layer.
func layerOffset(layer int) int {
	return ((1 << (2 * layer)) - 1) / 3
}

func newGradientGrid(depth, originalDimension int) *gradientGrid {
	total := layerOffset(depth + 1)
	return &gradientGrid{
		depth:             depth,
		originalDimension: originalDimension,
		populations:       make([]int, total),
		targetAverages:    make([]float64, total*gridDimension),
		originalAverages:  make([]float64, total*originalDimension),
		gradients:         make([]float64, total*gridDimension),
		leafMembers:       make([][]int, 1<<(2*depth)),
	}
}

func (g *gradientGrid) numCells() int {
	return len(g.populations)
}

func (g *gradientGrid) reset() {
	clear(g.populations)
	clear(g.targetAverages)
	clear(g.originalAverages)
	clear(g.gradients)
	for i := range g.leafMembers {
		g.leafMembers[i] = g.leafMembers[i][:0]
	}
}

func (g *gradientGrid) targetAverage(cell int) []float64 {
	return g.targetAverages[cell*gridDimension : (cell+1)*gridDimension]
}

func (g *gradientGrid) originalAverage(cell int) []float64 {
	return g.originalAverages[cell*g.originalDimension : (cell+1)*g.originalDimension]
}

func (g *gradientGrid) gradient(cell int) []float64 {
	return g.gradients[cell*gridDimension : (cell+1)*gridDimension]
}

// axisCell returns the cell coordinate of v along axis at a layer with side cells per axis.
func (g *gradientGrid) axisCell(v float64, axis int, side int) int {
	span := g.maxValues[axis] - g.minValues[axis]
	c := math.Floor(float64(side) * (v - g.minValues[axis]) / (machineEpsilon + span))
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > float64(side-1):
		return side - 1
	}
	return int(c)
}

// cellCoordinates returns the row and column of the cell holding (x, y) at layer.
func (g *gradientGrid) cellCoordinates(x, y float64, layer int) (row, col int) {
	side := 1 << layer
	return g.axisCell(x, 0, side), g.axisCell(y, 1, side)
}

// mortonCode interleaves row bits onto odd positions and column bits onto even positions.
func mortonCode(row, col int) int {
	var code int
	for bit := 0; (row>>bit) > 0 || (col>>bit) > 0; bit++ {
		code |= ((row >> bit) & 1) << (2*bit + 1)
		code |= ((col >> bit) & 1) << (2 * bit)
	}
	return code
}

// relativeCellID returns the Morton code of the cell holding (x, y) at layer.
func (g *gradientGrid) relativeCellID(x, y float64, layer int) int {
	return mortonCode(g.cellCoordinates(x, y, layer))
}

// absoluteCellID returns the storage index of the cell holding (x, y) at layer.
func (g *gradientGrid) absoluteCellID(x, y float64, layer int) int {
	return layerOffset(layer) + g.relativeCellID(x, y, layer)
}

// prepare rebuilds populations and averages for the current embedding. target
// holds n rows of width 2 and original n rows of width originalDimension.
func (g *gradientGrid) prepare(target, original []float64) {
	g.reset()

	n := len(target) / gridDimension
	for axis := 0; axis < gridDimension; axis++ {
		g.minValues[axis] = math.Inf(1)
		g.maxValues[axis] = math.Inf(-1)
	}
	for i := 0; i < n; i++ {
		for axis := 0; axis < gridDimension; axis++ {
			v := target[i*gridDimension+axis]
			g.minValues[axis] = math.Min(g.minValues[axis], v)
			g.maxValues[axis] = math.Max(g.maxValues[axis], v)
		}
	}

	if cap(g.leafOf) < n {
		g.leafOf = make([]int, n)
	}
	g.leafOf = g.leafOf[:n]

	leafBase := layerOffset(g.depth)
	od := g.originalDimension
	for i := 0; i < n; i++ {
		t := target[i*gridDimension : (i+1)*gridDimension]
		code := g.relativeCellID(t[0], t[1], g.depth)
		g.leafOf[i] = code
		g.leafMembers[code] = append(g.leafMembers[code], i)

		cell := leafBase + code
		g.populations[cell]++
		sum := g.targetAverage(cell)
		sum[0] += t[0]
		sum[1] += t[1]
		osum := g.originalAverage(cell)
		for k, v := range original[i*od : (i+1)*od] {
			osum[k] += v
		}
	}

	// Leaf sums become averages.
	for cell := leafBase; cell < g.numCells(); cell++ {
		g.normalize(cell)
	}

	// Propagate population-weighted averages towards the root.
	for layer := g.depth - 1; layer >= 0; layer-- {
		base, childBase := layerOffset(layer), layerOffset(layer+1)
		for code := 0; code < 1<<(2*layer); code++ {
			cell := base + code
			tsum, osum := g.targetAverage(cell), g.originalAverage(cell)
			for k := 0; k < 4; k++ {
				child := childBase + 4*code + k
				p := g.populations[child]
				if p == 0 {
					continue
				}
				g.populations[cell] += p
				for j, v := range g.targetAverage(child) {
					tsum[j] += v * float64(p)
				}
				for j, v := range g.originalAverage(child) {
					osum[j] += v * float64(p)
				}
			}
			g.normalize(cell)
		}
	}
}

func (g *gradientGrid) normalize(cell int) {
	p := g.populations[cell]
	if p == 0 {
		return
	}
	for j := range g.targetAverage(cell) {
		g.targetAverages[cell*gridDimension+j] /= float64(p)
	}
	o := g.originalAverage(cell)
	for j := range o {
		o[j] /= float64(p)
	}
}

// farCells calls fn for every populated cell that is a sibling of an ancestor
// of leaf, from the leaf layer up to layer 1. Together with the leaf itself
// these cells partition all samples.
func (g *gradientGrid) farCells(leaf int, fn func(cell int)) {
	for layer := g.depth; layer >= 1; layer-- {
		code := leaf >> (2 * (g.depth - layer))
		first := code &^ 3
		base := layerOffset(layer)
		for s := first; s < first+4; s++ {
			if s == code {
				continue
			}
			if cell := base + s; g.populations[cell] > 0 {
				fn(cell)
			}
		}
	}
}

// downpropagateGradient pushes every cell's gradient into its children so that
// leaves carry the sum of the gradients of all their ancestors.
func (g *gradientGrid) downpropagateGradient() {
	for layer := 0; layer < g.depth; layer++ {
		base, childBase := layerOffset(layer), layerOffset(layer+1)
		for code := 0; code < 1<<(2*layer); code++ {
			grad := g.gradient(base + code)
			if grad[0] == 0 && grad[1] == 0 {
				continue
			}
			for k := 0; k < 4; k++ {
				child := g.gradient(childBase + 4*code + k)
				child[0] += grad[0]
				child[1] += grad[1]
			}
		}
	}
}

// leafGradient returns the accumulated gradient of the leaf holding sample i.
func (g *gradientGrid) leafGradient(i int) []float64 {
	return g.gradient(layerOffset(g.depth) + g.leafOf[i])
}

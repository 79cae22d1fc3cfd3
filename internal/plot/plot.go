// Package plot renders 2-D embeddings as scatter plots.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	// ErrNotTwoDimensional is returned for embeddings that do not have exactly 2 columns
	ErrNotTwoDimensional = errors.New("scatter plots need a 2-column embedding")

	// ErrLabelMismatch is returned when the label count differs from the row count
	ErrLabelMismatch = errors.New("label count does not match embedding rows")

	// ErrUnsupportedFormat is returned for output extensions gonum/plot cannot write
	ErrUnsupportedFormat = errors.New("unsupported plot format")
)

// palette cycles for classes beyond its length
var palette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
	{R: 140, G: 86, B: 75, A: 255},
	{R: 227, G: 119, B: 194, A: 255},
	{R: 127, G: 127, B: 127, A: 255},
}

var glyphs = []draw.GlyphDrawer{
	draw.CircleGlyph{},
	draw.TriangleGlyph{},
	draw.SquareGlyph{},
	draw.CrossGlyph{},
	draw.PlusGlyph{},
	draw.RingGlyph{},
}

// Options configures a scatter plot
type Options struct {
	Title      string
	Labels     []int    // Class per row; nil draws a single series
	ClassNames []string // Legend entries indexed by class
	Width      vg.Length
	Height     vg.Length
}

// DefaultOptions returns default plot options
func DefaultOptions() Options {
	return Options{
		Title:  "Embedding",
		Width:  6 * vg.Inch,
		Height: 6 * vg.Inch,
	}
}

// Scatter builds a scatter plot of a 2-column embedding with one series per class.
func Scatter(embedding mat.Matrix, opts Options) (*plot.Plot, error) {
	rows, cols := embedding.Dims()
	if cols != 2 {
		return nil, fmt.Errorf("%w: got %d columns", ErrNotTwoDimensional, cols)
	}
	if opts.Labels != nil && len(opts.Labels) != rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrLabelMismatch, len(opts.Labels), rows)
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Component 1"
	p.Y.Label.Text = "Component 2"
	p.Add(plotter.NewGrid())

	// Group rows per class, keeping classes in first-seen order
	groups := make(map[int]plotter.XYs)
	var order []int
	for i := 0; i < rows; i++ {
		class := 0
		if opts.Labels != nil {
			class = opts.Labels[i]
		}
		if _, ok := groups[class]; !ok {
			order = append(order, class)
		}
		groups[class] = append(groups[class], plotter.XY{X: embedding.At(i, 0), Y: embedding.At(i, 1)})
	}

	for n, class := range order {
		s, err := plotter.NewScatter(groups[class])
		if err != nil {
			return nil, fmt.Errorf("failed to create scatter for class %d: %w", class, err)
		}
		s.Color = palette[n%len(palette)]
		s.Shape = glyphs[n%len(glyphs)]
		s.Radius = vg.Points(2.5)
		p.Add(s)

		if opts.Labels != nil {
			name := fmt.Sprintf("class %d", class)
			if class >= 0 && class < len(opts.ClassNames) {
				name = opts.ClassNames[class]
			}
			p.Legend.Add(name, s)
		}
	}
	p.Legend.Top = true

	return p, nil
}

// Save writes a scatter plot of embedding to path. The format follows the
// extension: .png, .svg, .pdf, .eps, .jpg, .jpeg, .tif or .tiff.
func Save(embedding mat.Matrix, path string, opts Options) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if opts.Width == 0 {
		opts.Width = DefaultOptions().Width
	}
	if opts.Height == 0 {
		opts.Height = DefaultOptions().Height
	}

	p, err := Scatter(embedding, opts)
	if err != nil {
		return err
	}
	if err := p.Save(opts.Width, opts.Height, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

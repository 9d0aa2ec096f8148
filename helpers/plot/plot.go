// Package plot draws diagnostic plots of a planned part: the outline, the
// hollow boundary, the interior samples and the height profile.
package plot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/soypat/keebcase/heightfield"
	"github.com/soypat/keebcase/outline"
	"github.com/soypat/keebcase/render"
	"github.com/soypat/keebcase/solid"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// points implements the plotter.XYer interface.
type points []r2.Vec

func (p points) Len() int                    { return len(p) }
func (p points) XY(i int) (float64, float64) { return p[i].X, p[i].Y }

// closed returns the ring with its first point repeated at the end.
func closed(o outline.Outline) points {
	if len(o) == 0 {
		return nil
	}
	return append(points(o[:len(o):len(o)]), o[0])
}

var (
	outlineColor  = color.RGBA{R: 0x46, G: 0x89, B: 0x66, A: 255}
	hollowColor   = color.RGBA{R: 0xb6, G: 0x49, B: 0x26, A: 255}
	interiorColor = color.RGBA{R: 0x8e, G: 0x28, B: 0x00, A: 160}
)

// Layout plots the outline, hollow boundary and interior samples of l.
func Layout(l solid.Layout) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Outline"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(closed(l.Outline))
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = outlineColor
	p.Add(line)
	p.Legend.Add(fmt.Sprintf("outline (%d)", len(l.Outline)), line)

	if l.Hollow != nil {
		h, err := plotter.NewLine(closed(l.Hollow))
		if err != nil {
			return nil, err
		}
		h.LineStyle.Width = vg.Points(1)
		h.LineStyle.Color = hollowColor
		h.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(h)
		p.Legend.Add(fmt.Sprintf("hollow (%d)", len(l.Hollow)), h)
	}
	if len(l.Interior) > 0 {
		s, err := plotter.NewScatter(points(l.Interior))
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(1)
		s.GlyphStyle.Color = interiorColor
		p.Add(s)
		p.Legend.Add(fmt.Sprintf("interior (%d)", len(l.Interior)), s)
	}
	return p, nil
}

// Profile plots f along axis across the extent of o, through the centroid
// of o.
func Profile(f heightfield.Func, axis heightfield.Axis, o outline.Outline, samples int) (*plot.Plot, error) {
	if samples < 2 {
		return nil, fmt.Errorf("profile needs at least 2 samples, got %d", samples)
	}
	if len(o) == 0 {
		return nil, outline.ErrTooFewPoints
	}
	lo, hi := axis.Range(o)
	c := o.Centroid()
	xys := make(plotter.XYs, samples)
	for i := range xys {
		v := lo + (hi-lo)*float64(i)/float64(samples-1)
		q := c
		if axis == heightfield.AxisX {
			q.X = v
		} else {
			q.Y = v
		}
		xys[i].X, xys[i].Y = v, f(q)
	}
	p := plot.New()
	p.Title.Text = "Height profile"
	p.X.Label.Text = axis.String()
	p.Y.Label.Text = "z"
	p.Add(plotter.NewGrid())
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(1.5)
	line.LineStyle.Color = outlineColor
	p.Add(line)
	p.Y.Min = 0
	return p, nil
}

// Save writes p to path in the format given by the file extension
// (png, svg, pdf, eps, jpg or tiff). The file is replaced atomically.
func Save(path string, p *plot.Plot, w, h vg.Length) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	wt, err := p.WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return render.WriteFileAtomic(path, func(f *os.File) error {
		_, err := wt.WriteTo(f)
		return err
	})
}

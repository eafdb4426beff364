// Package plotting holds the figure that skew curves are drawn onto.
package plotting

import (
	"fmt"
	"io"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Series is a labeled set of points added to a Surface.
type Series struct {
	Label string
	X     []float64
	Y     []float64
}

// Surface is an explicit figure. Series accumulate in the order they are
// added and are overlaid on shared axes.
type Surface struct {
	width  vg.Length
	height vg.Length
	plot   *plot.Plot
	series []Series
}

// NewSurface returns an empty figure of the given size in inches.
func NewSurface(widthInches, heightInches float64) *Surface {
	p := plot.New()
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.TextStyle.Font.Weight = xfont.WeightBold
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Weight = xfont.WeightBold
	p.Legend.TextStyle.Font.Size = vg.Points(12)
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	return &Surface{
		width:  vg.Length(widthInches) * vg.Inch,
		height: vg.Length(heightInches) * vg.Inch,
		plot:   p,
	}
}

func (s *Surface) SetTitle(title string) { s.plot.Title.Text = title }

func (s *Surface) Title() string { return s.plot.Title.Text }

func (s *Surface) SetAxisLabels(x, y string) {
	s.plot.X.Label.Text = x
	s.plot.Y.Label.Text = y
}

// AxisLabels returns the x and y axis labels.
func (s *Surface) AxisLabels() (string, string) {
	return s.plot.X.Label.Text, s.plot.Y.Label.Text
}

// AddSeries draws a line with circle markers through the points and adds a
// legend entry for it.
func (s *Surface) AddSeries(label string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("series %q: %d x values but %d y values", label, len(xs), len(ys))
	}

	xys := make(plotter.XYs, len(xs))
	for i := range xs {
		xys[i].X = xs[i]
		xys[i].Y = ys[i]
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return fmt.Errorf("series %q: %w", label, err)
	}
	c := plotutil.Color(len(s.series))
	line.Color = c
	points.Color = c
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)

	s.plot.Add(line, points)
	s.plot.Legend.Add(label, line, points)
	s.series = append(s.series, Series{
		Label: label,
		X:     append([]float64(nil), xs...),
		Y:     append([]float64(nil), ys...),
	})
	return nil
}

// Series returns the series added so far.
func (s *Surface) Series() []Series { return s.series }

// Size returns the figure size in inches.
func (s *Surface) Size() (float64, float64) {
	return float64(s.width / vg.Inch), float64(s.height / vg.Inch)
}

// Render encodes the figure; format is one of "svg", "png", "pdf".
func (s *Surface) Render(w io.Writer, format string) error {
	wt, err := s.plot.WriterTo(s.width, s.height, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", format, err)
	}
	return nil
}

package plotting

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSurface_AddSeries(t *testing.T) {
	t.Parallel()

	s := NewSurface(12, 8)
	s.SetTitle("AAPL Volatility Skew Modeling")
	s.SetAxisLabels("K/S ratio", "Implied Volatility")

	require.NoError(t, s.AddSeries("calls", []float64{0.9, 1.0, 1.1}, []float64{0.3, 0.25, 0.27}))
	require.NoError(t, s.AddSeries("puts", []float64{0.9, 1.0}, []float64{0.35, 0.26}))

	series := s.Series()
	require.Len(t, series, 2)
	require.Equal(t, "calls", series[0].Label)
	require.Equal(t, []float64{0.9, 1.0}, series[1].X)
	x, y := s.AxisLabels()
	require.Equal(t, "K/S ratio", x)
	require.Equal(t, "Implied Volatility", y)
}

func TestSurface_AddSeries_LengthMismatch(t *testing.T) {
	t.Parallel()

	s := NewSurface(12, 8)

	require.Error(t, s.AddSeries("calls", []float64{1}, nil))
	require.Empty(t, s.Series())
}

func TestSurface_Render(t *testing.T) {
	t.Parallel()

	s := NewSurface(14, 8)
	s.SetTitle("title")
	require.NoError(t, s.AddSeries("calls", []float64{0.9, 1.1}, []float64{0.3, 0.2}))

	var svg bytes.Buffer
	require.NoError(t, s.Render(&svg, "svg"))
	require.Contains(t, svg.String(), "<svg")

	var png bytes.Buffer
	require.NoError(t, s.Render(&png, "png"))
	require.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))

	w, h := s.Size()
	require.InDelta(t, 14, w, 1e-9)
	require.InDelta(t, 8, h, 1e-9)
}

func TestSurface_Render_UnknownFormat(t *testing.T) {
	t.Parallel()

	s := NewSurface(12, 8)

	require.Error(t, s.Render(&bytes.Buffer{}, "bmp"))
}

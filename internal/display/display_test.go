package display

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"volskew/internal/plotting"
)

func surface(t *testing.T) *plotting.Surface {
	t.Helper()
	s := plotting.NewSurface(12, 8)
	s.SetTitle("AAPL Volatility Skew Modeling from call options, maturity = 2024-06-21")
	require.NoError(t, s.AddSeries("calls", []float64{0.9, 1.0, 1.1}, []float64{0.3, 0.25, 0.27}))
	return s
}

func TestShow_ServesFigureUntilViewerCloses(t *testing.T) {
	t.Parallel()

	// Arrange: a viewer that fetches the page and the figure, then closes
	var page, figure string
	d := New(Config{Mode: ModeServe})
	d.open = func(ctx context.Context, url string) error {
		page = get(t, url)
		figure = get(t, url+"figure.svg")
		return nil
	}

	// Act
	err := d.Show(t.Context(), surface(t))

	// Assert
	require.NoError(t, err)
	require.Contains(t, page, "maturity = 2024-06-21")
	require.Contains(t, figure, "<svg")
}

func TestShow_ServeModeEndsWithContext(t *testing.T) {
	t.Parallel()

	// Arrange
	d := New(Config{Mode: ModeServe})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// Act
	err := d.Show(ctx, surface(t))

	// Assert: interruption is a normal end
	require.NoError(t, err)
}

func TestShow_OpenFailureFallsBackToServing(t *testing.T) {
	t.Parallel()

	// Arrange
	d := New(Config{Mode: ModeWindow})
	ctx, cancel := context.WithCancel(t.Context())
	d.open = func(context.Context, string) error {
		cancel()
		return errors.New("chrome not found")
	}

	// Act
	err := d.Show(ctx, surface(t))

	// Assert
	require.NoError(t, err)
}

func TestShow_BadAddr(t *testing.T) {
	t.Parallel()

	// Arrange
	d := New(Config{Mode: ModeServe, Addr: "not-an-addr"})

	// Act
	err := d.Show(t.Context(), surface(t))

	// Assert
	require.ErrorContains(t, err, "listen")
}

func get(t *testing.T, url string) string {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	b, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(b)
}

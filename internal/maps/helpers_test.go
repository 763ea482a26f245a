package maps

import (
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/ids"
	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
	"github.com/roach88/salesmap/internal/testutil"
)

var (
	toronto = geo.LatLng(43.65, -79.38)
	quiet   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

func testSurfaceOptions() SurfaceOptions {
	return SurfaceOptions{
		ID:        "s1",
		Container: "map",
		Map:       sdk.MapOptions{Center: toronto, Zoom: 10},
		StepDelay: -1,
		IDs:       ids.NewCounter("id"),
		Logger:    quiet,
	}
}

func newTestSurface(t *testing.T, simOpts ...simsdk.Option) (*Surface, *simsdk.Platform) {
	t.Helper()
	return newTestSurfaceWith(t, testSurfaceOptions(), simOpts...)
}

func newTestSurfaceWith(t *testing.T, opts SurfaceOptions, simOpts ...simsdk.Option) (*Surface, *simsdk.Platform) {
	t.Helper()
	p := testutil.NewPlatform(t, simOpts...)
	s, err := NewSurface(testutil.NewProvider(t, p), opts)
	require.NoError(t, err)
	return s, p
}

func square(lat, lng float64) orb.Polygon {
	return orb.Polygon{geo.Ring([][2]float64{
		{lat, lng}, {lat, lng + 0.01}, {lat + 0.01, lng + 0.01}, {lat + 0.01, lng},
	})}
}

func renderedMarkers(l *MarkerLayer) []string {
	var out []string
	for _, mk := range l.Markers() {
		if mk.Handle().Map() != nil {
			out = append(out, mk.ID())
		}
	}
	return out
}

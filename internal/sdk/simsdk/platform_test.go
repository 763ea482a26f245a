package simsdk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/sdk"
)

func connect(t *testing.T, p *Platform, libs ...sdk.Library) sdk.Client {
	t.Helper()
	c, err := p.Connect(sdk.Config{APIKey: "test-key", Version: "weekly"})
	require.NoError(t, err)
	for _, lib := range libs {
		require.NoError(t, c.ImportLibrary(context.Background(), lib))
	}
	return c
}

func newMap(t *testing.T, c sdk.Client, zoom int) *Map {
	t.Helper()
	m, err := c.NewMap("container", sdk.MapOptions{
		MapID:  "m1",
		Center: geo.LatLng(43.65, -79.38),
		Zoom:   zoom,
	})
	require.NoError(t, err)
	return m.(*Map)
}

func TestPlatform_ConnectRequiresAPIKey(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.Connect(sdk.Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestPlatform_ImportTracksCountsAndFailures(t *testing.T) {
	boom := errors.New("boom")
	p := New(WithLibraryFailure(sdk.LibraryPlaces, boom))
	defer p.Close()
	c := connect(t, p)

	require.NoError(t, c.ImportLibrary(context.Background(), sdk.LibraryMaps))
	err := c.ImportLibrary(context.Background(), sdk.LibraryPlaces)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, p.Imports(sdk.LibraryMaps))
	assert.Equal(t, 1, p.Imports(sdk.LibraryPlaces))
	assert.True(t, p.Imported(sdk.LibraryMaps))
	assert.False(t, p.Imported(sdk.LibraryPlaces))
	assert.Equal(t, 2, p.Count(OpImportLibrary))
}

func TestPlatform_ImportLatencyHonoursContext(t *testing.T) {
	p := New(WithImportLatency(time.Hour))
	defer p.Close()
	c := connect(t, p)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := c.ImportLibrary(ctx, sdk.LibraryMaps)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, p.Imported(sdk.LibraryMaps))
}

func TestClient_FactoriesRequireLibraries(t *testing.T) {
	p := New()
	defer p.Close()
	c := connect(t, p)

	_, err := c.NewMap("container", sdk.MapOptions{})
	assert.Error(t, err)
	_, err = c.NewData(sdk.DataOptions{})
	assert.Error(t, err)
	_, err = c.NewMarker(sdk.MarkerOptions{})
	assert.Error(t, err)

	require.NoError(t, c.ImportLibrary(context.Background(), sdk.LibraryMaps))
	_, err = c.NewMap("", sdk.MapOptions{})
	assert.Error(t, err, "container is required")
	_, err = c.NewMap("container", sdk.MapOptions{})
	assert.NoError(t, err)
	_, err = c.NewMarker(sdk.MarkerOptions{})
	assert.Error(t, err, "marker library still missing")
}

func TestMap_SetZoomEmitsOnlyOnChange(t *testing.T) {
	p := New()
	defer p.Close()
	m := newMap(t, connect(t, p, sdk.LibraryMaps), 10)

	events := make(chan sdk.Event, 4)
	m.AddListener(sdk.EventZoomChanged, func(e sdk.Event) { events <- e })

	m.SetZoom(11)
	m.SetZoom(11)
	p.Flush()

	assert.Len(t, events, 1)
	z, ok := m.Zoom()
	assert.True(t, ok)
	assert.Equal(t, 11, z)
	assert.Equal(t, 2, p.Count(OpSetZoom))
	assert.Equal(t, 1, p.Count(OpEmit, string(sdk.EventZoomChanged)))
}

func TestMap_SetZoomClamps(t *testing.T) {
	p := New()
	defer p.Close()
	c := connect(t, p, sdk.LibraryMaps)
	raw, err := c.NewMap("container", sdk.MapOptions{Zoom: 5, MinZoom: 3, MaxZoom: 6})
	require.NoError(t, err)

	raw.SetZoom(9)
	z, _ := raw.Zoom()
	assert.Equal(t, 6, z)

	raw.SetZoom(-1)
	z, _ = raw.Zoom()
	assert.Equal(t, 3, z)
}

func TestMap_ListenerOnceFiresOnce(t *testing.T) {
	p := New()
	defer p.Close()
	m := newMap(t, connect(t, p, sdk.LibraryMaps), 10)

	count := 0
	m.AddListenerOnce(sdk.EventZoomChanged, func(sdk.Event) { count++ })
	m.SetZoom(11)
	m.SetZoom(12)
	p.Flush()

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, m.ListenerCount(sdk.EventZoomChanged))
}

func TestMap_ListenerRemove(t *testing.T) {
	p := New()
	defer p.Close()
	m := newMap(t, connect(t, p, sdk.LibraryMaps), 10)

	count := 0
	l := m.AddListener(sdk.EventZoomChanged, func(sdk.Event) { count++ })
	l.Remove()
	l.Remove()
	m.SetZoom(11)
	p.Flush()

	assert.Equal(t, 0, count)
}

func TestMap_PanToEmitsIdleAndMovesViewport(t *testing.T) {
	p := New()
	defer p.Close()
	m := newMap(t, connect(t, p, sdk.LibraryMaps), 10)

	far := geo.LatLng(43.65, -77.0)
	b, ok := m.Bounds()
	require.True(t, ok)
	assert.False(t, geo.Contains(b, far))

	idle := make(chan struct{}, 1)
	m.AddListenerOnce(sdk.EventIdle, func(sdk.Event) { idle <- struct{}{} })
	m.PanTo(far)

	select {
	case <-idle:
	case <-time.After(time.Second):
		t.Fatal("idle not delivered")
	}
	b, _ = m.Bounds()
	assert.True(t, geo.Contains(b, far))

	trace := p.Trace()
	pan := trace[len(trace)-2]
	assert.Equal(t, OpPanTo, pan.Op)
	assert.Equal(t, false, pan.Args["visible"])
	assert.Equal(t, geo.E7(-77.0), pan.Args["lng_e7"])
}

func TestMap_WithoutBounds(t *testing.T) {
	p := New(WithoutBounds())
	defer p.Close()
	m := newMap(t, connect(t, p, sdk.LibraryMaps), 10)

	_, ok := m.Bounds()
	assert.False(t, ok)
}

func TestMarker_Attachment(t *testing.T) {
	p := New()
	defer p.Close()
	c := connect(t, p, sdk.LibraryMaps, sdk.LibraryMarker)
	m := newMap(t, c, 10)

	raw, err := c.NewMarker(sdk.MarkerOptions{Position: geo.LatLng(1, 2), Title: "a"})
	require.NoError(t, err)
	mk := raw.(*Marker)
	assert.False(t, mk.Attached())

	mk.SetMap(m)
	assert.True(t, mk.Attached())
	assert.Equal(t, "a", mk.Title())

	mk.SetMap(nil)
	assert.False(t, mk.Attached())
}

func TestData_RenderedFollowsMapAndOverrides(t *testing.T) {
	p := New()
	defer p.Close()
	c := connect(t, p, sdk.LibraryMaps)
	m := newMap(t, c, 10)

	raw, err := c.NewData(sdk.DataOptions{Style: sdk.Style{FillColor: sdk.Ptr("#FF0000")}})
	require.NoError(t, err)
	d := raw.(*Data)

	a := c.NewDataFeature("a", orb.Polygon{geo.Ring([][2]float64{{0, 0}, {0, 1}, {1, 1}})})
	b := c.NewDataFeature("b", orb.Polygon{geo.Ring([][2]float64{{0, 0}, {0, 2}, {2, 2}})})
	d.Add(a)
	d.Add(b)
	assert.Empty(t, d.RenderedIDs(), "not on a map yet")

	d.SetMap(m)
	assert.Equal(t, []string{"a", "b"}, d.RenderedIDs())

	d.OverrideStyle(a, sdk.Style{Visible: sdk.Ptr(false)})
	d.OverrideStyle(a, sdk.Style{StrokeWeight: sdk.Ptr(4.0)})
	assert.Equal(t, []string{"b"}, d.RenderedIDs())
	assert.Equal(t, "#FF0000", *d.EffectiveStyle("a").FillColor)
	assert.Equal(t, 4.0, *d.EffectiveStyle("a").StrokeWeight)

	d.RevertStyle(nil)
	assert.Equal(t, []string{"a", "b"}, d.RenderedIDs())

	d.Remove(a)
	assert.False(t, d.Has("a"))
	assert.Equal(t, 1, d.Len())
}

func TestData_DispatchDeliversFeature(t *testing.T) {
	p := New()
	defer p.Close()
	c := connect(t, p, sdk.LibraryMaps)
	raw, err := c.NewData(sdk.DataOptions{})
	require.NoError(t, err)
	d := raw.(*Data)
	d.Add(c.NewDataFeature("a", orb.Polygon{geo.Ring([][2]float64{{0, 0}, {0, 1}, {1, 1}})}))

	got := make(chan string, 2)
	d.AddListener(sdk.EventClick, func(e sdk.Event) { got <- e.Feature.ID() })
	d.Dispatch(sdk.EventClick, "a")
	d.Dispatch(sdk.EventClick, "missing")
	p.Flush()

	require.Len(t, got, 1)
	assert.Equal(t, "a", <-got)

	d.ClearListeners()
	d.Dispatch(sdk.EventClick, "a")
	p.Flush()
	assert.Len(t, got, 0)
}

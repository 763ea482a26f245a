package maps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
	"github.com/roach88/salesmap/internal/testutil"
)

// ops returns the trace ops after the surface was created.
func ops(p *simsdk.Platform) []string {
	var out []string
	for _, e := range p.Trace() {
		switch e.Op {
		case simsdk.OpSetZoom, simsdk.OpPanTo:
			out = append(out, e.Op)
		case simsdk.OpEmit:
			out = append(out, e.Args["event"].(string))
		}
	}
	return out
}

func TestSmoothZoom_WithoutLocationStepsOneLevelAtATime(t *testing.T) {
	s, p := newTestSurface(t)

	require.NoError(t, s.SmoothZoom(context.Background(), 13, nil))

	z, _ := s.Zoom()
	assert.Equal(t, 13, z)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 3, p.Count(simsdk.OpSetZoom))
	assert.Equal(t, []string{
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
	}, ops(p), "each step waits for its confirmation")

	var steps [][2]int
	for _, e := range p.Trace() {
		if e.Op == simsdk.OpSetZoom {
			steps = append(steps, [2]int{e.Args["from"].(int), e.Args["to"].(int)})
		}
	}
	assert.Equal(t, [][2]int{{10, 11}, {11, 12}, {12, 13}}, steps)
}

func TestZoomTo_Converges(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		target int
	}{
		{"in", 3, 9},
		{"out", 15, 11},
		{"noop", 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testSurfaceOptions()
			opts.Map.Zoom = tt.start
			s, p := newTestSurfaceWith(t, opts)

			require.NoError(t, s.ZoomTo(context.Background(), tt.target))

			z, _ := s.Zoom()
			assert.Equal(t, tt.target, z)
			want := tt.target - tt.start
			if want < 0 {
				want = -want
			}
			assert.Equal(t, want, p.Count(simsdk.OpEmit, string(sdk.EventZoomChanged)))
			assert.Equal(t, Idle, s.State())
		})
	}
}

func TestSmoothZoom_ClampsTarget(t *testing.T) {
	opts := testSurfaceOptions()
	opts.Map.MaxZoom = 12
	s, p := newTestSurfaceWith(t, opts)

	require.NoError(t, s.SmoothZoom(context.Background(), 30, nil))

	z, _ := s.Zoom()
	assert.Equal(t, 12, z)
	assert.Equal(t, 2, p.Count(simsdk.OpSetZoom))
}

func TestSmoothZoom_ZoomsOutUntilLocationVisibleThenPans(t *testing.T) {
	hooks := &testutil.Hooks{}
	opts := testSurfaceOptions()
	opts.Hooks = hooks
	s, p := newTestSurfaceWith(t, opts)
	location := geo.LatLng(43.65, -77.0)
	require.False(t, s.InBounds(location))

	require.NoError(t, s.SmoothZoom(context.Background(), 12, &location))

	z, _ := s.Zoom()
	assert.Equal(t, 12, z)
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, []string{
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
		"pan_to", "idle",
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
		"set_zoom", "zoom_changed",
	}, ops(p))

	for _, e := range p.Trace() {
		if e.Op == simsdk.OpPanTo {
			assert.Equal(t, true, e.Args["visible"], "pan is only issued once the location is in bounds")
		}
	}
	assert.Equal(t, []string{
		"state s1 idle->zooming",
		"zoom s1 10->9",
		"zoom s1 9->8",
		"state s1 zooming->panning",
		"pan s1",
		"state s1 panning->zooming",
		"zoom s1 8->9",
		"zoom s1 9->10",
		"zoom s1 10->11",
		"zoom s1 11->12",
		"state s1 zooming->idle",
	}, hooks.Calls())
}

func TestSmoothZoom_VisibleLocationPansFirst(t *testing.T) {
	hooks := &testutil.Hooks{}
	opts := testSurfaceOptions()
	opts.Hooks = hooks
	s, p := newTestSurfaceWith(t, opts)
	location := geo.LatLng(43.7, -79.4)

	require.NoError(t, s.SmoothZoom(context.Background(), 10, &location))

	assert.Equal(t, []string{"pan_to", "idle"}, ops(p))
	assert.Equal(t, Idle, s.State(), "a pan with no zoom still settles")
	assert.Equal(t, []string{
		"state s1 idle->panning",
		"pan s1",
		"state s1 panning->idle",
	}, hooks.Calls())
}

func TestSmoothZoom_NoViewportIsNeverInBounds(t *testing.T) {
	opts := testSurfaceOptions()
	opts.Map.MinZoom = 8
	s, p := newTestSurfaceWith(t, opts, simsdk.WithoutBounds())
	location := toronto

	err := s.SmoothZoom(context.Background(), 12, &location)

	require.Error(t, err)
	assert.True(t, IsUnreachableError(err))
	assert.Equal(t, 0, p.Count(simsdk.OpPanTo))
	assert.Equal(t, 2, p.Count(simsdk.OpSetZoom))
	assert.Equal(t, Idle, s.State())
}

func TestSmoothZoom_CancelledContext(t *testing.T) {
	s, p := newTestSurface(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SmoothZoom(ctx, 13, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Count(simsdk.OpSetZoom))
	assert.Equal(t, Idle, s.State())
}

func TestSmoothZoom_StopsWhenSurfaceDeleted(t *testing.T) {
	opts := testSurfaceOptions()
	opts.StepDelay = time.Hour
	s, p := newTestSurfaceWith(t, opts)

	errc := make(chan error, 1)
	go func() { errc <- s.SmoothZoom(context.Background(), 13, nil) }()
	require.Eventually(t, func() bool { return s.State() == Zooming }, time.Second, time.Millisecond)

	s.Delete()

	select {
	case err := <-errc:
		assert.True(t, IsSurfaceDeletedError(err), "got %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("zoom still waiting after delete")
	}
	assert.Equal(t, 0, p.Count(simsdk.OpSetZoom))
	assert.Equal(t, Idle, s.State())

	err := s.ZoomTo(context.Background(), 12)
	assert.True(t, IsSurfaceDeletedError(err))
}

func TestZoomTo_DefaultStepDelay(t *testing.T) {
	opts := testSurfaceOptions()
	opts.StepDelay = 0
	s, _ := newTestSurfaceWith(t, opts)

	start := time.Now()
	require.NoError(t, s.ZoomTo(context.Background(), 12))

	assert.GreaterOrEqual(t, time.Since(start), 2*DefaultStepDelay)
}

func TestStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		from AnimationState
		ev   animationEvent
		to   AnimationState
		ok   bool
	}{
		{Idle, eventZoom, Zooming, true},
		{Idle, eventPan, Panning, true},
		{Idle, eventSettle, Idle, false},
		{Zooming, eventPan, Panning, true},
		{Zooming, eventSettle, Idle, true},
		{Zooming, eventZoom, Zooming, false},
		{Panning, eventZoom, Zooming, true},
		{Panning, eventSettle, Idle, true},
		{Panning, eventPan, Panning, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			m := &stateMachine{current: tt.from}
			from, to, ok := m.send(tt.ev)
			assert.Equal(t, tt.from, from)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.to, m.state())
		})
	}
}

package maps

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/sdk"
)

// SmoothZoom animates to target one confirmed level at a time. With a
// location, it first zooms out until the location is inside the viewport,
// pans to it and waits for the map to settle, then zooms to target. The
// surface returns to Idle when the animation ends, whether or not it
// succeeded.
//
// Targets outside the zoom range are clamped. A location still outside the
// viewport at the minimum zoom fails with LOCATION_UNREACHABLE. Cancelling
// ctx, or deleting the surface, abandons the wait for the next SDK
// confirmation; a command already issued is not undone.
func (s *Surface) SmoothZoom(ctx context.Context, target int, location *orb.Point) error {
	if _, ok := s.m.Zoom(); !ok {
		return nil
	}
	target = clamp(target, s.minZoom, s.maxZoom)

	var err error
	if location != nil {
		err = s.panAndZoom(ctx, target, *location)
	} else {
		err = s.zoomTo(ctx, target)
	}
	s.settle()
	return err
}

// ZoomTo steps to target without panning and returns to Idle.
func (s *Surface) ZoomTo(ctx context.Context, target int) error {
	err := s.zoomTo(ctx, clamp(target, s.minZoom, s.maxZoom))
	s.settle()
	return err
}

// InBounds reports whether p is inside the current viewport. A map that
// reports no viewport contains nothing.
func (s *Surface) InBounds(p orb.Point) bool {
	b, ok := s.m.Bounds()
	if !ok {
		return false
	}
	return geo.Contains(b, p)
}

func (s *Surface) panAndZoom(ctx context.Context, target int, location orb.Point) error {
	for !s.InBounds(location) {
		current, ok := s.m.Zoom()
		if !ok {
			return nil
		}
		if current <= s.minZoom {
			return &Error{
				Code:    ErrCodeLocationUnreachable,
				Entity:  "surface",
				ID:      s.id,
				Message: fmt.Sprintf("location %s is outside the viewport at minimum zoom %d", geo.FormatLatLng(location), s.minZoom),
			}
		}
		if err := s.zoomTo(ctx, current-1); err != nil {
			return err
		}
	}

	s.send(eventPan)
	idle := make(chan struct{})
	l := s.m.AddListenerOnce(sdk.EventIdle, func(sdk.Event) { close(idle) })
	s.m.PanTo(location)
	s.logger.Debug("panning", "location", geo.FormatLatLng(location))
	if s.hooks != nil {
		s.hooks.Panned(s.id)
	}

	select {
	case <-idle:
	case <-ctx.Done():
		l.Remove()
		return ctx.Err()
	case <-s.gone:
		return s.deletedError()
	}
	return s.zoomTo(ctx, target)
}

// zoomTo issues one zoom command per level and waits for the map to confirm
// each before issuing the next.
func (s *Surface) zoomTo(ctx context.Context, target int) error {
	for {
		current, ok := s.m.Zoom()
		if !ok || current == target {
			return nil
		}
		next := current - 1
		if target > current {
			next = current + 1
		}

		if s.State() != Zooming {
			s.send(eventZoom)
		}

		confirmed := make(chan struct{})
		l := s.m.AddListenerOnce(sdk.EventZoomChanged, func(sdk.Event) { close(confirmed) })
		if err := s.wait(ctx); err != nil {
			l.Remove()
			return err
		}
		s.m.SetZoom(next)
		s.logger.Debug("zoom step", "from", current, "to", next, "target", target)
		if s.hooks != nil {
			s.hooks.ZoomStep(s.id, current, next)
		}

		select {
		case <-confirmed:
		case <-ctx.Done():
			l.Remove()
			return ctx.Err()
		case <-s.gone:
			return s.deletedError()
		}
	}
}

// wait sleeps the step delay before the next zoom command.
func (s *Surface) wait(ctx context.Context) error {
	select {
	case <-s.gone:
		return s.deletedError()
	default:
	}
	if s.stepDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.stepDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.gone:
		return s.deletedError()
	}
}

func (s *Surface) deletedError() *Error {
	return &Error{
		Code:    ErrCodeSurfaceDeleted,
		Entity:  "surface",
		ID:      s.id,
		Message: "surface deleted during animation",
	}
}

// settle returns the machine to Idle from whichever motion state it ended in.
func (s *Surface) settle() {
	if s.State() != Idle {
		s.send(eventSettle)
	}
}

func (s *Surface) send(ev animationEvent) {
	from, to, ok := s.fsm.send(ev)
	if !ok {
		s.logger.Debug("animation event ignored", "event", ev, "state", from)
		return
	}
	s.logger.Debug("animation state", "event", ev, "from", from, "to", to)
	if s.hooks != nil {
		s.hooks.StateChanged(s.id, from.String(), to.String())
	}
}

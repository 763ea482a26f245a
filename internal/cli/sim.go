package cli

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/ids"
	"github.com/roach88/salesmap/internal/loader"
	"github.com/roach88/salesmap/internal/maps"
	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
)

// simulatorKey stands in for MAPS_API_KEY; the simulator only checks it is
// set.
const simulatorKey = "simulator"

// defaultCenter is downtown Toronto.
var defaultCenter = orb.Point{-79.3832, 43.6532}

// hooks observes both the loader and the surface.
type hooks interface {
	loader.Hooks
	maps.Hooks
}

type simOptions struct {
	Center    orb.Point
	Zoom      int
	StepDelay time.Duration // zero disables the pause
	Hooks     hooks
}

// simSession is a simulated map with the configured libraries loaded.
type simSession struct {
	platform *simsdk.Platform
	surface  *maps.Surface
}

// openSim loads the configured libraries on a fresh simulator and creates
// surface "map".
func openSim(ctx context.Context, opts *RootOptions, so simOptions) (*simSession, error) {
	cfg := opts.config()
	platform := simsdk.New()

	loaderOpts := []loader.Option{loader.WithLogger(opts.logger())}
	var surfaceHooks maps.Hooks
	if so.Hooks != nil {
		loaderOpts = append(loaderOpts, loader.WithHooks(so.Hooks))
		surfaceHooks = so.Hooks
	}

	sdkCfg := cfg.SDK()
	if sdkCfg.APIKey == "" {
		sdkCfg.APIKey = simulatorKey
	}
	provider, err := loader.NewProvider(ctx, loader.New(platform, loaderOpts...), loader.ProviderOptions{
		Config:    sdkCfg,
		Libraries: cfg.LibraryNames(),
	})
	if err != nil {
		platform.Close()
		return nil, err
	}

	delay := so.StepDelay
	if delay == 0 {
		delay = -1
	}
	surface, err := maps.NewSurface(provider, maps.SurfaceOptions{
		ID:        "map",
		Container: "map",
		Map:       sdk.MapOptions{Center: so.Center, Zoom: so.Zoom},
		StepDelay: delay,
		IDs:       ids.NewCounter("map"),
		Logger:    opts.logger(),
		Hooks:     surfaceHooks,
	})
	if err != nil {
		platform.Close()
		return nil, err
	}
	return &simSession{platform: platform, surface: surface}, nil
}

// Close deletes the surface and stops the simulator.
func (s *simSession) Close() {
	s.surface.Delete()
	s.platform.Close()
}

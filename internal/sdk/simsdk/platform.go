package simsdk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/roach88/salesmap/internal/sdk"
)

// ErrMissingAPIKey is returned by Connect when no API key is configured.
var ErrMissingAPIKey = errors.New("simsdk: api key is required")

// Default viewport in pixels.
const (
	DefaultViewportWidth  = 1024
	DefaultViewportHeight = 768
)

// Platform simulates an SDK: it accepts connections, imports libraries and
// owns the event loop every handle dispatches on.
type Platform struct {
	loop   *eventLoop
	cancel context.CancelFunc

	traceMu sync.Mutex
	trace   []TraceEntry
	seq     int64

	mu            sync.Mutex
	imports       map[sdk.Library]int
	imported      map[sdk.Library]bool
	failures      map[sdk.Library]error
	importLatency time.Duration
	boundsHidden  bool
	width, height int
	maps          int
}

// Option configures a Platform.
type Option func(*Platform)

// WithImportLatency delays every library import.
func WithImportLatency(d time.Duration) Option {
	return func(p *Platform) {
		p.importLatency = d
	}
}

// WithLibraryFailure makes imports of name fail with err.
func WithLibraryFailure(name sdk.Library, err error) Option {
	return func(p *Platform) {
		p.failures[name] = err
	}
}

// WithoutBounds makes every map report no viewport.
func WithoutBounds() Option {
	return func(p *Platform) {
		p.boundsHidden = true
	}
}

// WithViewport sets the simulated viewport size in pixels.
func WithViewport(width, height int) Option {
	return func(p *Platform) {
		if width > 0 {
			p.width = width
		}
		if height > 0 {
			p.height = height
		}
	}
}

// New creates a platform and starts its event loop. Call Close when done.
func New(opts ...Option) *Platform {
	p := &Platform{
		loop:     newEventLoop(),
		imports:  make(map[sdk.Library]int),
		imported: make(map[sdk.Library]bool),
		failures: make(map[sdk.Library]error),
		width:    DefaultViewportWidth,
		height:   DefaultViewportHeight,
	}
	for _, opt := range opts {
		opt(p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.loop.run(ctx)
	return p
}

// Close stops the event loop and waits for it to exit. Pending events are
// dropped.
func (p *Platform) Close() {
	p.cancel()
	<-p.loop.done
}

// Flush blocks until every event enqueued before the call was delivered.
func (p *Platform) Flush() {
	done := make(chan struct{})
	if !p.loop.enqueue(func() { close(done) }) {
		return
	}
	<-done
}

// Imports reports how many import requests reached the platform for name.
func (p *Platform) Imports(name sdk.Library) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imports[name]
}

// Imported reports whether name was imported successfully.
func (p *Platform) Imported(name sdk.Library) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.imported[name]
}

// Connect validates cfg and returns a client bound to this platform.
func (p *Platform) Connect(cfg sdk.Config) (sdk.Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	p.record(OpConnect, "", map[string]any{"version": cfg.Version})
	return &Client{platform: p}, nil
}

// Client is a connected simulated SDK.
type Client struct {
	platform *Platform
}

var _ sdk.Client = (*Client)(nil)

// ImportLibrary simulates an asynchronous import.
func (c *Client) ImportLibrary(ctx context.Context, name sdk.Library) error {
	p := c.platform
	p.mu.Lock()
	p.imports[name]++
	latency := p.importLatency
	failure := p.failures[name]
	p.mu.Unlock()

	p.record(OpImportLibrary, string(name), nil)

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failure != nil {
		return failure
	}

	p.mu.Lock()
	p.imported[name] = true
	p.mu.Unlock()
	return nil
}

func (c *Client) requireLibrary(name sdk.Library) error {
	if !c.platform.Imported(name) {
		return fmt.Errorf("simsdk: library %q is not imported", name)
	}
	return nil
}

// NewMap creates a map. Requires the maps library.
func (c *Client) NewMap(container string, opts sdk.MapOptions) (sdk.Map, error) {
	if err := c.requireLibrary(sdk.LibraryMaps); err != nil {
		return nil, err
	}
	if container == "" {
		return nil, errors.New("simsdk: map container is required")
	}
	p := c.platform
	p.mu.Lock()
	p.maps++
	id := opts.MapID
	if id == "" {
		id = fmt.Sprintf("map-%d", p.maps)
	}
	p.mu.Unlock()

	maxZoom := opts.MaxZoom
	if maxZoom <= 0 {
		maxZoom = 22
	}
	m := &Map{
		emitter:   newEmitter(p, id),
		platform:  p,
		id:        id,
		container: container,
		zoom:      clampInt(opts.Zoom, opts.MinZoom, maxZoom),
		minZoom:   opts.MinZoom,
		maxZoom:   maxZoom,
		center:    opts.Center,
	}
	p.record(OpNewMap, id, map[string]any{"zoom": m.zoom})
	return m, nil
}

// NewMarker creates a detached marker. Requires the marker library.
func (c *Client) NewMarker(opts sdk.MarkerOptions) (sdk.Marker, error) {
	if err := c.requireLibrary(sdk.LibraryMarker); err != nil {
		return nil, err
	}
	return &Marker{position: opts.Position, title: opts.Title}, nil
}

// NewData creates a data layer. Requires the maps library.
func (c *Client) NewData(opts sdk.DataOptions) (sdk.Data, error) {
	if err := c.requireLibrary(sdk.LibraryMaps); err != nil {
		return nil, err
	}
	d := &Data{
		emitter:   newEmitter(c.platform, "data"),
		features:  make(map[string]*DataFeature),
		overrides: make(map[string]sdk.Style),
		style:     opts.Style,
	}
	if opts.Map != nil {
		d.SetMap(opts.Map)
	}
	return d, nil
}

// NewDataFeature creates a polygon feature for a data layer.
func (c *Client) NewDataFeature(id string, geometry orb.Polygon) sdk.DataFeature {
	return &DataFeature{id: id, geometry: geometry}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/salesmap/internal/sdk"
)

// Hooks observes library state changes. Arguments are plain strings so
// observers need not import this package.
type Hooks interface {
	LibraryRequested(library string)
	LibrarySettled(library, state string)
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithHooks registers an observer of library state changes.
func WithHooks(h Hooks) Option {
	return func(l *Loader) {
		l.hooks = h
	}
}

type entry struct {
	state   State
	err     error
	settled chan struct{}
}

// Loader loads SDK libraries once each.
//
// Thread-safety: all methods are safe for concurrent use. Imports run on
// their own goroutines and outlive the context of the call that started
// them, so a cancelled caller never leaves a library stuck in Loading.
type Loader struct {
	platform sdk.Platform
	logger   *slog.Logger
	hooks    Hooks

	mu          sync.Mutex
	initialized bool
	config      sdk.Config
	client      sdk.Client
	entries     map[sdk.Library]*entry
}

// New creates a loader for platform. Call Init before loading libraries.
func New(platform sdk.Platform, opts ...Option) *Loader {
	l := &Loader{
		platform: platform,
		logger:   slog.Default(),
		entries:  make(map[sdk.Library]*entry),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Init connects to the platform with cfg. Subsequent calls are no-ops; a
// differing cfg is ignored with a warning.
func (l *Loader) Init(cfg sdk.Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		if cfg != l.config {
			l.logger.Warn("loader already initialized with different options, new options ignored",
				"initial", l.config,
				"ignored", cfg,
			)
		}
		return nil
	}

	client, err := l.platform.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	l.client = client
	l.config = cfg
	l.initialized = true
	l.logger.Debug("loader initialized", "config", cfg)
	return nil
}

// Initialized reports whether Init succeeded.
func (l *Loader) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.initialized
}

// Config returns the configuration that won initialisation.
func (l *Loader) Config() sdk.Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.config
}

// Client returns the connected client.
func (l *Loader) Client() (sdk.Client, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return nil, ErrNotInitialized
	}
	return l.client, nil
}

// LoadLibraries imports every named library not yet requested and waits
// until all named libraries settle. It fails if any of them ended in Error,
// joining one LoadError per failed library. Libraries that loaded keep their
// state. Cancelling ctx stops the wait only.
func (l *Loader) LoadLibraries(ctx context.Context, names ...sdk.Library) error {
	l.mu.Lock()
	if !l.initialized {
		l.mu.Unlock()
		return ErrNotInitialized
	}
	client := l.client

	seen := make(map[sdk.Library]bool, len(names))
	var (
		waits   []sdk.Library
		entries []*entry
		started []*entry
		issued  []sdk.Library
	)
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		e, ok := l.entries[name]
		if !ok {
			e = &entry{state: Loading, settled: make(chan struct{})}
			l.entries[name] = e
			started = append(started, e)
			issued = append(issued, name)
		}
		waits = append(waits, name)
		entries = append(entries, e)
	}
	l.mu.Unlock()

	importCtx := context.WithoutCancel(ctx)
	for i, e := range started {
		name := issued[i]
		if l.hooks != nil {
			l.hooks.LibraryRequested(string(name))
		}
		l.logger.Debug("loading library", "library", name)
		go l.load(importCtx, client, name, e)
	}

	var errs []error
	for i, e := range entries {
		select {
		case <-e.settled:
		case <-ctx.Done():
			return ctx.Err()
		}
		l.mu.Lock()
		state, err := e.state, e.err
		l.mu.Unlock()
		if state == Error {
			errs = append(errs, &LoadError{Library: waits[i], Err: err})
		}
	}
	return errors.Join(errs...)
}

func (l *Loader) load(ctx context.Context, client sdk.Client, name sdk.Library, e *entry) {
	err := client.ImportLibrary(ctx, name)

	l.mu.Lock()
	if err != nil {
		e.state = Error
		e.err = err
	} else {
		e.state = Loaded
	}
	state := e.state
	l.mu.Unlock()

	if err != nil {
		l.logger.Error("library load failed", "library", name, "error", err)
	} else {
		l.logger.Debug("library loaded", "library", name)
	}
	if l.hooks != nil {
		l.hooks.LibrarySettled(string(name), state.String())
	}
	close(e.settled)
}

// State returns the load state of name.
func (l *Loader) State(name sdk.Library) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[name]; ok {
		return e.state
	}
	return NotLoaded
}

// Err returns the import error of name, if it failed.
func (l *Loader) Err(name sdk.Library) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[name]; ok {
		return e.err
	}
	return nil
}

// States returns the state of every catalogued library.
func (l *Loader) States() map[sdk.Library]State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[sdk.Library]State, len(sdk.Libraries))
	for _, lib := range sdk.Libraries {
		out[lib] = NotLoaded
	}
	for lib, e := range l.entries {
		out[lib] = e.state
	}
	return out
}

// LoadedLibraries lists loaded libraries in catalogue order.
func (l *Loader) LoadedLibraries() []sdk.Library {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []sdk.Library
	for _, lib := range sdk.Libraries {
		if e, ok := l.entries[lib]; ok && e.state == Loaded {
			out = append(out, lib)
		}
	}
	return out
}

// Reset forgets the connection and every library state. Imports still in
// flight settle into the discarded state.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initialized = false
	l.config = sdk.Config{}
	l.client = nil
	l.entries = make(map[sdk.Library]*entry)
}

var shared struct {
	mu     sync.Mutex
	loader *Loader
}

// Shared returns the process-wide loader, creating it for platform on first
// use. Later calls return the same loader and ignore their arguments.
func Shared(platform sdk.Platform, opts ...Option) *Loader {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if shared.loader == nil {
		shared.loader = New(platform, opts...)
	}
	return shared.loader
}

// ResetShared drops the process-wide loader.
func ResetShared() {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	shared.loader = nil
}

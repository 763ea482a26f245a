package loader

import (
	"context"
	"fmt"

	"github.com/roach88/salesmap/internal/sdk"
)

// DefaultLibraries are requested when a provider names none.
var DefaultLibraries = []sdk.Library{sdk.LibraryMaps}

// ProviderOptions configures a Provider.
type ProviderOptions struct {
	Config    sdk.Config
	Libraries []sdk.Library
	// OnError receives initialisation or load failures. When set,
	// NewProvider returns the provider instead of the error.
	OnError func(error)
}

// Provider is a loader scoped to the libraries its caller requires.
type Provider struct {
	loader    *Loader
	requested []sdk.Library
	err       error
}

// NewProvider initialises l with opts.Config and loads opts.Libraries.
// Failures go to opts.OnError if set, otherwise they are returned.
func NewProvider(ctx context.Context, l *Loader, opts ProviderOptions) (*Provider, error) {
	libs := opts.Libraries
	if len(libs) == 0 {
		libs = DefaultLibraries
	}
	p := &Provider{loader: l, requested: dedupe(libs)}

	err := l.Init(opts.Config)
	if err == nil {
		err = l.LoadLibraries(ctx, p.requested...)
	}
	if err != nil {
		err = fmt.Errorf("provider: %w", err)
		if opts.OnError == nil {
			return nil, err
		}
		p.err = err
		opts.OnError(err)
	}
	return p, nil
}

func dedupe(libs []sdk.Library) []sdk.Library {
	seen := make(map[sdk.Library]bool, len(libs))
	out := make([]sdk.Library, 0, len(libs))
	for _, lib := range libs {
		if seen[lib] {
			continue
		}
		seen[lib] = true
		out = append(out, lib)
	}
	return out
}

// Loader returns the underlying loader.
func (p *Provider) Loader() *Loader { return p.loader }

// Err returns the failure routed to OnError, if any.
func (p *Provider) Err() error { return p.err }

// RequestedLibraries lists the libraries the caller asked for.
func (p *Provider) RequestedLibraries() []sdk.Library {
	return append([]sdk.Library(nil), p.requested...)
}

// LoadedLibraries lists every loaded library in catalogue order.
func (p *Provider) LoadedLibraries() []sdk.Library {
	return p.loader.LoadedLibraries()
}

// States returns the loader state of every catalogued library.
func (p *Provider) States() map[sdk.Library]State {
	return p.loader.States()
}

// Loaded reports whether name is loaded.
func (p *Provider) Loaded(name sdk.Library) bool {
	return p.loader.State(name) == Loaded
}

// IsFullyLoaded reports whether every requested library is loaded. It is
// derived from the current loader state on every call.
func (p *Provider) IsFullyLoaded() bool {
	for _, lib := range p.requested {
		if !p.Loaded(lib) {
			return false
		}
	}
	return true
}

// Client returns the connected SDK client.
func (p *Provider) Client() (sdk.Client, error) {
	return p.loader.Client()
}

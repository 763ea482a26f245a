// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/loader"
	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
)

// TestConfig is a valid connection config for the simulator.
var TestConfig = sdk.Config{APIKey: "test-key", Version: "weekly"}

// NewPlatform starts a simulator closed at test cleanup.
func NewPlatform(t testing.TB, opts ...simsdk.Option) *simsdk.Platform {
	t.Helper()
	p := simsdk.New(opts...)
	t.Cleanup(p.Close)
	return p
}

// NewProvider returns a provider on p with libs loaded. It uses a fresh
// loader, never the shared one.
func NewProvider(t testing.TB, p *simsdk.Platform, libs ...sdk.Library) *loader.Provider {
	t.Helper()
	if len(libs) == 0 {
		libs = []sdk.Library{sdk.LibraryMaps, sdk.LibraryMarker}
	}
	prov, err := loader.NewProvider(context.Background(), loader.New(p), loader.ProviderOptions{
		Config:    TestConfig,
		Libraries: libs,
	})
	require.NoError(t, err)
	return prov
}

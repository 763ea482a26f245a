package loader

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/sdk"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
)

var testConfig = sdk.Config{APIKey: "test-key", Version: "weekly"}

func newLoader(t *testing.T, opts ...simsdk.Option) (*Loader, *simsdk.Platform) {
	t.Helper()
	p := simsdk.New(opts...)
	t.Cleanup(p.Close)
	l := New(p)
	require.NoError(t, l.Init(testConfig))
	return l, p
}

type recordingHooks struct {
	mu        sync.Mutex
	requested []string
	settled   map[string]string
}

func (h *recordingHooks) LibraryRequested(library string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requested = append(h.requested, library)
}

func (h *recordingHooks) LibrarySettled(library, state string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.settled == nil {
		h.settled = make(map[string]string)
	}
	h.settled[library] = state
}

func TestLoader_LoadBeforeInit(t *testing.T) {
	p := simsdk.New()
	defer p.Close()

	err := New(p).LoadLibraries(context.Background(), sdk.LibraryMaps)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestLoader_InitFailsWithoutAPIKey(t *testing.T) {
	p := simsdk.New()
	defer p.Close()
	l := New(p)

	err := l.Init(sdk.Config{})
	assert.ErrorIs(t, err, simsdk.ErrMissingAPIKey)
	assert.False(t, l.Initialized())
}

func TestLoader_InitFirstConfigWins(t *testing.T) {
	p := simsdk.New()
	defer p.Close()

	var buf bytes.Buffer
	l := New(p, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	require.NoError(t, l.Init(testConfig))
	require.NoError(t, l.Init(testConfig))
	assert.Empty(t, buf.String(), "same options do not warn")

	other := testConfig
	other.Region = "CA"
	require.NoError(t, l.Init(other))

	assert.Equal(t, testConfig, l.Config())
	assert.Contains(t, buf.String(), "already initialized")
	assert.NotContains(t, buf.String(), "test-key", "api key must be redacted")
	assert.Equal(t, 1, p.Count(simsdk.OpConnect))
}

func TestLoader_LoadIsIdempotent(t *testing.T) {
	l, p := newLoader(t)
	ctx := context.Background()

	require.NoError(t, l.LoadLibraries(ctx, sdk.LibraryMaps, sdk.LibraryMarker))
	require.NoError(t, l.LoadLibraries(ctx, sdk.LibraryMarker, sdk.LibraryMaps, sdk.LibraryMaps))

	assert.Equal(t, 1, p.Imports(sdk.LibraryMaps))
	assert.Equal(t, 1, p.Imports(sdk.LibraryMarker))
	assert.Equal(t, Loaded, l.State(sdk.LibraryMaps))
	assert.Equal(t, NotLoaded, l.State(sdk.LibraryPlaces))
}

func TestLoader_ConcurrentCallsJoinInFlightImport(t *testing.T) {
	l, p := newLoader(t, simsdk.WithImportLatency(20*time.Millisecond))

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.LoadLibraries(context.Background(), sdk.LibraryMaps)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, p.Imports(sdk.LibraryMaps))
	assert.Equal(t, Loaded, l.State(sdk.LibraryMaps))
}

func TestLoader_FailureIsTerminalAndAggregated(t *testing.T) {
	boom := errors.New("boom")
	l, p := newLoader(t, simsdk.WithLibraryFailure(sdk.LibraryPlaces, boom))
	ctx := context.Background()

	err := l.LoadLibraries(ctx, sdk.LibraryMaps, sdk.LibraryPlaces)
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []sdk.Library{sdk.LibraryPlaces}, FailedLibraries(err))

	assert.Equal(t, Loaded, l.State(sdk.LibraryMaps), "successful libraries keep their state")
	assert.Equal(t, Error, l.State(sdk.LibraryPlaces))
	assert.ErrorIs(t, l.Err(sdk.LibraryPlaces), boom)

	err = l.LoadLibraries(ctx, sdk.LibraryPlaces)
	assert.ErrorIs(t, err, boom, "prior error is propagated")
	assert.Equal(t, 1, p.Imports(sdk.LibraryPlaces), "failed library is not re-imported")
}

func TestLoader_CancelledWaitLeavesImportRunning(t *testing.T) {
	l, _ := newLoader(t, simsdk.WithImportLatency(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := l.LoadLibraries(ctx, sdk.LibraryMaps)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, l.LoadLibraries(context.Background(), sdk.LibraryMaps))
	assert.Equal(t, Loaded, l.State(sdk.LibraryMaps))
}

func TestLoader_LoadedLibrariesInCatalogueOrder(t *testing.T) {
	l, _ := newLoader(t)
	require.NoError(t, l.LoadLibraries(context.Background(), sdk.LibraryMarker, sdk.LibraryCore, sdk.LibraryMaps))

	assert.Equal(t, []sdk.Library{sdk.LibraryCore, sdk.LibraryMaps, sdk.LibraryMarker}, l.LoadedLibraries())

	states := l.States()
	assert.Len(t, states, len(sdk.Libraries))
	assert.Equal(t, NotLoaded, states[sdk.LibraryDrawing])
}

func TestLoader_Hooks(t *testing.T) {
	p := simsdk.New(simsdk.WithLibraryFailure(sdk.LibraryRoutes, errors.New("nope")))
	defer p.Close()
	h := &recordingHooks{}
	l := New(p, WithHooks(h))
	require.NoError(t, l.Init(testConfig))

	_ = l.LoadLibraries(context.Background(), sdk.LibraryMaps, sdk.LibraryRoutes)

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.ElementsMatch(t, []string{"maps", "routes"}, h.requested)
	assert.Equal(t, map[string]string{"maps": "LOADED", "routes": "ERROR"}, h.settled)
}

func TestLoader_Reset(t *testing.T) {
	l, p := newLoader(t)
	require.NoError(t, l.LoadLibraries(context.Background(), sdk.LibraryMaps))

	l.Reset()
	assert.False(t, l.Initialized())
	assert.Equal(t, NotLoaded, l.State(sdk.LibraryMaps))

	require.NoError(t, l.Init(testConfig))
	require.NoError(t, l.LoadLibraries(context.Background(), sdk.LibraryMaps))
	assert.Equal(t, 2, p.Imports(sdk.LibraryMaps))
}

func TestShared(t *testing.T) {
	t.Cleanup(ResetShared)
	p := simsdk.New()
	defer p.Close()

	a := Shared(p)
	b := Shared(nil)
	assert.Same(t, a, b)

	ResetShared()
	assert.NotSame(t, a, Shared(p))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "NOT_LOADED", NotLoaded.String())
	assert.Equal(t, "LOADING", Loading.String())
	assert.Equal(t, "LOADED", Loaded.String())
	assert.Equal(t, "ERROR", Error.String())
	assert.True(t, Error.Settled())
	assert.False(t, Loading.Settled())
}

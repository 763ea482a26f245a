package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/salesmap/internal/sdk"
)

var keys = []string{
	"MAPS_API_KEY", "MAPS_VERSION", "MAPS_REGION", "MAPS_LANGUAGE",
	"MAPS_AUTH_REFERRER_POLICY", "MAPS_LIBRARIES",
	"SALESMAP_DB", "SALESMAP_ZOOM_STEP_DELAY", "SALESMAP_LOG_FORMAT",
}

// unsetAll clears the variables for the test and restores them afterwards.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "weekly", cfg.Version)
	assert.Equal(t, []string{"maps", "marker"}, cfg.Libraries)
	assert.Equal(t, 30*time.Millisecond, cfg.ZoomStepDelay)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []sdk.Library{sdk.LibraryMaps, sdk.LibraryMarker}, cfg.LibraryNames())
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Environment(t *testing.T) {
	unsetAll(t)
	t.Setenv("MAPS_API_KEY", "secret")
	t.Setenv("MAPS_REGION", "CA")
	t.Setenv("MAPS_LIBRARIES", "maps,places,geometry")
	t.Setenv("SALESMAP_ZOOM_STEP_DELAY", "5ms")
	t.Setenv("SALESMAP_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, sdk.Config{APIKey: "secret", Version: "weekly", Region: "CA"}, cfg.SDK())
	assert.Equal(t, []sdk.Library{sdk.LibraryMaps, sdk.LibraryPlaces, sdk.LibraryGeometry}, cfg.LibraryNames())
	assert.Equal(t, 5*time.Millisecond, cfg.ZoomStepDelay)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	unsetAll(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MAPS_API_KEY=from-file\nMAPS_LANGUAGE=fr\n"), 0o600))
	t.Setenv("MAPS_API_KEY", "from-env")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "fr", cfg.Language)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown library", "MAPS_LIBRARIES", "maps,teleport"},
		{"unknown log format", "SALESMAP_LOG_FORMAT", "xml"},
		{"bad duration", "SALESMAP_ZOOM_STEP_DELAY", "soon"},
		{"negative duration", "SALESMAP_ZOOM_STEP_DELAY", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetAll(t)
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

package sdk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Library names a feature library that can be imported from the SDK.
type Library string

const (
	LibraryCore           Library = "core"
	LibraryMaps           Library = "maps"
	LibraryPlaces         Library = "places"
	LibraryGeocoding      Library = "geocoding"
	LibraryRoutes         Library = "routes"
	LibraryMarker         Library = "marker"
	LibraryGeometry       Library = "geometry"
	LibraryElevation      Library = "elevation"
	LibraryStreetView     Library = "streetView"
	LibraryJourneySharing Library = "journeySharing"
	LibraryDrawing        Library = "drawing"
	LibraryVisualization  Library = "visualization"
)

// Libraries lists every known library in catalogue order.
var Libraries = []Library{
	LibraryCore,
	LibraryMaps,
	LibraryPlaces,
	LibraryGeocoding,
	LibraryRoutes,
	LibraryMarker,
	LibraryGeometry,
	LibraryElevation,
	LibraryStreetView,
	LibraryJourneySharing,
	LibraryDrawing,
	LibraryVisualization,
}

// ParseLibrary resolves a library name case-insensitively.
func ParseLibrary(name string) (Library, error) {
	trimmed := strings.TrimSpace(name)
	for _, lib := range Libraries {
		if strings.EqualFold(string(lib), trimmed) {
			return lib, nil
		}
	}
	return "", fmt.Errorf("unknown library %q", name)
}

// ParseLibraries resolves a list of names, failing on the first unknown one.
func ParseLibraries(names []string) ([]Library, error) {
	out := make([]Library, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		lib, err := ParseLibrary(name)
		if err != nil {
			return nil, err
		}
		out = append(out, lib)
	}
	return out, nil
}

// Config carries the connection options of an SDK client. These are the
// "non-library" options a loader compares on re-initialisation.
type Config struct {
	APIKey             string
	Version            string
	Region             string
	Language           string
	AuthReferrerPolicy string
}

// LogValue redacts the API key.
func (c Config) LogValue() slog.Value {
	key := ""
	if c.APIKey != "" {
		key = "[redacted]"
	}
	return slog.GroupValue(
		slog.String("api_key", key),
		slog.String("version", c.Version),
		slog.String("region", c.Region),
		slog.String("language", c.Language),
		slog.String("auth_referrer_policy", c.AuthReferrerPolicy),
	)
}

// Platform is the entry point of an SDK. Connect is called once per process
// by the loader.
type Platform interface {
	Connect(cfg Config) (Client, error)
}

// Importer imports one named library. Implementations may block until the
// library is available or ctx is done.
type Importer interface {
	ImportLibrary(ctx context.Context, name Library) error
}

// Client is a connected SDK: it imports libraries and constructs handles.
type Client interface {
	Importer
	Factory
}

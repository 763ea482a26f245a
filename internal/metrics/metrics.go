// Package metrics exposes loader and surface activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/salesmap/internal/loader"
	"github.com/roach88/salesmap/internal/maps"
)

// Recorder counts library loads, animation transitions, zoom steps and pans.
// Each Recorder owns its registry so tests and multiple surfaces in one
// process do not collide on the default registerer.
type Recorder struct {
	registry *prometheus.Registry

	LibraryRequests *prometheus.CounterVec
	LibrarySettles  *prometheus.CounterVec
	Transitions     *prometheus.CounterVec
	ZoomSteps       *prometheus.CounterVec
	ZoomLevel       *prometheus.GaugeVec
	Pans            *prometheus.CounterVec
}

var (
	_ loader.Hooks = (*Recorder)(nil)
	_ maps.Hooks   = (*Recorder)(nil)
)

// New creates a Recorder and registers its collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		LibraryRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesmap_library_requests_total",
			Help: "Library imports started",
		}, []string{"library"}),
		LibrarySettles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesmap_library_settled_total",
			Help: "Library imports settled by final state",
		}, []string{"library", "state"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesmap_animation_transitions_total",
			Help: "Animation state transitions",
		}, []string{"surface", "from", "to"}),
		ZoomSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesmap_zoom_steps_total",
			Help: "Single-level zoom commands issued",
		}, []string{"surface", "direction"}),
		ZoomLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "salesmap_zoom_level",
			Help: "Last requested zoom level",
		}, []string{"surface"}),
		Pans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salesmap_pans_total",
			Help: "Pan commands issued",
		}, []string{"surface"}),
	}
	r.registry.MustRegister(
		r.LibraryRequests,
		r.LibrarySettles,
		r.Transitions,
		r.ZoomSteps,
		r.ZoomLevel,
		r.Pans,
	)
	return r
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) LibraryRequested(library string) {
	r.LibraryRequests.WithLabelValues(library).Inc()
}

func (r *Recorder) LibrarySettled(library, state string) {
	r.LibrarySettles.WithLabelValues(library, state).Inc()
}

func (r *Recorder) StateChanged(surface, from, to string) {
	r.Transitions.WithLabelValues(surface, from, to).Inc()
}

func (r *Recorder) ZoomStep(surface string, from, to int) {
	dir := "in"
	if to < from {
		dir = "out"
	}
	r.ZoomSteps.WithLabelValues(surface, dir).Inc()
	r.ZoomLevel.WithLabelValues(surface).Set(float64(to))
}

func (r *Recorder) Panned(surface string) {
	r.Pans.WithLabelValues(surface).Inc()
}

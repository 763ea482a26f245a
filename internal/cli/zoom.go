package cli

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/metrics"
	"github.com/roach88/salesmap/internal/sdk/simsdk"
)

// ZoomOptions holds flags for the zoom command.
type ZoomOptions struct {
	*RootOptions
	To        int
	From      int
	Center    string
	At        string
	StepDelay time.Duration
	Metrics   bool
}

// ZoomResult is the outcome of one smooth zoom.
type ZoomResult struct {
	From    int                 `json:"from"`
	To      int                 `json:"to"`
	Zoom    int                 `json:"zoom"`
	State   string              `json:"state"`
	Error   string              `json:"error,omitempty"`
	Trace   []simsdk.TraceEntry `json:"trace"`
	Metrics string              `json:"metrics,omitempty"`
}

// NewZoomCommand creates the zoom command.
func NewZoomCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ZoomOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "zoom --to N",
		Short: "Run a smooth zoom on the simulated map",
		Long: `Run a smooth zoom on the simulated map and print the SDK commands it
issued.

The map steps one zoom level at a time and waits for each level to be
confirmed. With --at, the map first zooms out until the location is in
view, pans to it, then zooms to the target.

Exit codes:
  0 - Zoom completed
  1 - Zoom failed (location unreachable, cancelled)
  2 - Command error (invalid flags, libraries failed to load)

Examples:
  salesmap zoom --to 14
  salesmap zoom --from 12 --to 14 --at 43.70,-79.42
  salesmap zoom --to 8 --step-delay 0 --metrics --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runZoom(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.To, "to", 0, "target zoom level (required)")
	cmd.Flags().IntVar(&opts.From, "from", 10, "initial zoom level")
	cmd.Flags().StringVar(&opts.Center, "center", geo.FormatLatLng(defaultCenter), "initial centre as lat,lng")
	cmd.Flags().StringVar(&opts.At, "at", "", "location to bring into view as lat,lng")
	cmd.Flags().DurationVar(&opts.StepDelay, "step-delay", 0, "pause before each zoom command (default SALESMAP_ZOOM_STEP_DELAY, 0 disables)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "include Prometheus metrics of the run")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runZoom(opts *ZoomOptions, cmd *cobra.Command) error {
	center, err := geo.ParseLatLng(opts.Center)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --center", err)
	}
	var at *orb.Point
	if opts.At != "" {
		p, err := geo.ParseLatLng(opts.At)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --at", err)
		}
		at = &p
	}
	delay := opts.StepDelay
	if !cmd.Flags().Changed("step-delay") {
		delay = opts.config().ZoomStepDelay
	}

	so := simOptions{Center: center, Zoom: opts.From, StepDelay: delay}
	var recorder *metrics.Recorder
	if opts.Metrics {
		recorder = metrics.New()
		so.Hooks = recorder
	}
	sim, err := openSim(cmd.Context(), opts.RootOptions, so)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open map", err)
	}
	defer sim.Close()

	from, _ := sim.surface.Zoom()
	sim.platform.Flush()
	sim.platform.ResetTrace()

	zoomErr := sim.surface.SmoothZoom(cmd.Context(), opts.To, at)
	sim.platform.Flush()

	zoom, _ := sim.surface.Zoom()
	result := ZoomResult{
		From:  from,
		To:    opts.To,
		Zoom:  zoom,
		State: sim.surface.State().String(),
		Trace: sim.platform.Trace(),
	}
	if zoomErr != nil {
		result.Error = zoomErr.Error()
	}
	if recorder != nil {
		result.Metrics = scrape(recorder.Handler())
	}

	f := opts.formatter(cmd)
	if err := f.Success(result, func(w io.Writer) { writeZoomText(w, result) }); err != nil {
		return err
	}
	if zoomErr != nil {
		return WrapExitError(ExitFailure, "zoom failed", zoomErr)
	}
	return nil
}

func writeZoomText(w io.Writer, r ZoomResult) {
	for _, e := range r.Trace {
		fmt.Fprintf(w, "%4d %-14s %-6s %s\n", e.Seq, e.Op, e.Target, formatArgs(e.Args))
	}
	fmt.Fprintf(w, "zoom %d -> %d (target %d), state %s\n", r.From, r.Zoom, r.To, r.State)
	if r.Error != "" {
		fmt.Fprintf(w, "error: %s\n", r.Error)
	}
	if r.Metrics != "" {
		fmt.Fprintf(w, "\n%s", r.Metrics)
	}
}

// scrape renders the exposition text of a metrics handler.
func scrape(h http.Handler) string {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/salesmap/internal/filter"
	"github.com/roach88/salesmap/internal/geo"
	"github.com/roach88/salesmap/internal/maps"
	"github.com/roach88/salesmap/internal/store"
)

// NeighbourhoodsOptions holds flags for the neighbourhoods command.
type NeighbourhoodsOptions struct {
	*RootOptions
	DB      string
	Seed    string
	Filter  string
	Dialect string
}

// NeighbourhoodRow is one neighbourhood and whether the layer renders it.
type NeighbourhoodRow struct {
	NameCode   string         `json:"name_code"`
	Name       string         `json:"name"`
	Reports    int            `json:"reports"`
	Rendered   bool           `json:"rendered"`
	Attributes map[string]any `json:"attributes"`
}

// NeighbourhoodsResult lists the neighbourhoods of the polygon layer.
type NeighbourhoodsResult struct {
	Seeded         int                `json:"seeded,omitempty"`
	Filter         string             `json:"filter,omitempty"`
	Neighbourhoods []NeighbourhoodRow `json:"neighbourhoods"`
	Rendered       int                `json:"rendered"`
}

// NewNeighbourhoodsCommand creates the neighbourhoods command.
func NewNeighbourhoodsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NeighbourhoodsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "neighbourhoods --db path",
		Short: "Render stored neighbourhoods as a polygon layer",
		Long: `Load neighbourhoods and their sales reports from the database into a
polygon layer of the simulated map, optionally filtered, and list which
polygons are rendered.

Each polygon carries the attributes name_code, name and reports, plus
latest_year, latest_month and latest_url when it has a report.

Exit codes:
  0 - Success
  2 - Command error (database, seed file or filter invalid)

Examples:
  salesmap neighbourhoods --db sales.db --seed neighbourhoods.geojson
  salesmap neighbourhoods --db sales.db --filter "attributes.reports > 0"
  salesmap neighbourhoods --db sales.db --dialect js --filter 'p => p.attributes.latest_year === 2024'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNeighbourhoods(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "path to SQLite database (default SALESMAP_DB)")
	cmd.Flags().StringVar(&opts.Seed, "seed", "", "GeoJSON feature collection to upsert before loading")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter expression over polygon fields")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "expr", "filter dialect (expr|cel|js)")

	return cmd
}

func runNeighbourhoods(opts *NeighbourhoodsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := opts.logger()

	dbPath := opts.DB
	if dbPath == "" {
		dbPath = opts.config().DB
	}
	if dbPath == "" {
		return NewExitError(ExitCommandError, "no database: pass --db or set SALESMAP_DB")
	}
	dialect, err := filter.ParseDialect(opts.Dialect)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --dialect", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result := NeighbourhoodsResult{Filter: opts.Filter, Neighbourhoods: []NeighbourhoodRow{}}
	if opts.Seed != "" {
		data, err := os.ReadFile(opts.Seed)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read seed file", err)
		}
		fc, err := geo.ParseFeatureCollection(data)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid seed file", err)
		}
		if result.Seeded, err = st.Seed(ctx, fc); err != nil {
			return WrapExitError(ExitCommandError, "failed to seed database", err)
		}
		logger.Info("seeded neighbourhoods", "count", result.Seeded, "file", opts.Seed)
	}

	summaries, err := st.Summaries(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read neighbourhoods", err)
	}

	sim, err := openSim(ctx, opts.RootOptions, simOptions{Center: defaultCenter, Zoom: 12})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open map", err)
	}
	defer sim.Close()

	layer, err := maps.NewPolygonLayer(sim.surface, maps.PolygonLayerOptions{
		LayerOptions: maps.LayerOptions{ID: "neighbourhoods", Name: "Neighbourhoods"},
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create layer", err)
	}
	for _, s := range summaries {
		_, err := maps.NewPolygon(sim.surface, layer, maps.PolygonOptions{
			ID:         s.NameCode,
			Geometry:   s.Polygon,
			Attributes: s.Attributes(),
		})
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("neighbourhood %s", s.NameCode), err)
		}
	}
	if opts.Filter != "" {
		if err := layer.SetFilterExpr(dialect, opts.Filter); err != nil {
			return WrapExitError(ExitCommandError, "invalid --filter", err)
		}
	}
	sim.platform.Flush()

	for _, s := range summaries {
		row := NeighbourhoodRow{
			NameCode:   s.NameCode,
			Name:       s.NamePretty,
			Reports:    s.Reports,
			Attributes: s.Attributes(),
		}
		if f, ok := layer.Feature(s.NameCode); ok && f.Attached() {
			row.Rendered = true
			result.Rendered++
		}
		result.Neighbourhoods = append(result.Neighbourhoods, row)
	}

	return opts.formatter(cmd).Success(result, func(w io.Writer) { writeNeighbourhoodsText(w, result) })
}

func writeNeighbourhoodsText(w io.Writer, r NeighbourhoodsResult) {
	if r.Seeded > 0 {
		fmt.Fprintf(w, "seeded %d neighbourhoods\n", r.Seeded)
	}
	for _, n := range r.Neighbourhoods {
		mark := " "
		if n.Rendered {
			mark = "*"
		}
		latest := "-"
		if y, ok := n.Attributes["latest_year"]; ok {
			latest = fmt.Sprintf("%v %v", n.Attributes["latest_month"], y)
		}
		fmt.Fprintf(w, "%s %-24s %-28s %3d reports, latest %s\n", mark, n.NameCode, n.Name, n.Reports, latest)
	}
	fmt.Fprintf(w, "%d of %d rendered\n", r.Rendered, len(r.Neighbourhoods))
}

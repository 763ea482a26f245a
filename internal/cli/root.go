package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/salesmap/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "json" | "text"
	EnvFile   string

	// Config and Logger are set by the root command before any
	// subcommand runs. Subcommands executed on their own fall back to
	// config defaults and slog.Default.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output and log formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the salesmap CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "salesmap",
		Short: "salesmap - neighbourhood sales maps",
		Long: `Compose neighbourhood sales maps on a simulated map SDK.

Configuration is read from the environment and an optional .env file
(MAPS_API_KEY, MAPS_VERSION, MAPS_LIBRARIES, SALESMAP_DB,
SALESMAP_ZOOM_STEP_DELAY, SALESMAP_LOG_FORMAT). Flags override it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			if !cmd.Flags().Changed("log-format") {
				opts.LogFormat = cfg.LogFormat
			}
			logger, err := newLogger(cmd.ErrOrStderr(), opts.LogFormat, opts.Verbose)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid log format", err)
			}
			slog.SetDefault(logger)
			opts.Config = &cfg
			opts.Logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logs")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format on stderr (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file read before the environment")

	cmd.AddCommand(NewZoomCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))
	cmd.AddCommand(NewNeighbourhoodsCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))

	return cmd
}

// newLogger builds the stderr handler: text or JSON, debug level when
// verbose.
func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q: must be one of %v", format, ValidFormats)
	}
}

// config returns the loaded configuration, or the defaults when the root
// command did not run.
func (o *RootOptions) config() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	return config.Default()
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

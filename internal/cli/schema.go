package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/salesmap/internal/schema"
)

// SchemaOptions holds flags shared by the schema subcommands.
type SchemaOptions struct {
	*RootOptions
	Schema string
	Attrs  string
}

// ValidationResult reports the problems of one attribute bag.
type ValidationResult struct {
	Schema   string              `json:"schema"`
	Valid    bool                `json:"valid"`
	Problems []schema.FieldError `json:"problems,omitempty"`
}

// DescribeResult lists the attributes a schema declares.
type DescribeResult struct {
	Schema string         `json:"schema"`
	Fields []schema.Field `json:"fields"`
}

// NewSchemaCommand creates the schema command and its subcommands.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Validate and describe feature attribute schemas",
		Long: `Work with CUE attribute schemas.

A schema file holds the body of a CUE struct, one attribute per line:

  name_code: string
  status:    "sold" | "listed"
  reports?:  int & >=0`,
	}
	cmd.AddCommand(newSchemaValidateCommand(rootOpts))
	cmd.AddCommand(newSchemaDescribeCommand(rootOpts))
	return cmd
}

func newSchemaValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate --schema file.cue --attrs '{json}'",
		Short: "Validate an attribute bag against a schema",
		Long: `Validate a JSON object of feature attributes against a CUE schema.

Exit codes:
  0 - Attributes valid
  1 - Attributes invalid
  2 - Command error (unreadable schema, malformed JSON)

Examples:
  salesmap schema validate --schema listing.cue --attrs '{"status":"sold"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaValidate(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file (required)")
	cmd.Flags().StringVar(&opts.Attrs, "attrs", "{}", "attributes as a JSON object")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func newSchemaDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SchemaOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "describe --schema file.cue",
		Short:         "List the attributes a schema declares",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchemaDescribe(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "CUE schema file (required)")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func loadSchema(path string) (*schema.Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read schema", err)
	}
	s, err := schema.Compile(path, string(src))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid schema", err)
	}
	return s, nil
}

func runSchemaValidate(opts *SchemaOptions, cmd *cobra.Command) error {
	s, err := loadSchema(opts.Schema)
	if err != nil {
		return err
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(opts.Attrs), &attrs); err != nil {
		return WrapExitError(ExitCommandError, "--attrs must be a JSON object", err)
	}

	problems := s.Validate(attrs)
	result := ValidationResult{Schema: opts.Schema, Valid: len(problems) == 0, Problems: problems}
	err = opts.formatter(cmd).Success(result, func(w io.Writer) {
		if result.Valid {
			fmt.Fprintln(w, "attributes valid")
			return
		}
		for _, p := range problems {
			fmt.Fprintf(w, "✗ %s\n", p)
		}
	})
	if err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d attribute problems", len(problems)))
	}
	return nil
}

func runSchemaDescribe(opts *SchemaOptions, cmd *cobra.Command) error {
	s, err := loadSchema(opts.Schema)
	if err != nil {
		return err
	}
	fields, err := s.Fields()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid schema", err)
	}

	result := DescribeResult{Schema: opts.Schema, Fields: fields}
	return opts.formatter(cmd).Success(result, func(w io.Writer) {
		for _, f := range fields {
			opt := ""
			if f.Optional {
				opt = " (optional)"
			}
			fmt.Fprintf(w, "%-20s %s%s\n", f.Name, f.Type, opt)
		}
	})
}

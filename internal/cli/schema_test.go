package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingSchema = `
name_code: string
status:    "sold" | "listed"
reports?:  int & >=0
`

func writeSchema(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "listing.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func executeSchema(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewSchemaCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSchemaValidate_Valid(t *testing.T) {
	path := writeSchema(t, listingSchema)

	out, err := executeSchema(t, "text", "validate", "--schema", path,
		"--attrs", `{"name_code":"annex","status":"sold","reports":3}`)
	require.NoError(t, err)
	assert.Equal(t, "attributes valid\n", out)
}

func TestSchemaValidate_Invalid(t *testing.T) {
	path := writeSchema(t, listingSchema)

	out, err := executeSchema(t, "json", "validate", "--schema", path,
		"--attrs", `{"name_code":"annex","status":"pending"}`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	require.NotEmpty(t, resp.Data.Problems)
	var text string
	for _, p := range resp.Data.Problems {
		text += p.String() + "\n"
	}
	assert.Contains(t, text, "status")
}

func TestSchemaValidate_CommandErrors(t *testing.T) {
	path := writeSchema(t, listingSchema)
	broken := writeSchema(t, "status: (")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing schema flag", []string{"validate"}, `required flag(s) "schema" not set`},
		{"unreadable schema", []string{"validate", "--schema", "/nonexistent.cue"}, "failed to read schema"},
		{"broken schema", []string{"validate", "--schema", broken}, "invalid schema"},
		{"attrs not an object", []string{"validate", "--schema", path, "--attrs", "[1]"}, "--attrs must be a JSON object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeSchema(t, "text", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSchemaDescribe(t *testing.T) {
	path := writeSchema(t, listingSchema)

	out, err := executeSchema(t, "text", "describe", "--schema", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name_code            string\n")
	assert.Contains(t, out, "reports              int (optional)\n")

	out, err = executeSchema(t, "json", "describe", "--schema", path)
	require.NoError(t, err)
	var resp struct {
		Data DescribeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data.Fields, 3)
	assert.Equal(t, "name_code", resp.Data.Fields[0].Name)
	assert.True(t, resp.Data.Fields[1].Optional)
	assert.Equal(t, "status", resp.Data.Fields[2].Name)
}

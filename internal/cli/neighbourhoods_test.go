package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var seedFile = filepath.Join("..", "store", "testdata", "neighbourhoods.geojson")

func executeNeighbourhoods(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewNeighbourhoodsCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeNeighbourhoods(t *testing.T, out string) NeighbourhoodsResult {
	t.Helper()
	var resp struct {
		Status string               `json:"status"`
		Data   NeighbourhoodsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestNeighbourhoodsCommand_SeedAndRender(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sales.db")

	out, err := executeNeighbourhoods(t, "json", "--db", db, "--seed", seedFile)
	require.NoError(t, err)

	result := decodeNeighbourhoods(t, out)
	assert.Equal(t, 2, result.Seeded)
	assert.Equal(t, 2, result.Rendered)
	require.Len(t, result.Neighbourhoods, 2)

	annex := result.Neighbourhoods[0]
	assert.Equal(t, "annex", annex.NameCode)
	assert.Equal(t, "The Annex", annex.Name)
	assert.Equal(t, 3, annex.Reports)
	assert.True(t, annex.Rendered)
	assert.Equal(t, "March", annex.Attributes["latest_month"])
}

func TestNeighbourhoodsCommand_Filters(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sales.db")
	_, err := executeNeighbourhoods(t, "text", "--db", db, "--seed", seedFile)
	require.NoError(t, err)

	tests := []struct {
		dialect string
		filter  string
	}{
		{"expr", "attributes.reports > 0"},
		{"cel", "attributes.reports > 0"},
		{"js", "p => p.attributes.latest_year === 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			out, err := executeNeighbourhoods(t, "json", "--db", db, "--dialect", tt.dialect, "--filter", tt.filter)
			require.NoError(t, err)

			result := decodeNeighbourhoods(t, out)
			assert.Zero(t, result.Seeded)
			assert.Equal(t, 1, result.Rendered)
			assert.True(t, result.Neighbourhoods[0].Rendered, "annex")
			assert.False(t, result.Neighbourhoods[1].Rendered, "leslieville")
		})
	}
}

func TestNeighbourhoodsCommand_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "sales.db")

	out, err := executeNeighbourhoods(t, "text", "--db", db, "--seed", seedFile, "--filter", `id == "leslieville"`)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 neighbourhoods")
	assert.Contains(t, out, "latest March 2024")
	assert.Contains(t, out, "* leslieville")
	assert.Contains(t, out, "1 of 2 rendered")
}

func TestNeighbourhoodsCommand_Errors(t *testing.T) {
	t.Setenv("SALESMAP_DB", "")
	db := filepath.Join(t.TempDir(), "sales.db")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no database", []string{}, "no database"},
		{"bad dialect", []string{"--db", db, "--dialect", "lua"}, "invalid --dialect"},
		{"missing seed", []string{"--db", db, "--seed", "/nonexistent.geojson"}, "failed to read seed file"},
		{"bad filter", []string{"--db", db, "--filter", "attributes.reports >"}, "invalid --filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeNeighbourhoods(t, "text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, ExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

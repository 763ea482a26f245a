package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runZoomJSON executes the zoom command with JSON output and decodes the
// result.
func runZoomJSON(t *testing.T, args ...string) (ZoomResult, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewZoomCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--step-delay", "0"}, args...))

	execErr := cmd.Execute()

	var resp struct {
		Status string     `json:"status"`
		Data   ZoomResult `json:"data"`
	}
	if buf.Len() > 0 {
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
	}
	return resp.Data, execErr
}

func ops(r ZoomResult) []string {
	var out []string
	for _, e := range r.Trace {
		out = append(out, e.Op)
	}
	return out
}

func TestZoomCommand_StepsOneLevelAtATime(t *testing.T) {
	result, err := runZoomJSON(t, "--from", "10", "--to", "12")
	require.NoError(t, err)

	assert.Equal(t, 10, result.From)
	assert.Equal(t, 12, result.Zoom)
	assert.Equal(t, "idle", result.State)
	assert.Empty(t, result.Error)
	assert.Equal(t, []string{"set_zoom", "emit", "set_zoom", "emit"}, ops(result))
	assert.Equal(t, float64(11), result.Trace[0].Args["to"])
}

func TestZoomCommand_ZoomOut(t *testing.T) {
	result, err := runZoomJSON(t, "--from", "10", "--to", "9")
	require.NoError(t, err)
	assert.Equal(t, 9, result.Zoom)
	assert.Equal(t, []string{"set_zoom", "emit"}, ops(result))
}

func TestZoomCommand_RevealsLocation(t *testing.T) {
	result, err := runZoomJSON(t, "--from", "10", "--to", "12", "--at", "43.65,-77.0")
	require.NoError(t, err)

	assert.Equal(t, 12, result.Zoom)
	assert.Equal(t, "idle", result.State)
	assert.Contains(t, ops(result), "pan_to")
	for _, e := range result.Trace {
		if e.Op == "pan_to" {
			assert.Equal(t, true, e.Args["visible"], "pans only once the location is in view")
		}
	}
}

func TestZoomCommand_ClampsTarget(t *testing.T) {
	result, err := runZoomJSON(t, "--from", "21", "--to", "30")
	require.NoError(t, err)
	assert.Equal(t, 22, result.Zoom)
}

func TestZoomCommand_Metrics(t *testing.T) {
	result, err := runZoomJSON(t, "--from", "10", "--to", "12", "--metrics")
	require.NoError(t, err)

	assert.Contains(t, result.Metrics, `salesmap_zoom_steps_total{direction="in",surface="map"} 2`)
	assert.Contains(t, result.Metrics, `salesmap_zoom_level{surface="map"} 12`)
	assert.Contains(t, result.Metrics, `salesmap_library_settled_total{library="maps",state="LOADED"} 1`)
}

func TestZoomCommand_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewZoomCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--to", "11", "--step-delay", "0"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "set_zoom")
	assert.Contains(t, buf.String(), "{from=10 to=11}")
	assert.Contains(t, buf.String(), "zoom 10 -> 11 (target 11), state idle")
}

func TestZoomCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing target", []string{}, `required flag(s) "to" not set`},
		{"bad center", []string{"--to", "3", "--center", "north"}, "invalid --center"},
		{"bad location", []string{"--to", "3", "--at", "91,0"}, "invalid --at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewZoomCommand(&RootOptions{Format: "text"})
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

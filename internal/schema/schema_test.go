package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingSchema = `
name_code: string
status:    "sold" | "listed"
reports?:  int & >=0
`

func joined(errs []FieldError) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}

func TestValidate(t *testing.T) {
	s, err := Compile("listing.cue", listingSchema)
	require.NoError(t, err)

	tests := []struct {
		name    string
		attrs   map[string]any
		wantErr string
	}{
		{
			name:  "valid",
			attrs: map[string]any{"name_code": "C01", "status": "sold", "reports": 2},
		},
		{
			name:  "optional omitted",
			attrs: map[string]any{"name_code": "C01", "status": "listed"},
		},
		{
			name:  "json numbers count as ints",
			attrs: map[string]any{"name_code": "C01", "status": "sold", "reports": float64(4)},
		},
		{
			name:    "bad enum",
			attrs:   map[string]any{"name_code": "C01", "status": "pending"},
			wantErr: "status",
		},
		{
			name:    "missing required",
			attrs:   map[string]any{"status": "sold"},
			wantErr: "name_code",
		},
		{
			name:    "unknown field",
			attrs:   map[string]any{"name_code": "C01", "status": "sold", "colour": "red"},
			wantErr: "colour",
		},
		{
			name:    "negative count",
			attrs:   map[string]any{"name_code": "C01", "status": "sold", "reports": -1},
			wantErr: "reports",
		},
		{
			name:    "nil bag",
			attrs:   nil,
			wantErr: "name_code",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.Validate(tt.attrs)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.NotEmpty(t, errs)
			assert.Contains(t, joined(errs), tt.wantErr)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("broken.cue", "status: ")
	require.Error(t, err)
	var ce *CompileError
	assert.ErrorAs(t, err, &ce)

	_, err = Compile("conflict.cue", "a: 1\na: 2")
	assert.Error(t, err)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("broken.cue", "status: ") })
	assert.NotPanics(t, func() { MustCompile("ok.cue", listingSchema) })
}

func TestFields(t *testing.T) {
	s := MustCompile("listing.cue", listingSchema)

	fields, err := s.Fields()
	require.NoError(t, err)
	assert.Equal(t, []Field{
		{Name: "name_code", Type: "string"},
		{Name: "reports", Type: "int", Optional: true},
		{Name: "status", Type: "string"},
	}, fields)
	assert.Equal(t, "listing.cue", s.Name())
	assert.Equal(t, listingSchema, s.Source())
}

func TestFieldError_String(t *testing.T) {
	assert.Equal(t, "status: bad", FieldError{Path: "status", Message: "bad"}.String())
	assert.Equal(t, "bad", FieldError{Message: "bad"}.String())
}

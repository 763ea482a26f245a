// Package schema validates feature attribute bags against CUE schemas.
//
// A schema is the body of a CUE struct, for example:
//
//	name_code: string
//	status:    "sold" | "listed"
//	reports?:  int & >=0
//
// The body is compiled as a closed definition, so attributes not declared
// by the schema are rejected.
package schema

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

const definition = "#Attributes"

// Schema is a compiled attribute schema.
//
// Thread-safety: safe for concurrent use; CUE evaluation is serialized.
type Schema struct {
	name   string
	source string

	mu    sync.Mutex
	value cue.Value
}

// Compile parses src as the body of an attribute schema. name labels
// errors; it is usually the file the source came from.
func Compile(name, src string) (*Schema, error) {
	ctx := cuecontext.New()
	wrapped := definition + ": {\n" + src + "\n}\n"
	v := ctx.CompileString(wrapped, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := v.LookupPath(cue.ParsePath(definition))
	if err := def.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := def.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	if def.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{Field: "schema", Message: "schema must describe a struct"}
	}
	return &Schema{name: name, source: src, value: def}, nil
}

// MustCompile is Compile that panics on error. For package-level schemas.
func MustCompile(name, src string) *Schema {
	s, err := Compile(name, src)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Source returns the schema body.
func (s *Schema) Source() string { return s.source }

// Validate checks attrs and returns one FieldError per problem, or nil.
// Integral float64 values, as produced by JSON decoding, count as ints.
func (s *Schema) Validate(attrs map[string]any) []FieldError {
	if attrs == nil {
		attrs = map[string]any{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.value.Context().Encode(normalize(attrs))
	if err := data.Err(); err != nil {
		return fieldErrors(err)
	}
	unified := s.value.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.All()); err != nil {
		return fieldErrors(err)
	}
	return nil
}

// Field describes one declared attribute.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional"`
}

// Fields lists the declared attributes sorted by name.
func (s *Schema) Fields() ([]Field, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	iter, err := s.value.Fields(cue.Optional(true))
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []Field
	for iter.Next() {
		out = append(out, Field{
			Name:     iter.Label(),
			Type:     typeName(iter.Value()),
			Optional: iter.IsOptional(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func typeName(v cue.Value) string {
	switch v.IncompleteKind() {
	case cue.StringKind:
		return "string"
	case cue.IntKind:
		return "int"
	case cue.FloatKind, cue.NumberKind:
		return "number"
	case cue.BoolKind:
		return "bool"
	case cue.ListKind:
		return "array"
	case cue.StructKind:
		return "object"
	case cue.NullKind:
		return "null"
	default:
		return v.IncompleteKind().String()
	}
}

func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

// FieldError is one validation problem. Path is the dotted attribute path,
// empty for problems with the bag as a whole.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

func fieldErrors(err error) []FieldError {
	var out []FieldError
	seen := make(map[FieldError]bool)
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		fe := FieldError{
			Path:    trimPath(e.Path()),
			Message: fmt.Sprintf(format, args...),
		}
		if seen[fe] {
			continue
		}
		seen[fe] = true
		out = append(out, fe)
	}
	if len(out) == 0 {
		out = append(out, FieldError{Message: err.Error()})
	}
	return out
}

// trimPath drops the wrapping definition from an error path.
func trimPath(path []string) string {
	if len(path) > 0 && path[0] == definition {
		path = path[1:]
	}
	return strings.Join(path, ".")
}

// CompileError represents a schema compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line()-1, e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	format, args := first.Msg()
	ce := &CompileError{Field: "cue", Message: fmt.Sprintf(format, args...)}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		ce.Pos = positions[0]
	}
	return ce
}

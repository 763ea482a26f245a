// Package filter compiles text predicates over map features. Three dialects
// are supported: expr (expr-lang), cel (cel-go) and js (goja). A js source
// may be an expression over the feature fields or a function taking the
// feature, such as `p => p.attributes.status === "sold"`.
package filter

import (
	"fmt"
	"strings"
)

// Dialect names an expression language.
type Dialect string

const (
	DialectExpr Dialect = "expr"
	DialectCEL  Dialect = "cel"
	DialectJS   Dialect = "js"
)

// Dialects lists the supported dialects.
var Dialects = []Dialect{DialectExpr, DialectCEL, DialectJS}

// ParseDialect resolves a dialect name. Empty means expr.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(strings.ToLower(strings.TrimSpace(s))) {
	case "", DialectExpr:
		return DialectExpr, nil
	case DialectCEL:
		return DialectCEL, nil
	case DialectJS, "javascript":
		return DialectJS, nil
	default:
		return "", fmt.Errorf("unknown filter dialect %q", s)
	}
}

// Env is the view of one feature a predicate sees. Every key in Variables
// is always present.
type Env map[string]any

// Variables are the top-level names available to predicates.
var Variables = []string{"id", "kind", "layer", "visible", "attributes", "position"}

// Program is a compiled predicate.
type Program interface {
	Dialect() Dialect
	Source() string
	Match(env Env) (bool, error)
}

// Compile parses src in dialect d.
func Compile(d Dialect, src string) (Program, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &EvaluationError{Dialect: d, Expr: src, Err: fmt.Errorf("expression must not be empty")}
	}
	switch d {
	case DialectExpr, "":
		return compileExpr(src)
	case DialectCEL:
		return compileCEL(src)
	case DialectJS:
		return compileJS(src)
	default:
		return nil, fmt.Errorf("unknown filter dialect %q", d)
	}
}

// complete fills missing variables with nil so every dialect sees the same
// names.
func complete(env Env) Env {
	out := make(Env, len(Variables))
	for _, name := range Variables {
		out[name] = nil
	}
	for k, v := range env {
		out[k] = v
	}
	return out
}

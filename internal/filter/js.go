package filter

import (
	"github.com/dop251/goja"
)

type jsProgram struct {
	src     string
	program *goja.Program
}

func compileJS(src string) (Program, error) {
	program, err := goja.Compile("filter", "("+src+"\n)", false)
	if err != nil {
		return nil, wrap(DialectJS, src, err)
	}
	return &jsProgram{src: src, program: program}, nil
}

func (p *jsProgram) Dialect() Dialect { return DialectJS }
func (p *jsProgram) Source() string   { return p.src }

// Match runs the program in a fresh runtime; goja runtimes are not safe
// for concurrent use. A function result is called with the feature.
func (p *jsProgram) Match(env Env) (bool, error) {
	vm := goja.New()
	full := complete(env)
	for k, v := range full {
		if err := vm.Set(k, v); err != nil {
			return false, wrap(DialectJS, p.src, err)
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return false, wrap(DialectJS, p.src, err)
	}
	if fn, ok := goja.AssertFunction(value); ok {
		value, err = fn(goja.Undefined(), vm.ToValue(map[string]any(full)))
		if err != nil {
			return false, wrap(DialectJS, p.src, err)
		}
	}
	return value.ToBoolean(), nil
}

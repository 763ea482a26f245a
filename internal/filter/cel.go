package filter

import (
	celgo "github.com/google/cel-go/cel"
)

type celProgram struct {
	src     string
	program celgo.Program
}

func compileCEL(src string) (Program, error) {
	opts := make([]celgo.EnvOption, 0, len(Variables))
	for _, name := range Variables {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, wrap(DialectCEL, src, err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, wrap(DialectCEL, src, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, wrap(DialectCEL, src, err)
	}
	return &celProgram{src: src, program: prg}, nil
}

func (p *celProgram) Dialect() Dialect { return DialectCEL }
func (p *celProgram) Source() string   { return p.src }

func (p *celProgram) Match(env Env) (bool, error) {
	out, _, err := p.program.Eval(map[string]any(complete(env)))
	if err != nil {
		return false, wrap(DialectCEL, p.src, err)
	}
	return asBool(DialectCEL, p.src, out.Value())
}

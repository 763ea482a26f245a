package filter

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprProgram struct {
	src     string
	program *exprvm.Program
}

func compileExpr(src string) (Program, error) {
	program, err := exprlang.Compile(src,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, wrap(DialectExpr, src, err)
	}
	return &exprProgram{src: src, program: program}, nil
}

func (p *exprProgram) Dialect() Dialect { return DialectExpr }
func (p *exprProgram) Source() string   { return p.src }

func (p *exprProgram) Match(env Env) (bool, error) {
	out, err := exprlang.Run(p.program, map[string]any(complete(env)))
	if err != nil {
		return false, wrap(DialectExpr, p.src, err)
	}
	return asBool(DialectExpr, p.src, out)
}

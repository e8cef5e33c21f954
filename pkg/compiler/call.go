package compiler

import (
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

var callMnemonics = map[string]bool{"rcall": true, "call": true, "rjmp": true, "jmp": true}

// isCall reports whether raw is "rcall name(...)" or one of its variants
func isCall(raw []string) bool {
	return len(raw) >= 3 && callMnemonics[raw[0]] && token.IsIdentifier(raw[1]) && raw[2] == "("
}

// compileCall assigns the arguments of a procedure call to the registers
// the procedure declares and emits the call.
func (c *Compiler) compileCall(raw []string) error {
	name := raw[1]
	end := matchRaw(raw, 2)
	if end != len(raw)-1 {
		return newError(ErrWrongCallSyntax, "%s", expr.JoinRaw(raw))
	}
	proc, ok := c.Env.ResolveProcedure(name)
	if !ok {
		return newError(ErrUndefinedProcedure, "%s", name)
	}

	inner := raw[3:end]
	if len(inner) > 0 {
		for i, arg := range splitRaw(inner, ",") {
			if len(arg) == 0 {
				return newError(ErrWrongCallSyntax, "%s", expr.JoinRaw(raw))
			}
			var formal []string
			value := arg
			if len(arg) >= 2 && arg[1] == ":" {
				a, ok := proc.Arg(arg[0])
				if !ok {
					return newError(ErrWrongArgument, "%s has no argument %s", name, arg[0])
				}
				formal, value = a.Raw, arg[2:]
			} else {
				if i >= len(proc.Args) {
					return newError(ErrWrongArgument, "too many arguments for %s", name)
				}
				formal = proc.Args[i].Raw
			}
			if len(value) == 0 {
				return newError(ErrWrongCallSyntax, "%s", expr.JoinRaw(arg))
			}
			stmt := append(append(append([]string{}, formal...), "="), value...)
			if err := c.CompileExpression(expr.Parse(stmt, c.Env)); err != nil {
				return err
			}
		}
	}
	c.out.Append(raw[0], name)
	return nil
}

package compiler

import (
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "&=": true, "|=": true, "^=": true,
	"<<=": true, ">>=": true,
}

// CompileExpression compiles one classified assignment statement. A chain
// a = b = c compiles as b = c followed by a = b.
func (c *Compiler) CompileExpression(e expr.Expression) error {
	if len(e) == 0 {
		return nil
	}
	if e[0].Kind == token.Operator {
		return newError(ErrUnexpectedExpression, "%s", e[0])
	}
	parts := e.SplitTop("=")
	if len(parts) <= 2 {
		return c.compileStatementExpr(e)
	}
	for i := len(parts) - 2; i >= 0; i-- {
		if len(parts[i]) != 1 || len(parts[i+1]) == 0 {
			return newError(ErrUnexpectedExpression, "%s", e)
		}
		stmt := append(expr.Expression{parts[i][0], token.Op("=")}, parts[i+1]...)
		if err := c.compileStatementExpr(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatementExpr(e expr.Expression) error {
	dst := e[0]
	if len(e) < 2 || e[1].Kind != token.Operator {
		return newError(ErrUnexpectedExpression, "%s", e.Last())
	}
	op := e[1].Text
	src := e[2:]
	switch {
	case op == "++" || op == "--":
		if len(src) != 0 {
			return newError(ErrUnexpectedExpression, "%s", src[0])
		}
	case assignOps[op]:
		if len(src) == 0 {
			return newError(ErrUnexpectedExpression, "missing value after %s", op)
		}
	default:
		return newError(ErrUnexpectedExpression, "%s", e[1])
	}

	switch dst.Kind {
	case token.Register:
		return c.assignRegister(dst, op, src)
	case token.Pair, token.Group:
		return c.assignGroup(dst, op, src)
	case token.Variable:
		return c.assignVariable(dst, op, src)
	case token.ArrayIO:
		if dst.Bit != "" {
			return c.assignIOBit(dst, op, src)
		}
		return c.assignIO(dst, op, src)
	case token.ArrayIOW:
		return c.assignIOW(dst, op, src)
	case token.ArrayRAM:
		return c.assignRAM(dst, op, src)
	case token.ArrayPRG:
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	case token.Flag:
		return c.assignFlag(dst, op, src)
	case token.RegisterBit:
		return c.assignRegisterBit(dst, op, src)
	}
	return newError(ErrUnexpectedExpression, "%s", dst)
}

// single returns the only token of src, failing on anything longer
func single(src expr.Expression) (token.Token, error) {
	if len(src) != 1 {
		return token.Token{}, newError(ErrUnexpectedExpression, "%s", src)
	}
	return src[0], nil
}

// negated strips a leading '!' from a bit source
func negated(src expr.Expression) (expr.Expression, bool) {
	if src.IsOperator(0, "!") {
		return src[1:], true
	}
	return src, false
}

package compiler

import (
	"fmt"
	"strings"

	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

func (c *Compiler) assignRegister(dst token.Token, op string, src expr.Expression) error {
	switch op {
	case "=":
		return c.loadRegisterExpr(dst, src)
	case "++":
		c.out.Append("inc", dst.Text)
		return nil
	case "--":
		c.out.Append("dec", dst.Text)
		return nil
	}

	v, err := single(src)
	if err != nil {
		return err
	}
	switch op {
	case "+=":
		return c.registerOp(dst, "+", v, false)
	case "-=":
		return c.registerOp(dst, "-", v, false)
	case "&=":
		return c.registerOp(dst, "&", v, false)
	case "|=":
		return c.registerOp(dst, "|", v, false)
	case "^=":
		return c.registerOp(dst, "^", v, false)
	case "<<=":
		return c.registerOp(dst, "<<", v, false)
	case ">>=":
		return c.registerOp(dst, ">>", v, false)
	}
	return newError(ErrUnsupportedOperation, "%s %s", dst, op)
}

// loadRegisterExpr compiles reg = operand [op operand]...
func (c *Compiler) loadRegisterExpr(dst token.Token, src expr.Expression) error {
	i := 1
	if src.IsOperator(0, "-") && len(src) >= 2 && src[1].Kind == token.Register {
		if !token.SameRegister(dst.Text, src[1].Text) {
			c.out.Append("mov", dst.Text, src[1].Text)
		}
		c.out.Append("neg", dst.Text)
		i = 2
	} else if err := c.loadRegister(dst, src[0]); err != nil {
		return err
	}

	for ; i < len(src); i += 2 {
		op := src[i]
		if op.Kind != token.Operator || i+1 >= len(src) {
			return newError(ErrUnexpectedExpression, "%s", op)
		}
		operand := src[i+1]
		if operand.Kind == token.Register && token.SameRegister(operand.Text, dst.Text) {
			return newError(ErrUnexpectedExpression, "%s is overwritten before use", operand)
		}
		if err := c.registerOp(dst, op.Text, operand, true); err != nil {
			return err
		}
	}
	return nil
}

// loadRegister compiles reg = operand
func (c *Compiler) loadRegister(dst, src token.Token) error {
	switch src.Kind {
	case token.Register:
		if !token.SameRegister(dst.Text, src.Text) {
			c.out.Append("mov", dst.Text, src.Text)
		}
	case token.Number:
		if src.Value == 0 {
			c.out.Append("clr", dst.Text)
		} else {
			c.out.Append("ldi", dst.Text, src.Text)
		}
	case token.ConstExpr, token.Other:
		if !src.IsConst() {
			return newError(ErrUnexpectedExpression, "%s", src)
		}
		c.out.Append("ldi", dst.Text, src.Text)
	case token.Variable:
		if src.Type != token.TypeByte {
			return newError(ErrSizeMismatch, "%s = %s", dst, src)
		}
		c.out.Append("lds", dst.Text, src.Text)
	case token.ArrayIO:
		if src.Bit != "" || src.Mode != token.ModeNone {
			return newError(ErrUnsupportedOperation, "%s = %s", dst, src)
		}
		c.out.Append("in", dst.Text, src.Index)
	case token.ArrayRAM:
		addr, err := ramAddress(src)
		if err != nil {
			return err
		}
		c.out.Append("ld", dst.Text, addr)
	case token.ArrayPRG:
		addr, err := prgAddress(src)
		if err != nil {
			return err
		}
		c.out.Append("lpm", dst.Text, addr)
	case token.ArrayIOW, token.Pair, token.Group:
		return newError(ErrSizeMismatch, "%s = %s", dst, src)
	default:
		return newError(ErrUnexpectedExpression, "%s", src)
	}
	return nil
}

// registerOp applies one binary operator to a register. Inside an
// expression chain (chained is true) +1 and -1 use inc and dec.
func (c *Compiler) registerOp(dst token.Token, op string, v token.Token, chained bool) error {
	isReg := v.Kind == token.Register
	if !isReg && !v.IsConst() {
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	switch op {
	case "+":
		switch {
		case isReg:
			c.out.Append("add", dst.Text, v.Text)
		case chained && v.Kind == token.Number && v.Value == 1:
			c.out.Append("inc", dst.Text)
		default:
			c.out.Append("subi", dst.Text, negate(v))
		}
	case "-":
		switch {
		case isReg:
			c.out.Append("sub", dst.Text, v.Text)
		case chained && v.Kind == token.Number && v.Value == 1:
			c.out.Append("dec", dst.Text)
		default:
			c.out.Append("subi", dst.Text, v.Text)
		}
	case "&":
		if isReg {
			c.out.Append("and", dst.Text, v.Text)
		} else {
			c.out.Append("andi", dst.Text, v.Text)
		}
	case "|":
		if isReg {
			c.out.Append("or", dst.Text, v.Text)
		} else {
			c.out.Append("ori", dst.Text, v.Text)
		}
	case "^":
		if !isReg {
			return newError(ErrUnsupportedOperation, "%s ^ %s", dst, v)
		}
		c.out.Append("eor", dst.Text, v.Text)
	case "<<", ">>":
		if v.Kind != token.Number || v.Value < 0 {
			return newError(ErrUnsupportedOperation, "shift by %s", v)
		}
		mnemonic := "lsl"
		if op == ">>" {
			mnemonic = "lsr"
		}
		for n := int64(0); n < v.Value; n++ {
			c.out.Append(mnemonic, dst.Text)
		}
	default:
		return newError(ErrUnsupportedOperation, "%s %s %s", dst, op, v)
	}
	return nil
}

// negate renders the negated value of a constant operand
func negate(v token.Token) string {
	if v.Kind == token.Number {
		return fmt.Sprintf("%d", -v.Value)
	}
	if strings.HasPrefix(v.Text, "-") && token.IsIdentifier(v.Text[1:]) {
		return v.Text[1:]
	}
	return "-" + token.Parenthesize(v.Text)
}

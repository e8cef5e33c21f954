package compiler

import (
	"fmt"

	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

// ramAddress renders the ld/st operand of a ram[] cell. Only the pointer
// pairs are valid indexes and the CPU has no pre-increment or
// post-decrement.
func ramAddress(t token.Token) (string, error) {
	if !token.IsPair(t.Index) {
		return "", newError(ErrUnsupportedOperation, "%s: index must be X, Y or Z", t)
	}
	switch t.Mode {
	case token.ModeNone:
		return t.Index, nil
	case token.ModePostInc:
		return t.Index + "+", nil
	case token.ModePreDec:
		return "-" + t.Index, nil
	}
	return "", newError(ErrUnsupportedOperation, "%s", t)
}

// prgAddress renders the lpm operand of a prg[] cell
func prgAddress(t token.Token) (string, error) {
	if t.Index != "Z" {
		return "", newError(ErrUnsupportedOperation, "%s: index must be Z", t)
	}
	switch t.Mode {
	case token.ModeNone:
		return "Z", nil
	case token.ModePostInc:
		return "Z+", nil
	}
	return "", newError(ErrUnsupportedOperation, "%s", t)
}

// ioWordAddresses returns the low and high port of an iow[] cell: NAMEL and
// NAMEH for symbolic ports, N and N+1 for numeric ones.
func ioWordAddresses(t token.Token) (lo, hi string) {
	if v, ok := token.ParseNumber(t.Index); ok {
		return fmt.Sprintf("0x%02X", v), fmt.Sprintf("0x%02X", v+1)
	}
	return t.Index + "L", t.Index + "H"
}

func (c *Compiler) assignVariable(dst token.Token, op string, src expr.Expression) error {
	if op != "=" || dst.Type.IsPointer() {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	v, err := single(src)
	if err != nil {
		return err
	}
	if !v.IsRegisterLike() {
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	if v.Size() != dst.Size() {
		return newError(ErrSizeMismatch, "%s = %s", dst, v)
	}
	for k, r := range v.Registers() {
		c.out.Append("sts", memoryOffset(dst.Text, k), r)
	}
	return nil
}

func (c *Compiler) assignIO(dst token.Token, op string, src expr.Expression) error {
	if op != "=" || dst.Mode != token.ModeNone {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	v, err := single(src)
	if err != nil {
		return err
	}
	switch v.Kind {
	case token.Register:
		c.out.Append("out", dst.Index, v.Text)
	case token.Pair, token.Group:
		return newError(ErrSizeMismatch, "%s = %s", dst, v)
	default:
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	return nil
}

func (c *Compiler) assignIOW(dst token.Token, op string, src expr.Expression) error {
	if op != "=" || dst.Mode != token.ModeNone {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	v, err := single(src)
	if err != nil {
		return err
	}
	if !v.IsRegisterLike() {
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	if v.Size() != 2 {
		return newError(ErrSizeMismatch, "%s = %s", dst, v)
	}
	lo, hi := ioWordAddresses(dst)
	regs := v.Registers()
	c.out.Append("out", hi, regs[0])
	c.out.Append("out", lo, regs[1])
	return nil
}

func (c *Compiler) assignRAM(dst token.Token, op string, src expr.Expression) error {
	if op != "=" {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	addr, err := ramAddress(dst)
	if err != nil {
		return err
	}
	v, err := single(src)
	if err != nil {
		return err
	}
	switch v.Kind {
	case token.Register:
		c.out.Append("st", addr, v.Text)
	case token.Pair, token.Group:
		return newError(ErrSizeMismatch, "%s = %s", dst, v)
	default:
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	return nil
}

package compiler

import (
	"fmt"

	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

// checkBit rejects a literal bit index outside 0..7
func checkBit(t token.Token, bit string) error {
	if v, ok := token.ParseNumber(bit); ok && (v < 0 || v > 7) {
		return newError(ErrUnsupportedOperation, "%s: bit %d out of range", t, v)
	}
	return nil
}

// bitMask renders the sbr/cbr mask of a bit index
func bitMask(bit string) string {
	if v, ok := token.ParseNumber(bit); ok {
		return fmt.Sprintf("0x%02X", int64(1)<<v)
	}
	return "1<<" + token.Parenthesize(bit)
}

// boolValue returns 0 or 1 for a literal source
func boolValue(src expr.Expression) (int64, bool) {
	if len(src) == 1 && src[0].Kind == token.Number && (src[0].Value == 0 || src[0].Value == 1) {
		return src[0].Value, true
	}
	return 0, false
}

func (c *Compiler) assignFlag(dst token.Token, op string, src expr.Expression) error {
	if op != "=" {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	f, _ := token.LookupFlag(dst.Text)
	if v, ok := boolValue(src); ok {
		if v == 1 {
			c.out.Append(f.Set)
		} else {
			c.out.Append(f.Clear)
		}
		return nil
	}

	bitSrc, neg := negated(src)
	b, err := single(bitSrc)
	if err != nil {
		return err
	}
	switch {
	case b.Kind == token.RegisterBit && dst.Text == "F_BIT_COPY" && !neg:
		c.out.Append("bst", b.Text, b.Index)
	case b.Kind == token.RegisterBit:
		skip := "sbrc"
		if neg {
			skip = "sbrs"
		}
		c.out.Append(f.Clear)
		c.out.Append(skip, b.Text, b.Index)
		c.out.Append(f.Set)
	case b.Kind == token.ArrayIO && b.Bit != "":
		skip := "sbic"
		if neg {
			skip = "sbis"
		}
		c.out.Append(f.Clear)
		c.out.Append(skip, b.Index, b.Bit)
		c.out.Append(f.Set)
	default:
		return newError(ErrUnexpectedExpression, "%s", b)
	}
	return nil
}

func (c *Compiler) assignRegisterBit(dst token.Token, op string, src expr.Expression) error {
	if op != "=" {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	if err := checkBit(dst, dst.Index); err != nil {
		return err
	}
	if v, ok := boolValue(src); ok {
		if v == 1 {
			c.out.Append("sbr", dst.Text, bitMask(dst.Index))
		} else {
			c.out.Append("cbr", dst.Text, bitMask(dst.Index))
		}
		return nil
	}
	b, err := single(src)
	if err != nil {
		return err
	}
	switch {
	case b.Kind == token.Flag && b.Text == "F_BIT_COPY":
		c.out.Append("bld", dst.Text, dst.Index)
	case b.Kind == token.RegisterBit:
		if err := checkBit(b, b.Index); err != nil {
			return err
		}
		c.out.Append("bst", b.Text, b.Index)
		c.out.Append("bld", dst.Text, dst.Index)
	case b.Kind == token.Flag:
		return newError(ErrUnsupportedOperation, "%s = %s", dst, b)
	default:
		return newError(ErrUnexpectedExpression, "%s", b)
	}
	return nil
}

func (c *Compiler) assignIOBit(dst token.Token, op string, src expr.Expression) error {
	if op != "=" || dst.Mode != token.ModeNone {
		return newError(ErrUnsupportedOperation, "%s %s", dst, op)
	}
	if err := checkBit(dst, dst.Bit); err != nil {
		return err
	}
	if v, ok := boolValue(src); ok {
		if v == 1 {
			c.out.Append("sbi", dst.Index, dst.Bit)
		} else {
			c.out.Append("cbi", dst.Index, dst.Bit)
		}
		return nil
	}
	bitSrc, neg := negated(src)
	b, err := single(bitSrc)
	if err != nil {
		return err
	}
	if b.Kind != token.RegisterBit {
		return newError(ErrUnexpectedExpression, "%s", b)
	}
	ifClear, ifSet := "sbrs", "sbrc"
	if neg {
		ifClear, ifSet = ifSet, ifClear
	}
	c.out.Append(ifClear, b.Text, b.Index)
	c.out.Append("cbi", dst.Index, dst.Bit)
	c.out.Append(ifSet, b.Text, b.Index)
	c.out.Append("sbi", dst.Index, dst.Bit)
	return nil
}

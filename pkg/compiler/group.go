package compiler

import (
	"fmt"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

// lsFirst returns the registers of t, least significant first
func lsFirst(t token.Token) []string {
	regs := t.Registers()
	out := make([]string, len(regs))
	for i, r := range regs {
		out[len(regs)-1-i] = r
	}
	return out
}

// wordRegister returns the low register of a register pair usable by
// movw: two registers, the low one even and the high one next to it.
func wordRegister(t token.Token) (string, bool) {
	regs := t.Registers()
	if len(regs) != 2 {
		return "", false
	}
	hi, lo := token.RegisterNumber(regs[0]), token.RegisterNumber(regs[1])
	if lo < 0 || lo%2 != 0 || hi != lo+1 {
		return "", false
	}
	return regs[1], true
}

// adiwRegister returns the low register of a pair usable by adiw/sbiw
func adiwRegister(t token.Token) (string, bool) {
	lo, ok := wordRegister(t)
	if !ok || token.RegisterNumber(lo) < 24 {
		return "", false
	}
	return lo, true
}

// clobbers reports whether copying from[i] to to[i] in order overwrites a
// source register before it is read
func clobbers(to, from []string) bool {
	for i := range to {
		for j := i + 1; j < len(from); j++ {
			if token.SameRegister(to[i], from[j]) {
				return true
			}
		}
	}
	return false
}

// byteOf formats byte i of a literal, least significant first
func byteOf(v int64, i int) string {
	return fmt.Sprintf("0x%02X", (v>>(8*i))&0xFF)
}

// memoryOffset renders the address of byte i of a variable, counted from
// the most significant end
func memoryOffset(name string, i int) string {
	if i == 0 {
		return name
	}
	return fmt.Sprintf("%s+%d", name, i)
}

func (c *Compiler) assignGroup(dst token.Token, op string, src expr.Expression) error {
	switch op {
	case "=":
		v, err := single(src)
		if err != nil {
			return err
		}
		return c.loadGroup(dst, v)
	case "++":
		return c.addGroup(dst, token.Num(1), false)
	case "--":
		return c.addGroup(dst, token.Num(1), true)
	case "+=", "-=":
		v, err := single(src)
		if err != nil {
			return err
		}
		return c.addGroup(dst, v, op == "-=")
	}
	return newError(ErrUnsupportedOperation, "%s %s", dst, op)
}

func (c *Compiler) loadGroup(dst, v token.Token) error {
	regs := lsFirst(dst)
	switch {
	case v.Kind == token.Number:
		for i, r := range regs {
			if v.Value == 0 {
				c.out.Append("clr", r)
			} else {
				c.out.Append("ldi", r, byteOf(v.Value, i))
			}
		}
	case v.Kind == token.Variable && v.Type.IsPointer():
		if len(regs) != 2 {
			return newError(ErrSizeMismatch, "%s = %s", dst, v)
		}
		for i, r := range regs {
			c.out.Append("ldi", r, c.Dialect.Pointer(i, v.Text, v.Type == token.TypePrgPtr, false))
		}
	case v.IsConst():
		if len(regs) > asm.MaxBytes {
			return newError(ErrSizeMismatch, "%s = %s", dst, v)
		}
		for i, r := range regs {
			c.out.Append("ldi", r, c.Dialect.Byte(i, v.Text))
		}
	case v.Kind == token.Variable:
		if v.Size() != len(regs) {
			return newError(ErrSizeMismatch, "%s = %s", dst, v)
		}
		for k, r := range dst.Registers() {
			c.out.Append("lds", r, memoryOffset(v.Text, k))
		}
	case v.IsRegisterLike():
		if v.Size() != len(regs) {
			return newError(ErrSizeMismatch, "%s = %s", dst, v)
		}
		if lo, ok := wordRegister(dst); ok {
			if srcLo, ok := wordRegister(v); ok {
				if !token.SameRegister(lo, srcLo) {
					c.out.Append("movw", lo, srcLo)
				}
				return nil
			}
		}
		to, from := dst.Registers(), v.Registers()
		if clobbers(to, from) {
			to, from = lsFirst(dst), lsFirst(v)
			if clobbers(to, from) {
				return newError(ErrUnsupportedOperation, "%s = %s: registers overlap", dst, v)
			}
		}
		for i, r := range to {
			if !token.SameRegister(r, from[i]) {
				c.out.Append("mov", r, from[i])
			}
		}
	case v.Kind == token.ArrayIOW:
		if len(regs) != 2 {
			return newError(ErrSizeMismatch, "%s = %s", dst, v)
		}
		lo, hi := ioWordAddresses(v)
		c.out.Append("in", regs[0], lo)
		c.out.Append("in", regs[1], hi)
	case v.IsArray():
		return newError(ErrSizeMismatch, "%s = %s", dst, v)
	default:
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	return nil
}

// addGroup adds v to a pair or group, or subtracts it when sub is set
func (c *Compiler) addGroup(dst, v token.Token, sub bool) error {
	regs := lsFirst(dst)
	switch {
	case v.Kind == token.Number:
		k := v.Value
		if lo, ok := adiwRegister(dst); ok && k >= -63 && k <= 63 {
			if k < 0 {
				k, sub = -k, !sub
			}
			mnemonic := "adiw"
			if sub {
				mnemonic = "sbiw"
			}
			c.out.Append(mnemonic, lo, fmt.Sprintf("%d", k))
			return nil
		}
		if !sub {
			k = -k
		}
		c.subtractBytes(regs, func(i int) string { return byteOf(k, i) })
	case v.Kind == token.Variable && v.Type.IsPointer():
		if len(regs) != 2 {
			return newError(ErrSizeMismatch, "%s += %s", dst, v)
		}
		prg := v.Type == token.TypePrgPtr
		c.subtractBytes(regs, func(i int) string { return c.Dialect.Pointer(i, v.Text, prg, !sub) })
	case v.IsConst():
		if len(regs) > asm.MaxBytes {
			return newError(ErrSizeMismatch, "%s, %s", dst, v)
		}
		c.subtractBytes(regs, func(i int) string {
			if sub {
				return c.Dialect.Byte(i, v.Text)
			}
			return c.Dialect.NegByte(i, v.Text)
		})
	case v.IsRegisterLike():
		if v.Size() != len(regs) {
			return newError(ErrSizeMismatch, "%s, %s", dst, v)
		}
		first, carry := "add", "adc"
		if sub {
			first, carry = "sub", "sbc"
		}
		for i, r := range lsFirst(v) {
			mnemonic := carry
			if i == 0 {
				mnemonic = first
			}
			c.out.Append(mnemonic, regs[i], r)
		}
	default:
		return newError(ErrUnexpectedExpression, "%s", v)
	}
	return nil
}

// subtractBytes emits a subi/sbci chain, least significant byte first
func (c *Compiler) subtractBytes(regs []string, byteAt func(int) string) {
	for i, r := range regs {
		mnemonic := "sbci"
		if i == 0 {
			mnemonic = "subi"
		}
		c.out.Append(mnemonic, r, byteAt(i))
	}
}

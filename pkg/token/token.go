// Package token defines the classified lexical units of the pseudo-assembly
// source: registers, register groups, array cells, flags, numbers, constant
// expressions, variables, keywords and operators.
package token

import (
	"fmt"
	"strings"
)

// Kind is the closed set of token classes
type Kind int

const (
	Other Kind = iota
	Register
	Pair // X, Y, Z
	Group
	RegisterBit
	ArrayIO
	ArrayIOW
	ArrayRAM
	ArrayPRG
	Flag
	Number
	ConstExpr
	Variable
	Keyword
	Operator
)

var kindNames = map[Kind]string{
	Other:       "OTHER",
	Register:    "REGISTER",
	Pair:        "PAIR",
	Group:       "GROUP",
	RegisterBit: "REGISTER_BIT",
	ArrayIO:     "IO",
	ArrayIOW:    "IOW",
	ArrayRAM:    "RAM",
	ArrayPRG:    "PRG",
	Flag:        "FLAG",
	Number:      "NUMBER",
	ConstExpr:   "CONST_EXPR",
	Variable:    "VARIABLE",
	Keyword:     "KEYWORD",
	Operator:    "OPERATOR",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Mode is the addressing mode of an array cell index
type Mode int

const (
	ModeNone Mode = iota
	ModePreInc
	ModePreDec
	ModePostInc
	ModePostDec
)

// VarType is the declared type of a variable
type VarType int

const (
	TypeByte VarType = iota
	TypeWord
	TypeDWord
	TypePtr    // address of a RAM location
	TypePrgPtr // address of a program memory location
)

// Size returns the size in bytes
func (t VarType) Size() int {
	switch t {
	case TypeByte:
		return 1
	case TypeDWord:
		return 4
	default:
		return 2
	}
}

// IsPointer reports whether the address, not the value, is loaded
func (t VarType) IsPointer() bool {
	return t == TypePtr || t == TypePrgPtr
}

func (t VarType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeWord:
		return "word"
	case TypeDWord:
		return "dword"
	case TypePtr:
		return "ptr"
	case TypePrgPtr:
		return "prgptr"
	}
	return fmt.Sprintf("VarType(%d)", int(t))
}

// Token is a classified lexical unit. Text holds the primary payload
// (register name, literal, operator, identifier, array name); the other
// fields are only meaningful for the kinds that use them.
type Token struct {
	Kind  Kind
	Text  string
	Regs  []string // Group: registers, most significant first
	Index string   // RegisterBit: bit expression; Array*: index
	Mode  Mode     // Array*: addressing mode
	Bit   string   // ArrayIO: bit number for io[port].bit
	Value int64    // Number
	Type  VarType  // Variable
}

// New creates a token with the given kind and text
func New(kind Kind, text string) Token {
	return Token{Kind: kind, Text: text}
}

// Op creates an operator token
func Op(text string) Token {
	return Token{Kind: Operator, Text: text}
}

// Num creates a number token rendered in decimal
func Num(v int64) Token {
	return Token{Kind: Number, Text: fmt.Sprintf("%d", v), Value: v}
}

// Is reports whether t is an operator or keyword with the given text
func (t Token) Is(text string) bool {
	return (t.Kind == Operator || t.Kind == Keyword) && t.Text == text
}

// IsOperator reports whether t is the operator op
func (t Token) IsOperator(op string) bool {
	return t.Kind == Operator && t.Text == op
}

// IsKeyword reports whether t is the keyword kw
func (t Token) IsKeyword(kw string) bool {
	return t.Kind == Keyword && t.Text == kw
}

// IsArray reports whether t is any array cell
func (t Token) IsArray() bool {
	switch t.Kind {
	case ArrayIO, ArrayIOW, ArrayRAM, ArrayPRG:
		return true
	}
	return false
}

// IsConst reports whether t is a compile-time constant for the assembler
func (t Token) IsConst() bool {
	switch t.Kind {
	case Number, ConstExpr:
		return true
	case Other:
		return IsIdentifier(t.Text)
	}
	return false
}

// IsZero reports whether t is the literal 0
func (t Token) IsZero() bool {
	return t.Kind == Number && t.Value == 0
}

// IsRegisterLike reports whether t names one or more registers
func (t Token) IsRegisterLike() bool {
	return t.Kind == Register || t.Kind == Pair || t.Kind == Group
}

// Registers returns the register names held by t, most significant first
func (t Token) Registers() []string {
	switch t.Kind {
	case Register:
		return []string{t.Text}
	case Pair:
		return []string{t.Text + "H", t.Text + "L"}
	case Group:
		return t.Regs
	}
	return nil
}

// Size returns the size in bytes of a register-like or variable token
func (t Token) Size() int {
	switch t.Kind {
	case Variable:
		return t.Type.Size()
	case ArrayIOW:
		return 2
	case ArrayIO, ArrayRAM, ArrayPRG:
		return 1
	}
	return len(t.Registers())
}

// String renders the token the way it reads in source
func (t Token) String() string {
	switch t.Kind {
	case Group:
		return strings.Join(t.Regs, ".")
	case RegisterBit:
		return t.Text + "[" + t.Index + "]"
	case ArrayIO, ArrayIOW, ArrayRAM, ArrayPRG:
		var idx string
		switch t.Mode {
		case ModePreInc:
			idx = "++" + t.Index
		case ModePreDec:
			idx = "--" + t.Index
		case ModePostInc:
			idx = t.Index + "++"
		case ModePostDec:
			idx = t.Index + "--"
		default:
			idx = t.Index
		}
		s := t.Text + "[" + idx + "]"
		if t.Bit != "" {
			s += "." + t.Bit
		}
		return s
	}
	return t.Text
}

// Equal compares tokens structurally; registers compare by number so that
// "R16" equals "r16" and "XL" equals "r26".
func Equal(a, b Token) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Register:
		return SameRegister(a.Text, b.Text)
	case Pair:
		return a.Text == b.Text
	case Group:
		if len(a.Regs) != len(b.Regs) {
			return false
		}
		for i := range a.Regs {
			if !SameRegister(a.Regs[i], b.Regs[i]) {
				return false
			}
		}
		return true
	case RegisterBit:
		return SameRegister(a.Text, b.Text) && a.Index == b.Index
	case ArrayIO, ArrayIOW, ArrayRAM, ArrayPRG:
		return a.Index == b.Index && a.Mode == b.Mode && a.Bit == b.Bit
	case Number:
		return a.Value == b.Value
	}
	return a.Text == b.Text
}

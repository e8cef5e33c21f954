package asm

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/raymyers/rasm/pkg/token"
)

// Dialect is the assembler syntax of the output
type Dialect int

const (
	GNU    Dialect = iota // avr-as
	Native                // avrasm2
)

func (d Dialect) String() string {
	if d == GNU {
		return "gnu"
	}
	return "native"
}

// ParseDialect parses a dialect name as given on the command line
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "gnu", "gcc", "avr-as":
		return GNU, nil
	case "native", "atmel", "avrasm2":
		return Native, nil
	}
	return GNU, fmt.Errorf("unknown dialect %q", name)
}

// DialectForFile picks the dialect from the source file extension
func DialectForFile(path string) Dialect {
	switch filepath.Ext(path) {
	case ".S", ".s", ".sx":
		return GNU
	}
	return Native
}

// MaxBytes is the number of bytes of a symbolic constant Byte can select
const MaxBytes = 4

var byteFuncs = map[Dialect][MaxBytes]string{
	GNU:    {"lo8", "hi8", "hlo8", "hhi8"},
	Native: {"LOW", "HIGH", "BYTE3", "BYTE4"},
}

// Byte selects byte i (0 = least significant) of a symbolic constant
func (d Dialect) Byte(i int, expr string) string {
	return byteFuncs[d][i] + "(" + expr + ")"
}

// NegByte selects byte i of the negated constant, as used by subi/sbci
// to add a constant.
func (d Dialect) NegByte(i int, expr string) string {
	if d == GNU {
		return d.Byte(i, "-("+expr+")")
	}
	return d.Byte(i, "-"+token.Parenthesize(expr))
}

// Pointer selects byte i of the address of a variable or label. Native
// program labels are word addresses and are doubled.
func (d Dialect) Pointer(i int, name string, prg, negate bool) string {
	if d == GNU {
		if negate {
			return d.NegByte(i, name)
		}
		return d.Byte(i, name)
	}
	if prg {
		name = "2*" + name
	}
	if negate {
		name = "-" + name
	}
	return d.Byte(i, name)
}

// ByteDirective returns the directive for byte data
func (d Dialect) ByteDirective() string {
	if d == GNU {
		return ".byte"
	}
	return ".db"
}

// WordDirective returns the directive for word data
func (d Dialect) WordDirective() string {
	if d == GNU {
		return ".word"
	}
	return ".dw"
}

// DataDirective maps a data directive of either dialect to this one
func (d Dialect) DataDirective(name string) string {
	switch strings.ToLower(name) {
	case ".db", ".byte":
		return d.ByteDirective()
	case ".dw", ".word":
		return d.WordDirective()
	}
	return name
}

// Equ renders a constant definition
func (d Dialect) Equ(name, value string) string {
	if d == GNU {
		return ".equ " + name + ", " + value
	}
	return ".equ " + name + " = " + value
}

// Set renders a redefinable symbol assignment
func (d Dialect) Set(name, value string) string {
	if d == GNU {
		return ".set " + name + ", " + value
	}
	return ".set " + name + " = " + value
}

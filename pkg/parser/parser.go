// Package parser drives the compilation of one source unit: a discovery
// pass collecting labels, procedures and constants, then a compile pass
// handing statements to the compiler and passing other directives through.
package parser

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/compiler"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/lexer"
	"github.com/raymyers/rasm/pkg/symbols"
	"github.com/raymyers/rasm/pkg/token"
)

// Parser holds the options of a compilation. Each call to Parse works on
// fresh state, so a Parser can be reused.
type Parser struct {
	Dialect asm.Dialect
	defines []define
}

type define struct {
	name, value string
}

// New creates a parser for the given output dialect
func New(dialect asm.Dialect) *Parser {
	return &Parser{Dialect: dialect}
}

// Define adds a constant visible from the first line on. It is also
// emitted as an .equ at the top of the output.
func (p *Parser) Define(name, value string) {
	p.defines = append(p.defines, define{name: name, value: value})
}

// Compile compiles src with a parser for dialect
func Compile(src string, dialect asm.Dialect) (*asm.Output, error) {
	return New(dialect).Parse(src)
}

// unit is the state of one compilation
type unit struct {
	dialect  asm.Dialect
	env      *symbols.Env
	c        *compiler.Compiler
	lines    []string
	line     int
	procLine int // line of the open .proc
}

func (p *Parser) newUnit(src string) *unit {
	env := symbols.New()
	for _, d := range p.defines {
		raw, _ := lexer.Split(d.value)
		env.DefineConstant(d.name, raw)
	}
	return &unit{
		dialect: p.Dialect,
		env:     env,
		c:       compiler.New(env, p.Dialect),
		lines:   splitLines(src),
	}
}

func splitLines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.TrimSuffix(src, "\n")
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

// Parse compiles src. The first error aborts the compilation.
func (p *Parser) Parse(src string) (*asm.Output, error) {
	u := p.newUnit(src)
	if err := u.discover(); err != nil {
		return nil, err
	}
	slog.Debug("discovery done", "lines", len(u.lines), "dialect", p.Dialect)

	out := u.c.Output()
	for _, d := range p.defines {
		out.AppendRaw(p.Dialect.Equ(d.name, d.value))
	}
	for i, line := range u.lines {
		u.line = i + 1
		if err := u.compileLine(line); err != nil {
			slog.Debug("compile failed", "line", u.line, "err", err)
			return nil, err
		}
	}
	if proc := u.env.Current(); proc != nil {
		return nil, compiler.Errorf(compiler.ErrBracketNotFound, u.procLine,
			".proc %s opened at line %d is not closed", proc.Name, u.procLine)
	}
	if err := u.c.Finish(); err != nil {
		return nil, err
	}
	slog.Debug("compile done", "output", out.Len())
	return out, nil
}

// splitLabel strips a leading "name:" from raw
func splitLabel(raw []string) (string, []string) {
	if len(raw) >= 2 && raw[1] == ":" && token.IsIdentifier(raw[0]) && !token.IsRegister(raw[0]) {
		return raw[0], raw[2:]
	}
	return "", raw
}

func (u *unit) compileLine(line string) error {
	u.c.SetLine(u.line)
	out := u.c.Output()
	raw, comment := lexer.Split(line)
	if len(raw) == 0 {
		out.AppendRaw(strings.TrimRight(line, " \t\r"))
		return nil
	}

	label, rest := splitLabel(raw)
	if label != "" {
		out.AppendLabel(asm.Label(label))
	}
	start := out.Len()
	if len(rest) == 0 {
		if comment != "" {
			out.AttachComment(start, comment)
		}
		return nil
	}

	if isDirective(rest) {
		return u.directive(rest, line, label != "", comment)
	}
	if err := u.c.CompileLine(rest); err != nil {
		return err
	}
	if comment != "" {
		out.AttachComment(start, comment)
	}
	slog.Debug("compiled", "line", u.line, "emitted", out.Len()-start)
	return nil
}

// isDirective reports whether raw is a directive handled by the parser
// rather than by the compiler.
func isDirective(raw []string) bool {
	if !strings.HasPrefix(raw[0], ".") && !strings.HasPrefix(raw[0], "#") {
		return false
	}
	switch strings.ToLower(raw[0]) {
	case ".loop", ".endloop":
		return false
	}
	for _, s := range raw {
		if s == "{" || s == "}" {
			return false
		}
	}
	return true
}

// DumpTokens writes the classified expression of every statement line,
// one line per statement prefixed by its line number.
func (p *Parser) DumpTokens(w io.Writer, src string) error {
	u := p.newUnit(src)
	if err := u.discover(); err != nil {
		return err
	}
	for i, line := range u.lines {
		u.line = i + 1
		raw, _ := lexer.Split(line)
		_, rest := splitLabel(raw)
		if len(rest) == 0 {
			continue
		}
		if isDirective(rest) {
			if err := u.scope(rest); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%d:", u.line)
		for _, t := range expr.Parse(rest, u.env) {
			fmt.Fprintf(w, " %s(%s)", t.Kind, t)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// Package compiler translates pseudo-assembly statements into AVR
// instructions: register expressions, memory and bit transfers, conditional
// jumps, structured blocks and procedure calls.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/lexer"
	"github.com/raymyers/rasm/pkg/symbols"
	"github.com/raymyers/rasm/pkg/token"
)

// Compiler compiles the statements of one compilation unit. It owns the
// output, the open block stack and the generated label counter.
type Compiler struct {
	Env     *symbols.Env
	Dialect asm.Dialect

	out      *asm.Output
	blocks   []*block
	closed   *block // last closed if block, for a following "else {"
	closedAt int    // output length before its end label
	labels   int
	line     int
}

// New creates a compiler emitting into a fresh output
func New(env *symbols.Env, dialect asm.Dialect) *Compiler {
	return &Compiler{Env: env, Dialect: dialect, out: asm.NewOutput()}
}

// Output returns the emitted lines
func (c *Compiler) Output() *asm.Output {
	return c.out
}

// SetLine sets the source line number used for errors and block tracking
func (c *Compiler) SetLine(n int) {
	c.line = n
}

// CompileString splits and compiles one source line
func (c *Compiler) CompileString(line string) error {
	raw, _ := lexer.Split(line)
	return c.CompileLine(raw)
}

// CompileLine compiles the raw tokens of one statement line. Braces may
// share the line with statements: "loop (r16 = 1) { }" is split at the
// braces and compiled piecewise.
func (c *Compiler) CompileLine(raw []string) error {
	err := c.compileLine(raw)
	var cerr *Error
	if errors.As(err, &cerr) && cerr.Line == 0 {
		cerr.Line = c.line
	}
	return err
}

func (c *Compiler) compileLine(raw []string) error {
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == "}" {
		return c.closeBlock(raw[1:])
	}
	for i, s := range raw {
		if (s == "{" && i < len(raw)-1) || (s == "}" && i > 0) {
			split := i
			if s == "{" {
				split = i + 1
			}
			if err := c.compileLine(raw[:split]); err != nil {
				return err
			}
			return c.compileLine(raw[split:])
		}
	}
	if b := c.top(); b != nil && b.kind == blockBytes {
		return c.compileData(b, raw)
	}
	if raw[len(raw)-1] == "{" {
		return c.openBlock(raw[:len(raw)-1])
	}
	return c.compileStatement(raw)
}

func (c *Compiler) compileStatement(raw []string) error {
	switch {
	case raw[0] == "if":
		return c.compileIf(raw[1:])
	case raw[0] == "goto":
		if len(raw) != 2 {
			return newError(ErrUnexpectedExpression, "%s", expr.JoinRaw(raw))
		}
		c.out.Append("rjmp", raw[1])
		return nil
	case len(raw) == 1 && (raw[0] == "break" || raw[0] == "continue"):
		target, err := c.loopTarget(raw[0])
		if err != nil {
			return err
		}
		c.out.Append("rjmp", string(target))
		return nil
	case raw[0] == ".loop":
		return c.openLoop(raw[1:])
	case raw[0] == ".endloop":
		if b := c.top(); b == nil || b.kind != blockLoop {
			return newError(ErrBracketNotFound, ".endloop")
		}
		return c.closeBlock(nil)
	case isCall(raw):
		return c.compileCall(raw)
	case token.IsMnemonic(raw[0]) && !(len(raw) > 1 && isAssignment(raw[1])):
		c.compileInstruction(raw)
		return nil
	}
	return c.CompileExpression(expr.Parse(raw, c.Env))
}

func isAssignment(s string) bool {
	switch s {
	case "=", "+=", "-=", "&=", "|=", "^=", "<<=", ">>=", "++", "--", ".", "[":
		return true
	}
	return false
}

// compileInstruction emits a plain AVR instruction with aliases substituted
// in its operands.
func (c *Compiler) compileInstruction(raw []string) {
	if len(raw) == 1 {
		c.out.Append(strings.ToLower(raw[0]))
		return
	}
	var args []string
	for _, part := range splitRaw(raw[1:], ",") {
		args = append(args, expr.JoinRaw(c.expandAliases(part)))
	}
	if len(args) > 2 {
		args = []string{strings.Join(args, ", ")}
	}
	c.out.Append(strings.ToLower(raw[0]), args...)
}

func (c *Compiler) expandAliases(raw []string) []string {
	var out []string
	for _, s := range raw {
		if token.IsIdentifier(s) {
			if binding, ok := c.Env.ResolveAlias(s); ok {
				out = append(out, expr.JoinRaw(binding))
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (c *Compiler) compileData(b *block, raw []string) error {
	var items []string
	for _, part := range splitRaw(raw, ",") {
		if len(part) == 0 {
			continue
		}
		items = append(items, expr.JoinRaw(c.expandAliases(part)))
	}
	if len(items) == 0 {
		return nil
	}
	c.out.Append(b.directive, strings.Join(items, ", "))
	return nil
}

// newLabel returns a unique generated label
func (c *Compiler) newLabel(kind string) asm.Label {
	c.labels++
	return asm.Label(fmt.Sprintf("__%s%d", kind, c.labels))
}

// scratch runs fn with a temporary output and returns what it emitted
func (c *Compiler) scratch(fn func() error) (*asm.Output, error) {
	saved := c.out
	c.out = asm.NewOutput()
	err := fn()
	o := c.out
	c.out = saved
	return o, err
}

// splitRaw splits raw tokens on sep outside brackets
func splitRaw(raw []string, sep string) [][]string {
	var parts [][]string
	depth, start := 0, 0
	for i, s := range raw {
		switch s {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, raw[start:])
}

// matchRaw returns the index of the bracket closing raw[open], or -1
func matchRaw(raw []string, open int) int {
	depth := 0
	for i := open; i < len(raw); i++ {
		switch raw[i] {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

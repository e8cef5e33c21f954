package compiler

import (
	"fmt"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

type blockKind int

const (
	blockLoop blockKind = iota
	blockIf
	blockElse
	blockDo
	blockBytes
)

var blockNames = map[blockKind]string{
	blockLoop:  "loop",
	blockIf:    "if",
	blockElse:  "else",
	blockDo:    "do",
	blockBytes: "byte list",
}

// block is an open structured block
type block struct {
	kind    blockKind
	line    int
	start   asm.Label
	end     asm.Label // loop exit, or where an if/else block continues
	cont    asm.Label // continue target of counted and do-while loops
	counter token.Token
	counted bool

	// byte list directive
	directive string
}

func (c *Compiler) top() *block {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1]
}

func (c *Compiler) push(b *block) {
	b.line = c.line
	c.blocks = append(c.blocks, b)
}

// OpenBlocks returns the number of blocks not closed yet
func (c *Compiler) OpenBlocks() int {
	return len(c.blocks)
}

// Finish checks that every block has been closed
func (c *Compiler) Finish() error {
	if b := c.top(); b != nil {
		return &Error{
			Err:    ErrBracketNotFound,
			Detail: fmt.Sprintf("%s block opened at line %d is not closed", blockNames[b.kind], b.line),
			Line:   b.line,
		}
	}
	return nil
}

// openBlock compiles a line ending with "{"
func (c *Compiler) openBlock(head []string) error {
	if len(head) == 0 {
		return newError(ErrUnexpectedExpression, "{")
	}
	switch head[0] {
	case "loop", ".loop":
		return c.openLoop(head[1:])
	case "if":
		cond, rest, err := c.parseHeader(head[1:])
		if err != nil {
			return err
		}
		if len(rest) != 0 {
			return newError(ErrUnexpectedExpression, "%s", expr.JoinRaw(rest))
		}
		b := &block{kind: blockIf, end: c.newLabel("else")}
		if err := c.jumpUnless(cond, b.end); err != nil {
			return err
		}
		c.push(b)
		return nil
	case "do":
		if len(head) != 1 {
			return newError(ErrUnexpectedExpression, "%s", expr.JoinRaw(head))
		}
		b := &block{kind: blockDo, start: c.newLabel("do")}
		c.out.AppendLabel(b.start)
		c.push(b)
		return nil
	case "else":
		if len(head) != 1 || c.closed == nil || c.out.Len() != c.closedAt+1 {
			return newError(ErrUnexpectedExpression, "else without if")
		}
		b := c.closed
		c.closed = nil
		c.out.Truncate(c.closedAt)
		return c.openElse(b)
	case ".db", ".byte", ".dw", ".word":
		if len(head) != 1 {
			return newError(ErrUnexpectedExpression, "%s", expr.JoinRaw(head))
		}
		c.push(&block{kind: blockBytes, directive: c.Dialect.DataDirective(head[0])})
		return nil
	}
	return newError(ErrUnexpectedExpression, "%s {", expr.JoinRaw(head))
}

// openLoop compiles "loop [(counter [= init])]"
func (c *Compiler) openLoop(header []string) error {
	b := &block{kind: blockLoop}
	if len(header) > 0 {
		e := expr.Parse(header, c.Env).Unwrap()
		if len(e) == 0 || !(e[0].Kind == token.Register || e[0].Kind == token.Pair || e[0].Kind == token.Group) {
			return newError(ErrUnexpectedExpression, "loop counter %s", expr.JoinRaw(header))
		}
		b.counter, b.counted = e[0], true
		if e[0].Kind != token.Register {
			if _, ok := adiwRegister(e[0]); !ok {
				return newError(ErrUnsupportedOperation, "loop counter %s", e[0])
			}
		}
		switch {
		case len(e) == 1:
		case e.IsOperator(1, "="):
			if err := c.CompileExpression(e); err != nil {
				return err
			}
		default:
			return newError(ErrUnexpectedExpression, "%s", e[1])
		}
	}
	b.start = c.newLabel("loop")
	c.out.AppendLabel(b.start)
	c.push(b)
	return nil
}

// openElse turns an if block into an else block
func (c *Compiler) openElse(b *block) error {
	falseLabel := b.end
	b.kind = blockElse
	b.end = c.newLabel("endif")
	c.out.Append("rjmp", string(b.end))
	c.out.AppendLabel(falseLabel)
	c.push(b)
	return nil
}

// closeBlock compiles "}" followed by rest, which may be "else {",
// "while (cond)" or another statement.
func (c *Compiler) closeBlock(rest []string) error {
	b := c.top()
	if b == nil {
		return newError(ErrBracketNotFound, "}")
	}
	c.blocks = c.blocks[:len(c.blocks)-1]
	c.closed = nil

	switch b.kind {
	case blockIf:
		if len(rest) >= 2 && rest[0] == "else" && rest[1] == "{" {
			if err := c.openElse(b); err != nil {
				return err
			}
			return c.compileLine(rest[2:])
		}
		c.closed, c.closedAt = b, c.out.Len()
		c.out.AppendLabel(b.end)
	case blockElse:
		c.out.AppendLabel(b.end)
	case blockLoop:
		if b.cont != "" {
			c.out.AppendLabel(b.cont)
		}
		if b.counted {
			if lo, ok := adiwRegister(b.counter); ok && b.counter.Kind != token.Register {
				c.out.Append("sbiw", lo, "1")
			} else {
				c.out.Append("dec", b.counter.Text)
			}
			c.out.Append("brne", string(b.start))
		} else {
			c.out.Append("rjmp", string(b.start))
		}
		if b.end != "" {
			c.out.AppendLabel(b.end)
		}
	case blockDo:
		if len(rest) == 0 || rest[0] != "while" {
			return newError(ErrUnexpectedExpression, "do block must end with while")
		}
		if b.cont != "" {
			c.out.AppendLabel(b.cont)
		}
		cond, tail, err := c.parseHeader(rest[1:])
		if err != nil {
			return err
		}
		if len(tail) != 0 {
			return newError(ErrUnexpectedExpression, "%s", expr.JoinRaw(tail))
		}
		if err := c.jumpTo(cond, b.start); err != nil {
			return err
		}
		if b.end != "" {
			c.out.AppendLabel(b.end)
		}
		return nil
	}
	if len(rest) == 0 {
		return nil
	}
	return c.compileLine(rest)
}

// loopTarget returns the label break or continue jumps to, allocating it
// on first use.
func (c *Compiler) loopTarget(kw string) (asm.Label, error) {
	for i := len(c.blocks) - 1; i >= 0; i-- {
		b := c.blocks[i]
		if b.kind != blockLoop && b.kind != blockDo {
			continue
		}
		if kw == "break" {
			if b.end == "" {
				b.end = c.newLabel("endloop")
			}
			return b.end, nil
		}
		if b.kind == blockLoop && !b.counted {
			return b.start, nil
		}
		if b.cont == "" {
			b.cont = c.newLabel("cont")
		}
		return b.cont, nil
	}
	return "", newError(ErrInvalidExpression, "%s outside a loop", kw)
}

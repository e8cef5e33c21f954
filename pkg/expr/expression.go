// Package expr builds classified expressions out of the raw tokens of one
// source line: register chains, bit indexes and array cells are merged,
// aliases, constants and variables are resolved and constant sub-expressions
// are folded.
package expr

import (
	"strings"

	"github.com/raymyers/rasm/pkg/token"
)

// Expression is an ordered, mutable sequence of tokens
type Expression []token.Token

// Resolver gives the classification pass access to the symbol environment
type Resolver interface {
	// ResolveAlias returns the raw tokens an alias name is bound to
	ResolveAlias(name string) ([]string, bool)
	// ResolveConstant returns the raw tokens of a constant's value
	ResolveConstant(name string) ([]string, bool)
	// ResolveVariable returns the type of a variable or label
	ResolveVariable(name string) (token.VarType, bool)
}

// First returns the first token, or an empty Other token
func (e Expression) First() token.Token {
	if len(e) == 0 {
		return token.Token{}
	}
	return e[0]
}

// Last returns the last token, or an empty Other token
func (e Expression) Last() token.Token {
	if len(e) == 0 {
		return token.Token{}
	}
	return e[len(e)-1]
}

// IsOperator reports whether the token at i is the operator op
func (e Expression) IsOperator(i int, op string) bool {
	return i >= 0 && i < len(e) && e[i].IsOperator(op)
}

// IsKeyword reports whether the token at i is the keyword kw
func (e Expression) IsKeyword(i int, kw string) bool {
	return i >= 0 && i < len(e) && e[i].IsKeyword(kw)
}

// Matching returns the index of the bracket closing the one at open, or -1
func (e Expression) Matching(open int) int {
	var closer string
	switch e[open].Text {
	case "(":
		closer = ")"
	case "[":
		closer = "]"
	case "{":
		closer = "}"
	default:
		return -1
	}
	opener := e[open].Text
	depth := 0
	for i := open; i < len(e); i++ {
		if e[i].Kind != token.Operator {
			continue
		}
		switch e[i].Text {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// IndexTop returns the index of the first op outside any brackets, or -1
func (e Expression) IndexTop(op string) int {
	depth := 0
	for i, t := range e {
		if t.Kind != token.Operator {
			continue
		}
		switch t.Text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		default:
			if depth == 0 && t.Text == op {
				return i
			}
		}
	}
	return -1
}

// CountTop counts the occurrences of op outside any brackets
func (e Expression) CountTop(op string) int {
	return len(e.SplitTop(op)) - 1
}

// SplitTop splits the expression on op outside any brackets
func (e Expression) SplitTop(op string) []Expression {
	var parts []Expression
	depth, start := 0, 0
	for i, t := range e {
		if t.Kind != token.Operator {
			continue
		}
		switch t.Text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		default:
			if depth == 0 && t.Text == op {
				parts = append(parts, e[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, e[start:])
}

// Unwrap strips parentheses enclosing the whole expression
func (e Expression) Unwrap() Expression {
	for len(e) >= 2 && e.IsOperator(0, "(") && e.Matching(0) == len(e)-1 {
		e = e[1 : len(e)-1]
	}
	return e
}

// Clone returns a copy that can be rewritten independently
func (e Expression) Clone() Expression {
	c := make(Expression, len(e))
	copy(c, e)
	return c
}

// String renders the expression in source form
func (e Expression) String() string {
	var sb strings.Builder
	for i, t := range e {
		if i > 0 && needsSpace(e[i-1], t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Compact renders the expression without whitespace, as used for operand
// text handed to the assembler.
func (e Expression) Compact() string {
	var sb strings.Builder
	for i, t := range e {
		if i > 0 && e[i-1].Kind != token.Operator && t.Kind != token.Operator {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

func needsSpace(prev, cur token.Token) bool {
	switch {
	case prev.IsOperator("(") || prev.IsOperator("[") || prev.IsOperator("!"):
		return false
	case (cur.IsOperator("(") || cur.IsOperator("[")) && prev.Kind == token.Other:
		return false
	case cur.IsOperator(")") || cur.IsOperator("]") || cur.IsOperator(",") ||
		cur.IsOperator("++") || cur.IsOperator("--") || cur.IsOperator(":"):
		return false
	}
	return true
}

// JoinRaw renders raw tokens without whitespace except between two words
func JoinRaw(raw []string) string {
	var sb strings.Builder
	for i, s := range raw {
		if i > 0 && !token.IsOperator(s) && !token.IsOperator(raw[i-1]) {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

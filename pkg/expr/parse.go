package expr

import (
	"strings"

	"github.com/raymyers/rasm/pkg/token"
)

// Parse classifies the raw tokens of one line. r may be nil, in which case
// no aliases, constants or variables are resolved.
func Parse(raw []string, r Resolver) Expression {
	c := &classifier{r: r, resolving: map[string]bool{}}
	return c.parse(raw)
}

type classifier struct {
	r         Resolver
	resolving map[string]bool // constants being substituted
}

func (c *classifier) parse(raw []string) Expression {
	raw = c.expandAliases(raw)
	e := c.classify(raw)
	c.resolveSymbols(e)
	return fold(e)
}

// expandAliases replaces alias names by the register text they are bound to.
// A name directly followed by ':' is a label or argument name and is kept.
func (c *classifier) expandAliases(raw []string) []string {
	if c.r == nil {
		return raw
	}
	var out []string
	for i, s := range raw {
		if token.IsIdentifier(s) && !(i+1 < len(raw) && raw[i+1] == ":") {
			if binding, ok := c.r.ResolveAlias(s); ok {
				out = append(out, binding...)
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func (c *classifier) classify(raw []string) Expression {
	var e Expression
	for i := 0; i < len(raw); {
		s := raw[i]
		switch {
		case token.IsRegister(s):
			regs := []string{s}
			j := i
			for j+2 < len(raw) && raw[j+1] == "." && token.IsRegister(raw[j+2]) {
				regs = append(regs, raw[j+2])
				j += 2
			}
			if len(regs) > 1 {
				e = append(e, token.Token{Kind: token.Group, Text: strings.Join(regs, "."), Regs: regs})
				i = j + 1
				continue
			}
			if i+1 < len(raw) && raw[i+1] == "[" {
				if k := matchRaw(raw, i+1); k > i+2 {
					e = append(e, token.Token{Kind: token.RegisterBit, Text: s, Index: c.constText(raw[i+2 : k])})
					i = k + 1
					continue
				}
			}
			e = append(e, token.New(token.Register, s))
			i++
		case token.IsPair(s):
			e = append(e, token.New(token.Pair, s))
			i++
		case token.IsArrayName(s) && i+1 < len(raw) && raw[i+1] == "[":
			if t, next, ok := c.array(raw, i); ok {
				e = append(e, t)
				i = next
				continue
			}
			e = append(e, token.New(token.Other, s))
			i++
		case token.IsOperator(s):
			e = append(e, token.Op(s))
			i++
		case token.IsKeyword(s):
			e = append(e, token.New(token.Keyword, s))
			i++
		case token.IsFlag(s):
			e = append(e, token.New(token.Flag, s))
			i++
		default:
			if v, ok := token.ParseNumber(s); ok {
				e = append(e, token.Token{Kind: token.Number, Text: s, Value: v})
			} else {
				e = append(e, token.New(token.Other, s))
			}
			i++
		}
	}
	return e
}

var arrayKinds = map[string]token.Kind{
	"io":  token.ArrayIO,
	"iow": token.ArrayIOW,
	"ram": token.ArrayRAM,
	"prg": token.ArrayPRG,
}

// array classifies name[idx] with an optional ++/-- before or after idx.
// Anything else inside the brackets is left unclassified.
func (c *classifier) array(raw []string, i int) (token.Token, int, bool) {
	k := matchRaw(raw, i+1)
	if k < 0 {
		return token.Token{}, i, false
	}
	t := token.Token{Kind: arrayKinds[raw[i]], Text: raw[i]}
	inner := raw[i+2 : k]
	switch {
	case len(inner) == 1:
		t.Index = inner[0]
	case len(inner) == 2 && inner[0] == "++":
		t.Index, t.Mode = inner[1], token.ModePreInc
	case len(inner) == 2 && inner[0] == "--":
		t.Index, t.Mode = inner[1], token.ModePreDec
	case len(inner) == 2 && inner[1] == "++":
		t.Index, t.Mode = inner[0], token.ModePostInc
	case len(inner) == 2 && inner[1] == "--":
		t.Index, t.Mode = inner[0], token.ModePostDec
	default:
		return token.Token{}, i, false
	}
	if token.IsOperator(t.Index) {
		return token.Token{}, i, false
	}
	t.Index = c.constText([]string{t.Index})
	next := k + 1
	if t.Kind == token.ArrayIO && k+2 < len(raw) && raw[k+1] == "." && !token.IsOperator(raw[k+2]) {
		t.Bit = c.constText(raw[k+2 : k+3])
		next = k + 3
	}
	return t, next, true
}

// constText resolves a bit or index expression to the text handed to the
// assembler.
func (c *classifier) constText(raw []string) string {
	sub := c.parse(raw)
	if len(sub) == 1 {
		return sub[0].Text
	}
	return sub.Compact()
}

func (c *classifier) resolveSymbols(e Expression) {
	if c.r == nil {
		return
	}
	for i, t := range e {
		if t.Kind != token.Other || !token.IsIdentifier(t.Text) || e.IsOperator(i+1, ":") {
			continue
		}
		name := t.Text
		if raw, ok := c.r.ResolveConstant(name); ok && !c.resolving[name] {
			c.resolving[name] = true
			sub := c.parse(raw)
			delete(c.resolving, name)
			if resolved, ok := constantToken(sub); ok {
				e[i] = resolved
			}
			continue
		}
		if typ, ok := c.r.ResolveVariable(name); ok {
			e[i] = token.Token{Kind: token.Variable, Text: name, Type: typ}
		}
	}
}

// constantToken turns the folded value of a constant into one token
func constantToken(sub Expression) (token.Token, bool) {
	if len(sub) == 1 {
		switch {
		case sub[0].Kind == token.Number:
			return sub[0], true
		case sub[0].IsConst():
			return token.New(token.ConstExpr, token.Parenthesize(sub[0].Text)), true
		case sub[0].IsRegisterLike():
			return sub[0], true
		}
		return token.Token{}, false
	}
	for _, t := range sub {
		if !t.IsConst() && t.Kind != token.Operator {
			return token.Token{}, false
		}
	}
	if len(sub) == 0 {
		return token.Token{}, false
	}
	return token.New(token.ConstExpr, token.Parenthesize(sub.Compact())), true
}

func matchRaw(raw []string, open int) int {
	closer := map[string]string{"(": ")", "[": "]"}[raw[open]]
	depth := 0
	for i := open; i < len(raw); i++ {
		switch raw[i] {
		case raw[open]:
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

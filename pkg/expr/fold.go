package expr

import (
	"github.com/raymyers/rasm/pkg/token"
)

var foldOps = map[string]bool{
	"+": true, "-": true, "*": true, "<<": true, ">>": true, "&": true, "|": true,
}

// operators that bind a neighbouring operand and so prevent folding
var arithOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<<": true, ">>": true, "&": true, "|": true, "^": true,
}

// fold replaces constant runs by a single Number or ConstExpr token
func fold(e Expression) Expression {
	var out Expression
	for i := 0; i < len(e); {
		if end, ok := parseRun(e, i); ok && end > i+1 && foldable(e, i, end) {
			out = append(out, foldRun(e[i:end]))
			i = end
			continue
		}
		out = append(out, e[i])
		i++
	}
	return out
}

func isLeaf(t token.Token) bool {
	return t.Kind == token.Number || t.Kind == token.ConstExpr ||
		(t.Kind == token.Other && token.IsIdentifier(t.Text))
}

func isOperand(t token.Token) bool {
	return t.Kind != token.Operator || t.IsOperator(")") || t.IsOperator("]")
}

// parseRun matches term (op term)* starting at i and returns its end
func parseRun(e Expression, i int) (int, bool) {
	j, ok := parseTerm(e, i)
	if !ok {
		return i, false
	}
	for j < len(e) && e[j].Kind == token.Operator && foldOps[e[j].Text] {
		k, ok := parseTerm(e, j+1)
		if !ok {
			break
		}
		j = k
	}
	return j, true
}

func parseTerm(e Expression, i int) (int, bool) {
	if e.IsOperator(i, "-") {
		i++
	}
	if i >= len(e) {
		return i, false
	}
	if e[i].IsOperator("(") {
		j, ok := parseRun(e, i+1)
		if ok && e.IsOperator(j, ")") {
			return j + 1, true
		}
		return i, false
	}
	if isLeaf(e[i]) {
		return i + 1, true
	}
	return i, false
}

func foldable(e Expression, start, end int) bool {
	var prev, next token.Token
	hasPrev, hasNext := start > 0, end < len(e)
	if hasPrev {
		prev = e[start-1]
	}
	if hasNext {
		next = e[end]
	}
	if e[start].IsOperator("-") && hasPrev && isOperand(prev) {
		return false
	}
	if e[start].IsOperator("(") && e.Matching(start) == end-1 {
		if hasPrev && (prev.Kind == token.Keyword || prev.Kind == token.Variable ||
			(prev.Kind == token.Other && token.IsIdentifier(prev.Text))) {
			return false
		}
		return true
	}
	if hasPrev && prev.Kind == token.Operator && arithOps[prev.Text] {
		return false
	}
	if hasNext && next.Kind == token.Operator && arithOps[next.Text] {
		return false
	}
	return true
}

func foldRun(run Expression) token.Token {
	if inner := run.Unwrap(); len(inner) == 1 {
		return inner[0]
	}
	if v, ok := Eval(run); ok {
		return token.Num(v)
	}
	return token.New(token.ConstExpr, run.Compact())
}

var precedence = map[string]int{
	"|":  1,
	"^":  2,
	"&":  3,
	"<<": 4, ">>": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
}

// Eval evaluates an expression made only of numbers, arithmetic operators
// and parentheses with C operator precedence.
func Eval(e Expression) (int64, bool) {
	ev := &evaluator{e: e}
	v, ok := ev.binary(1)
	if !ok || ev.pos != len(e) {
		return 0, false
	}
	return v, true
}

type evaluator struct {
	e   Expression
	pos int
}

func (ev *evaluator) binary(minPrec int) (int64, bool) {
	lhs, ok := ev.unary()
	if !ok {
		return 0, false
	}
	for ev.pos < len(ev.e) {
		t := ev.e[ev.pos]
		prec, isOp := precedence[t.Text]
		if t.Kind != token.Operator || !isOp || prec < minPrec {
			break
		}
		ev.pos++
		rhs, ok := ev.binary(prec + 1)
		if !ok {
			return 0, false
		}
		switch t.Text {
		case "|":
			lhs |= rhs
		case "^":
			lhs ^= rhs
		case "&":
			lhs &= rhs
		case "<<":
			lhs <<= uint(rhs)
		case ">>":
			lhs >>= uint(rhs)
		case "+":
			lhs += rhs
		case "-":
			lhs -= rhs
		case "*":
			lhs *= rhs
		case "/", "%":
			if rhs == 0 {
				return 0, false
			}
			if t.Text == "/" {
				lhs /= rhs
			} else {
				lhs %= rhs
			}
		}
	}
	return lhs, true
}

func (ev *evaluator) unary() (int64, bool) {
	if ev.pos >= len(ev.e) {
		return 0, false
	}
	t := ev.e[ev.pos]
	switch {
	case t.IsOperator("-"):
		ev.pos++
		v, ok := ev.unary()
		return -v, ok
	case t.IsOperator("~"):
		ev.pos++
		v, ok := ev.unary()
		return ^v, ok
	case t.IsOperator("("):
		ev.pos++
		v, ok := ev.binary(1)
		if !ok || !ev.e.IsOperator(ev.pos, ")") {
			return 0, false
		}
		ev.pos++
		return v, true
	case t.Kind == token.Number:
		ev.pos++
		return t.Value, true
	}
	return 0, false
}

package compiler

import (
	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/token"
)

var relations = []string{"==", "!=", "<", "<=", ">", ">="}

var inverse = map[string]string{
	"==": "!=", "!=": "==",
	"<": ">=", ">=": "<",
	">": "<=", "<=": ">",
}

// mirror maps a relation to the one holding with the operands swapped
var mirror = map[string]string{
	"==": "==", "!=": "!=",
	"<": ">", ">": "<",
	"<=": ">=", ">=": "<=",
}

// condition is a parsed if header
type condition struct {
	parts  []expr.Expression
	or     bool // parts are joined by ||, otherwise by &&
	signed bool
}

// parseHeader splits "[s|u] (cond) rest" into the condition and the raw
// tokens following it.
func (c *Compiler) parseHeader(raw []string) (condition, []string, error) {
	var cond condition
	if len(raw) > 0 && (raw[0] == "s" || raw[0] == "u") {
		cond.signed = raw[0] == "s"
		raw = raw[1:]
	}
	if len(raw) == 0 || raw[0] != "(" {
		return cond, nil, newError(ErrInvalidExpression, "condition must be in parentheses")
	}
	end := matchRaw(raw, 0)
	if end < 0 {
		return cond, nil, newError(ErrInvalidExpression, "unbalanced parentheses")
	}
	inner := raw[1:end]
	if len(inner) > 1 && (inner[0] == "s" || inner[0] == "u") && !token.IsOperator(inner[1]) {
		cond.signed = inner[0] == "s"
		inner = inner[1:]
	}
	e := expr.Parse(inner, c.Env)
	if len(e) == 0 {
		return cond, nil, newError(ErrInvalidExpression, "empty condition")
	}
	ors, ands := e.SplitTop("||"), e.SplitTop("&&")
	switch {
	case len(ors) > 1 && len(ands) > 1:
		return cond, nil, newError(ErrInvalidExpression, "%s: cannot mix || and &&", e)
	case len(ors) > 1:
		cond.parts, cond.or = ors, true
	default:
		cond.parts = ands
	}
	for i, p := range cond.parts {
		if len(p) == 0 {
			return cond, nil, newError(ErrInvalidExpression, "%s", e)
		}
		cond.parts[i] = p.Unwrap()
	}
	return cond, raw[end+1:], nil
}

// jumpIf emits code jumping to target when e holds, or when it does not
// hold if negate is set.
func (c *Compiler) jumpIf(e expr.Expression, signed, negate bool, target asm.Label) error {
	e = e.Unwrap()
	for e.IsOperator(0, "!") {
		negate = !negate
		e = e[1:].Unwrap()
	}
	if len(e) == 0 {
		return newError(ErrInvalidExpression, "empty condition")
	}
	if len(e) == 1 {
		return c.jumpIfBit(e[0], negate, target)
	}

	rel := -1
	for _, op := range relations {
		if i := e.IndexTop(op); i >= 0 {
			if rel >= 0 {
				return newError(ErrInvalidExpression, "%s", e)
			}
			rel = i
		}
	}
	if rel <= 0 || rel == len(e)-1 {
		return newError(ErrInvalidExpression, "%s", e)
	}
	lhs, err := single(e[:rel])
	if err != nil {
		return err
	}
	rhs, err := single(e[rel+1:])
	if err != nil {
		return err
	}
	op := e[rel].Text
	if negate {
		op = inverse[op]
	}
	return c.compare(lhs, op, rhs, signed, target)
}

// jumpIfBit handles single-token conditions: flags, register bits, io bits
// and a bare register tested against zero.
func (c *Compiler) jumpIfBit(t token.Token, negate bool, target asm.Label) error {
	switch {
	case t.Kind == token.Flag:
		f, _ := token.LookupFlag(t.Text)
		branch := f.BranchSet
		if negate {
			branch = f.BranchClear
		}
		c.out.Append(branch, string(target))
	case t.Kind == token.RegisterBit:
		skip := "sbrc"
		if negate {
			skip = "sbrs"
		}
		c.out.Append(skip, t.Text, t.Index)
		c.out.Append("rjmp", string(target))
	case t.Kind == token.ArrayIO && t.Bit != "":
		skip := "sbic"
		if negate {
			skip = "sbis"
		}
		c.out.Append(skip, t.Index, t.Bit)
		c.out.Append("rjmp", string(target))
	case t.Kind == token.Register:
		branch := "brne"
		if negate {
			branch = "breq"
		}
		c.out.Append("tst", t.Text)
		c.out.Append(branch, string(target))
	default:
		return newError(ErrInvalidExpression, "%s", t)
	}
	return nil
}

// atMax reports whether k is the largest value a register compare can
// hold, so that k+1 cannot be encoded
func atMax(reg, k token.Token, signed bool) bool {
	if reg.Kind != token.Register || k.Kind != token.Number {
		return false
	}
	if signed {
		return k.Value >= 127
	}
	return k.Value >= 255
}

// plusOne renders k+1 for a constant operand
func plusOne(k token.Token) token.Token {
	if k.Kind == token.Number {
		return token.Num(k.Value + 1)
	}
	return token.New(token.ConstExpr, token.Parenthesize(k.Text)+"+1")
}

// compare emits the compare instructions and the conditional branch
func (c *Compiler) compare(lhs token.Token, op string, rhs token.Token, signed bool, target asm.Label) error {
	if lhs.IsConst() && !rhs.IsConst() {
		lhs, rhs, op = rhs, lhs, mirror[op]
	}
	switch op {
	case ">":
		if rhs.IsConst() {
			if atMax(lhs, rhs, signed) {
				return nil // never true
			}
			op, rhs = ">=", plusOne(rhs)
		} else {
			lhs, rhs, op = rhs, lhs, "<"
		}
	case "<=":
		if rhs.IsConst() {
			if atMax(lhs, rhs, signed) {
				c.out.Append("rjmp", string(target))
				return nil
			}
			op, rhs = "<", plusOne(rhs)
		} else {
			lhs, rhs, op = rhs, lhs, ">="
		}
	}

	zero := false
	switch {
	case lhs.Kind == token.Register && rhs.IsZero():
		c.out.Append("tst", lhs.Text)
		zero = true
	case lhs.Kind == token.Register && rhs.Kind == token.Register:
		c.out.Append("cp", lhs.Text, rhs.Text)
	case lhs.Kind == token.Register && rhs.IsConst():
		c.out.Append("cpi", lhs.Text, rhs.Text)
	case (lhs.Kind == token.Pair || lhs.Kind == token.Group) && rhs.IsRegisterLike():
		if lhs.Size() != rhs.Size() {
			return newError(ErrSizeMismatch, "%s %s %s", lhs, op, rhs)
		}
		from := lsFirst(rhs)
		for i, r := range lsFirst(lhs) {
			mnemonic := "cpc"
			if i == 0 {
				mnemonic = "cp"
			}
			c.out.Append(mnemonic, r, from[i])
		}
	case lhs.Kind == token.Pair || lhs.Kind == token.Group:
		return newError(ErrUnsupportedOperation, "%s %s %s", lhs, op, rhs)
	default:
		return newError(ErrUnexpectedExpression, "%s %s %s", lhs, op, rhs)
	}

	var branch string
	switch op {
	case "==":
		branch = "breq"
	case "!=":
		branch = "brne"
	case "<":
		switch {
		case zero:
			branch = "brmi"
		case signed:
			branch = "brlt"
		default:
			branch = "brlo"
		}
	case ">=":
		switch {
		case zero:
			branch = "brpl"
		case signed:
			branch = "brge"
		default:
			branch = "brsh"
		}
	}
	c.out.Append(branch, string(target))
	return nil
}

// action is the compiled form of what follows an if header
type action struct {
	target asm.Label   // jump actions
	code   *asm.Output // a single instruction otherwise
}

func (c *Compiler) compileAction(raw []string) (action, error) {
	if len(raw) == 0 {
		return action{}, newError(ErrInvalidExpression, "missing action")
	}
	switch {
	case len(raw) == 2 && (raw[0] == "goto" || raw[0] == "rjmp" || raw[0] == "jmp"):
		return action{target: asm.Label(raw[1])}, nil
	case len(raw) == 1 && (raw[0] == "break" || raw[0] == "continue"):
		target, err := c.loopTarget(raw[0])
		return action{target: target}, err
	}
	code, err := c.scratch(func() error { return c.compileStatement(raw) })
	if err != nil {
		return action{}, err
	}
	if code.Len() != 1 || len(code.Instructions()) != 1 {
		return action{}, newError(ErrInvalidExpression, "too big: %s", expr.JoinRaw(raw))
	}
	return action{code: code}, nil
}

// compileIf compiles "if [s|u] (cond) action"
func (c *Compiler) compileIf(raw []string) error {
	cond, rest, err := c.parseHeader(raw)
	if err != nil {
		return err
	}
	act, err := c.compileAction(rest)
	if err != nil {
		return err
	}
	if act.code == nil {
		return c.jumpTo(cond, act.target)
	}

	if len(cond.parts) == 1 && c.skipIdiom(cond.parts[0]) {
		c.out.AppendOutput(act.code)
		return nil
	}
	end := c.newLabel("skip")
	if cond.or && len(cond.parts) > 1 {
		run := c.newLabel("then")
		last := len(cond.parts) - 1
		for _, p := range cond.parts[:last] {
			if err := c.jumpIf(p, cond.signed, false, run); err != nil {
				return err
			}
		}
		if err := c.jumpIf(cond.parts[last], cond.signed, true, end); err != nil {
			return err
		}
		c.out.AppendLabel(run)
	} else {
		for _, p := range cond.parts {
			if err := c.jumpIf(p, cond.signed, true, end); err != nil {
				return err
			}
		}
	}
	c.out.AppendOutput(act.code)
	c.out.AppendLabel(end)
	return nil
}

// jumpTo emits a jump to target when cond holds
func (c *Compiler) jumpTo(cond condition, target asm.Label) error {
	if cond.or || len(cond.parts) == 1 {
		for _, p := range cond.parts {
			if err := c.jumpIf(p, cond.signed, false, target); err != nil {
				return err
			}
		}
		return nil
	}
	end := c.newLabel("and")
	last := len(cond.parts) - 1
	for _, p := range cond.parts[:last] {
		if err := c.jumpIf(p, cond.signed, true, end); err != nil {
			return err
		}
	}
	if err := c.jumpIf(cond.parts[last], cond.signed, false, target); err != nil {
		return err
	}
	c.out.AppendLabel(end)
	return nil
}

// jumpUnless emits a jump to target when cond does not hold
func (c *Compiler) jumpUnless(cond condition, target asm.Label) error {
	if !cond.or || len(cond.parts) == 1 {
		for _, p := range cond.parts {
			if err := c.jumpIf(p, cond.signed, true, target); err != nil {
				return err
			}
		}
		return nil
	}
	body := c.newLabel("then")
	last := len(cond.parts) - 1
	for _, p := range cond.parts[:last] {
		if err := c.jumpIf(p, cond.signed, false, body); err != nil {
			return err
		}
	}
	if err := c.jumpIf(cond.parts[last], cond.signed, true, target); err != nil {
		return err
	}
	c.out.AppendLabel(body)
	return nil
}

// skipIdiom emits a skip instruction making the next instruction run only
// when e holds. It reports false when e has no skip form.
func (c *Compiler) skipIdiom(e expr.Expression) bool {
	e = e.Unwrap()
	negate := false
	for e.IsOperator(0, "!") {
		negate = !negate
		e = e[1:].Unwrap()
	}
	switch {
	case len(e) == 1 && e[0].Kind == token.RegisterBit:
		skip := "sbrc"
		if negate {
			skip = "sbrs"
		}
		c.out.Append(skip, e[0].Text, e[0].Index)
		return true
	case len(e) == 1 && e[0].Kind == token.ArrayIO && e[0].Bit != "":
		skip := "sbic"
		if negate {
			skip = "sbis"
		}
		c.out.Append(skip, e[0].Index, e[0].Bit)
		return true
	case len(e) == 3 && !negate && e[1].IsOperator("!=") &&
		e[0].Kind == token.Register && e[2].Kind == token.Register:
		c.out.Append("cpse", e[0].Text, e[2].Text)
		return true
	}
	return false
}

package parser

import (
	"strings"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/compiler"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/lexer"
	"github.com/raymyers/rasm/pkg/symbols"
	"github.com/raymyers/rasm/pkg/token"
)

type segment int

const (
	segCode segment = iota
	segData
	segEEPROM
)

// segmentOf recognizes the segment switching directives of both dialects
func segmentOf(raw []string) (segment, bool) {
	switch strings.ToLower(raw[0]) {
	case ".cseg", ".text":
		return segCode, true
	case ".dseg", ".data", ".bss":
		return segData, true
	case ".eseg":
		return segEEPROM, true
	case ".section":
		if len(raw) < 2 {
			return 0, false
		}
		name := strings.ToLower(raw[1])
		switch {
		case strings.HasPrefix(name, ".text"), strings.HasPrefix(name, ".progmem"):
			return segCode, true
		case strings.HasPrefix(name, ".data"), strings.HasPrefix(name, ".bss"), strings.HasPrefix(name, ".noinit"):
			return segData, true
		case strings.HasPrefix(name, ".eeprom"):
			return segEEPROM, true
		}
	}
	return 0, false
}

// discover runs over the whole unit before compiling so that labels,
// procedures and constants may be used before their definition.
func (u *unit) discover() error {
	seg := segCode
	var pending []string
	flush := func(typ token.VarType) {
		for _, name := range pending {
			u.env.DefineVariable(name, typ)
		}
		pending = pending[:0]
	}

	for i, line := range u.lines {
		u.line = i + 1
		raw, _ := lexer.Split(line)
		label, rest := splitLabel(raw)
		if label != "" {
			pending = append(pending, label)
		}
		if len(rest) == 0 {
			continue
		}
		if s, ok := segmentOf(rest); ok {
			flush(u.labelType(seg, nil))
			seg = s
			continue
		}
		flush(u.labelType(seg, rest))

		var err error
		switch strings.ToLower(rest[0]) {
		case ".proc":
			if len(rest) != 2 || !token.IsIdentifier(rest[1]) {
				return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, "%s", expr.JoinRaw(rest))
			}
			u.env.EnterProc(rest[1])
			u.env.DefineVariable(rest[1], token.TypePrgPtr)
		case ".endproc":
			u.env.LeaveProc()
		case ".args":
			proc := u.env.Current()
			if proc == nil {
				return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, ".args outside a procedure")
			}
			err = u.bindArgs(proc, rest[1:], "(")
		case ".extern":
			err = u.declareExtern(rest[1:])
		case ".equ", ".set":
			var name string
			var value []string
			if name, value, err = u.assignment(rest); err == nil {
				u.env.DefineConstant(name, value)
			}
		case "#define":
			if len(rest) >= 3 && token.IsIdentifier(rest[1]) {
				u.env.DefineConstant(rest[1], rest[2:])
			}
		}
		if err != nil {
			return err
		}
	}
	flush(u.labelType(seg, nil))
	u.env.LeaveProc()
	return nil
}

// labelType derives the type of a label from its segment and the data
// directive following it.
func (u *unit) labelType(seg segment, raw []string) token.VarType {
	switch seg {
	case segCode:
		return token.TypePrgPtr
	case segEEPROM:
		return token.TypePtr
	}
	switch u.dataSize(raw) {
	case 1:
		return token.TypeByte
	case 2:
		return token.TypeWord
	case 4:
		return token.TypeDWord
	}
	return token.TypePtr
}

// dataSize returns the number of bytes a data directive reserves, or 0
func (u *unit) dataSize(raw []string) int {
	if len(raw) < 2 {
		return 0
	}
	args := splitArgs(raw[1:])
	switch strings.ToLower(raw[0]) {
	case ".byte":
		if u.dialect == asm.Native {
			return u.count(args[0])
		}
		return len(args)
	case ".skip", ".space", ".zero":
		return u.count(args[0])
	case ".db":
		return len(args)
	case ".word", ".short", ".2byte", ".dw":
		return 2 * len(args)
	case ".long", ".4byte", ".dd":
		return 4 * len(args)
	}
	return 0
}

func (u *unit) count(raw []string) int {
	v, ok := expr.Eval(expr.Parse(raw, u.env))
	if !ok || v < 0 {
		return 0
	}
	return int(v)
}

// bindArgs parses "name(reg), ..." (sep "(") or "name: reg, ..." (sep ":")
// argument lists into the procedure.
func (u *unit) bindArgs(proc *symbols.Procedure, raw []string, sep string) error {
	if len(raw) == 0 {
		return nil
	}
	for _, arg := range splitArgs(raw) {
		var binding []string
		switch {
		case sep == "(" && len(arg) >= 4 && arg[1] == "(" && arg[len(arg)-1] == ")":
			binding = arg[2 : len(arg)-1]
		case sep == ":" && len(arg) >= 3 && arg[1] == ":":
			binding = arg[2:]
		default:
			return compiler.Errorf(compiler.ErrWrongArgument, u.line, "%s", expr.JoinRaw(arg))
		}
		if !token.IsIdentifier(arg[0]) {
			return compiler.Errorf(compiler.ErrWrongArgument, u.line, "%s", expr.JoinRaw(arg))
		}
		if e := expr.Parse(binding, u.env); len(e) != 1 || !e[0].IsRegisterLike() {
			return compiler.Errorf(compiler.ErrWrongArgument, u.line, "%s: not a register", expr.JoinRaw(arg))
		}
		proc.SetArg(arg[0], binding)
	}
	return nil
}

// declareExtern handles ".extern name" and ".extern name(arg: reg, ...)"
func (u *unit) declareExtern(raw []string) error {
	if len(raw) == 0 || !token.IsIdentifier(raw[0]) {
		return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, ".extern %s", expr.JoinRaw(raw))
	}
	name := raw[0]
	u.env.DefineVariable(name, token.TypePrgPtr)
	if len(raw) == 1 {
		return nil
	}
	if raw[1] != "(" || raw[len(raw)-1] != ")" {
		return compiler.Errorf(compiler.ErrWrongCallSyntax, u.line, ".extern %s", expr.JoinRaw(raw))
	}
	proc := u.env.DefineProcedure(name)
	proc.External = true
	return u.bindArgs(proc, raw[2:len(raw)-1], ":")
}

// assignment splits ".equ NAME = value" or ".equ NAME, value"
func (u *unit) assignment(raw []string) (string, []string, error) {
	if len(raw) < 4 || !token.IsIdentifier(raw[1]) || (raw[2] != "=" && raw[2] != ",") {
		return "", nil, compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, "%s", expr.JoinRaw(raw))
	}
	return raw[1], raw[3:], nil
}

// splitArgs splits raw tokens on commas outside parentheses
func splitArgs(raw []string) [][]string {
	var parts [][]string
	depth, start := 0, 0
	for i, s := range raw {
		switch s {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, raw[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, raw[start:])
}

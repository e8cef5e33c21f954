package parser

import (
	"strings"

	"github.com/raymyers/rasm/pkg/asm"
	"github.com/raymyers/rasm/pkg/compiler"
	"github.com/raymyers/rasm/pkg/expr"
	"github.com/raymyers/rasm/pkg/lexer"
	"github.com/raymyers/rasm/pkg/token"
)

// directive compiles a directive line. Directives the compiler has no use
// for are copied to the output unchanged.
func (u *unit) directive(raw []string, line string, labeled bool, comment string) error {
	out := u.c.Output()
	indent := lexer.Indent(line)
	if indent == "" {
		indent = "\t"
	}
	emit := func(text string) {
		if comment != "" {
			text += "\t" + comment
		}
		out.AppendRaw(indent + text)
	}

	name := strings.ToLower(raw[0])
	switch name {
	case ".proc":
		if proc := u.env.Current(); proc != nil {
			return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line,
				".proc %s inside .proc %s", raw[1], proc.Name)
		}
		u.env.EnterProc(raw[1])
		u.procLine = u.line
		out.AppendLabel(asm.Label(raw[1]))
		if comment != "" {
			out.AddComment(comment)
		}
		return nil
	case ".endproc":
		if u.env.Current() == nil {
			return compiler.Errorf(compiler.ErrBracketNotFound, u.line, ".endproc without .proc")
		}
		if err := u.c.Finish(); err != nil {
			return err
		}
		u.env.LeaveProc()
		return nil
	case ".args":
		// bound during discovery
		return nil
	case ".use", ".def":
		if err := u.scope(raw); err != nil {
			return err
		}
		switch {
		case name == ".def" && u.dialect == asm.Native:
			emit(expr.JoinRaw(raw[:2]) + " = " + expr.JoinRaw(raw[3:]))
		case name == ".def":
			emit("; " + expr.JoinRaw(raw[:2]) + " = " + expr.JoinRaw(raw[3:]))
		}
		return nil
	case ".equ", ".set":
		n, value, err := u.assignment(raw)
		if err != nil {
			return err
		}
		u.env.DefineConstant(n, value)
		if name == ".set" {
			emit(u.dialect.Set(n, expr.JoinRaw(value)))
		} else {
			emit(u.dialect.Equ(n, expr.JoinRaw(value)))
		}
		return nil
	case ".extern":
		if u.dialect == asm.GNU {
			emit(".extern " + raw[1])
		}
		return nil
	}

	text := strings.TrimSpace(line)
	if labeled {
		text = strings.TrimSpace(text[strings.Index(text, ":")+1:])
	} else {
		indent = lexer.Indent(line)
	}
	out.AppendRaw(indent + text)
	return nil
}

// scope applies the directives that change name resolution: procedure
// boundaries and register aliases.
func (u *unit) scope(raw []string) error {
	switch strings.ToLower(raw[0]) {
	case ".proc":
		if len(raw) == 2 {
			u.env.EnterProc(raw[1])
		}
	case ".endproc":
		u.env.LeaveProc()
	case ".use":
		// .use r16 as tmp
		n := len(raw)
		if n < 4 || raw[n-2] != "as" || !token.IsIdentifier(raw[n-1]) {
			return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, "%s", expr.JoinRaw(raw))
		}
		return u.alias(raw[n-1], raw[1:n-2])
	case ".def":
		// .def tmp = r16
		if len(raw) < 4 || !token.IsIdentifier(raw[1]) || raw[2] != "=" {
			return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, "%s", expr.JoinRaw(raw))
		}
		return u.alias(raw[1], raw[3:])
	}
	return nil
}

func (u *unit) alias(name string, binding []string) error {
	if e := expr.Parse(binding, u.env); len(e) != 1 || !e[0].IsRegisterLike() {
		return compiler.Errorf(compiler.ErrUnexpectedExpression, u.line, "%s is not a register", expr.JoinRaw(binding))
	}
	u.env.DefineAlias(name, binding)
	return nil
}

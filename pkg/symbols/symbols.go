// Package symbols holds the names a compilation unit declares: typed
// variables and labels, constants, register aliases and procedures with
// their register arguments.
package symbols

import (
	"github.com/raymyers/rasm/pkg/token"
)

// Variable is a named memory location or code label
type Variable struct {
	Name string
	Type token.VarType
}

// Constant is a named value, kept as the raw tokens of its definition
type Constant struct {
	Name  string
	Value []string
}

// Arg is a procedure argument bound to a register, pair or register group
type Arg struct {
	Name string
	Raw  []string
}

// Procedure is a named code block with register arguments and its own
// constants and aliases.
type Procedure struct {
	Name      string
	Args      []Arg
	Constants map[string]Constant
	Aliases   map[string][]string
	External  bool
}

func newProcedure(name string) *Procedure {
	return &Procedure{
		Name:      name,
		Constants: make(map[string]Constant),
		Aliases:   make(map[string][]string),
	}
}

// Arg returns the argument with the given name
func (p *Procedure) Arg(name string) (Arg, bool) {
	for _, a := range p.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// SetArg binds an argument, replacing an earlier binding of the same name
func (p *Procedure) SetArg(name string, raw []string) {
	for i, a := range p.Args {
		if a.Name == name {
			p.Args[i].Raw = raw
			return
		}
	}
	p.Args = append(p.Args, Arg{Name: name, Raw: raw})
}

// Env is the symbol environment of one compilation unit. Lookups try the
// current procedure first, then the globals.
type Env struct {
	variables  map[string]Variable
	constants  map[string]Constant
	aliases    map[string][]string
	procedures map[string]*Procedure
	current    *Procedure
}

// New creates an empty environment
func New() *Env {
	return &Env{
		variables:  make(map[string]Variable),
		constants:  make(map[string]Constant),
		aliases:    make(map[string][]string),
		procedures: make(map[string]*Procedure),
	}
}

// DefineProcedure returns the procedure with the given name, creating it
// if needed.
func (e *Env) DefineProcedure(name string) *Procedure {
	if p, ok := e.procedures[name]; ok {
		return p
	}
	p := newProcedure(name)
	e.procedures[name] = p
	return p
}

// EnterProc makes the named procedure the current scope
func (e *Env) EnterProc(name string) *Procedure {
	e.current = e.DefineProcedure(name)
	return e.current
}

// LeaveProc returns to the global scope
func (e *Env) LeaveProc() {
	e.current = nil
}

// Current returns the procedure being compiled, or nil
func (e *Env) Current() *Procedure {
	return e.current
}

// DefineVariable records a variable or label
func (e *Env) DefineVariable(name string, typ token.VarType) {
	e.variables[name] = Variable{Name: name, Type: typ}
}

// DefineConstant records a constant in the current scope
func (e *Env) DefineConstant(name string, raw []string) {
	c := Constant{Name: name, Value: raw}
	if e.current != nil {
		e.current.Constants[name] = c
		return
	}
	e.constants[name] = c
}

// DefineAlias binds a name to register text in the current scope
func (e *Env) DefineAlias(name string, raw []string) {
	if e.current != nil {
		e.current.Aliases[name] = raw
		return
	}
	e.aliases[name] = raw
}

// ResolveAlias implements expr.Resolver. Procedure arguments act as
// aliases inside their procedure.
func (e *Env) ResolveAlias(name string) ([]string, bool) {
	if p := e.current; p != nil {
		if a, ok := p.Arg(name); ok {
			return a.Raw, true
		}
		if raw, ok := p.Aliases[name]; ok {
			return raw, true
		}
	}
	raw, ok := e.aliases[name]
	return raw, ok
}

// ResolveConstant implements expr.Resolver
func (e *Env) ResolveConstant(name string) ([]string, bool) {
	if p := e.current; p != nil {
		if c, ok := p.Constants[name]; ok {
			return c.Value, true
		}
	}
	c, ok := e.constants[name]
	return c.Value, ok
}

// ResolveVariable implements expr.Resolver
func (e *Env) ResolveVariable(name string) (token.VarType, bool) {
	v, ok := e.variables[name]
	return v.Type, ok
}

// ResolveProcedure looks up a procedure by name
func (e *Env) ResolveProcedure(name string) (*Procedure, bool) {
	p, ok := e.procedures[name]
	return p, ok
}

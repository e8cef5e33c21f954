package compiler

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the compiler wraps one of these.
var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnexpectedExpression = errors.New("unexpected expression")
	ErrSizeMismatch         = errors.New("sizes mismatch")
	ErrUndefinedProcedure   = errors.New("undefined procedure")
	ErrWrongArgument        = errors.New("wrong argument")
	ErrInvalidExpression    = errors.New("invalid expression")
	ErrWrongCallSyntax      = errors.New("wrong call syntax")
	ErrBracketNotFound      = errors.New("open bracket not found")
)

// Error is a compilation error on one source line
type Error struct {
	Err    error  // one of the Err* kinds
	Detail string // offending token or extra context
	Line   int    // 1-based source line, 0 when unknown
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, format string, args ...any) *Error {
	return &Error{Err: kind, Detail: fmt.Sprintf(format, args...)}
}

// Errorf returns an error of the given kind on a source line
func Errorf(kind error, line int, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.Line = line
	return e
}

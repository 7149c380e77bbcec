package core

import (
	"errors"
	"strings"
)

// Error classes. Match them with errors.Is.
var (
	ErrConfig       = errors.New("configuration error")
	ErrNotFound     = errors.New("not found")
	ErrConnection   = errors.New("connection error")
	ErrStatement    = errors.New("statement error")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnsupported  = errors.New("unsupported")
	ErrClosed       = errors.New("closed")
)

// Error is the structured error returned across package boundaries. It keeps
// the dialect and the originating driver error so callers can tell a bad
// statement from an unreachable server.
type Error struct {
	// Code is one of the Err* sentinels above.
	Code    error
	Dialect Dialect
	// Op names the failed operation, e.g. "query", "begin", "connect".
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Dialect != Unknown {
		b.WriteString(string(e.Dialect))
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := e.Msg
	if msg == "" && e.Err == nil && e.Code != nil {
		msg = e.Code.Error()
	}
	b.WriteString(msg)
	if e.Err != nil {
		if msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the error class.
func (e *Error) Is(target error) bool {
	return e.Code != nil && e.Code == target
}

// NewError returns an *Error of the given class.
func NewError(code error, d Dialect, op, msg string, cause error) *Error {
	return &Error{Code: code, Dialect: d, Op: op, Msg: msg, Err: cause}
}

// StatementError annotates a driver error with dialect context.
func StatementError(d Dialect, op string, cause error) error {
	if cause == nil {
		return nil
	}
	var e *Error
	if errors.As(cause, &e) {
		return cause
	}
	return &Error{Code: ErrStatement, Dialect: d, Op: op, Err: cause}
}

// ConnectionError annotates a checkout or connect failure.
func ConnectionError(d Dialect, op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Code: ErrConnection, Dialect: d, Op: op, Err: cause}
}

// InvalidInput reports self-contradictory builder input.
func InvalidInput(d Dialect, op, msg string) error {
	return &Error{Code: ErrInvalidInput, Dialect: d, Op: op, Msg: msg}
}

// Package wfsterr holds the error taxonomy shared by every package in this
// module. Errors are created with New or one of the Wrap* helpers and are
// compatible with errors.Is/errors.As: each carries zero or more causes, and
// Is reports true for any of its causes as well as for itself.
package wfsterr

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is against these to classify a returned error
// without needing to know which function produced it.
var (
	ErrEmptySymbol        = errors.New("symbol table: empty symbol")
	ErrStateOutOfBounds   = errors.New("graph: state index out of bounds")
	ErrStateNotFinal      = errors.New("graph: state is not final")
	ErrAlphabetMismatch   = errors.New("operator: alphabets not harmonized")
	ErrInfiniteAmbiguity  = errors.New("lookup: infinitely ambiguous path")
	ErrTransducerIsCyclic = errors.New("path extraction: transducer is cyclic")
	ErrNotValidAtt        = errors.New("parse: not valid AT&T format")
	ErrNotValidProlog     = errors.New("parse: not valid Prolog format")
	ErrEndOfStream        = errors.New("stream: end of stream")
	ErrRuleConflict       = errors.New("rule compiler: conflicting rules")
	ErrSymbolNotInAlphabet = errors.New("rule compiler: symbol not declared in alphabet")
	ErrCancelled          = errors.New("operation cancelled")
	ErrUnsupportedFormat  = errors.New("stream: unsupported format")
)

// Error is a message wrapping zero or more cause errors. It is the base type
// used by every error value returned from this module's packages, aside from
// the bare sentinels above which are returned directly when no extra context
// applies.
type Error struct {
	msg   string
	cause []error
}

// New creates an Error with the given message and optional causes. A call to
// errors.Is(err, c) for any c in causes will return true for the resulting
// Error.
func New(msg string, causes ...error) Error {
	e := Error{msg: msg}
	if len(causes) > 0 {
		e.cause = make([]error, len(causes))
		copy(e.cause, causes)
	}
	return e
}

// Newf is New with fmt.Sprintf-style formatting of msg.
func Newf(causes []error, format string, a ...interface{}) Error {
	return New(fmt.Sprintf(format, a...), causes...)
}

func (e Error) Error() string {
	if e.msg == "" && len(e.cause) > 0 {
		return e.cause[0].Error()
	}
	if len(e.cause) > 0 {
		return e.msg + ": " + e.cause[0].Error()
	}
	return e.msg
}

// Unwrap gives the causes of e, for use with errors.Is/errors.As.
func (e Error) Unwrap() []error {
	if len(e.cause) > 0 {
		return e.cause
	}
	return nil
}

// Is reports whether target is e itself or one of e's causes.
func (e Error) Is(target error) bool {
	if errTarget, ok := target.(Error); ok {
		if e.msg != errTarget.msg || len(e.cause) != len(errTarget.cause) {
			return false
		}
		for i := range e.cause {
			if e.cause[i] != errTarget.cause[i] {
				return false
			}
		}
		return true
	}
	for _, c := range e.cause {
		if c == target {
			return true
		}
		if errors.Is(c, target) {
			return true
		}
	}
	return false
}

// StateOutOfBounds builds the standard "no such state" error for state s.
func StateOutOfBounds(s int) error {
	return New(fmt.Sprintf("no such state: %d", s), ErrStateOutOfBounds)
}

// SyntaxError is returned by text-format parsers (AT&T, Prolog, two-level
// grammar text) and carries the line/column at which the problem was found.
type SyntaxError struct {
	Message string
	Line    int
	Col     int
	Source  string // the offending line or token text, for display
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Col, e.Message)
}

// FullMessage gives a multi-line rendering of the error including the
// offending source text, suitable for printing directly to a terminal.
func (e *SyntaxError) FullMessage() string {
	if e.Source == "" {
		return e.Error()
	}
	return fmt.Sprintf("%s\n\t%s", e.Error(), e.Source)
}

// NewSyntaxError creates a SyntaxError at the given position.
func NewSyntaxError(msg string, line, col int, source string) *SyntaxError {
	return &SyntaxError{Message: msg, Line: line, Col: col, Source: source}
}

// Cancelled wraps err (if non-nil) together with ErrCancelled so that callers
// can test for cancellation with errors.Is regardless of what triggered it.
func Cancelled(err error) error {
	if err == nil {
		return ErrCancelled
	}
	return New(err.Error(), ErrCancelled)
}

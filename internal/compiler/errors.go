package compiler

import (
	"errors"
	"fmt"
)

// Compile error codes (E200-E299)
const (
	ErrCodeMalformedChainShape  = "E201" // a node the grammar requires is missing
	ErrCodeMalformedListLiteral = "E202" // unpaired [ or ] in a value list
	ErrCodeUnsupportedConstruct = "E203" // node kind not handled in this position
)

// Sentinel errors, one per code, for errors.Is.
var (
	ErrMalformedChainShape  = errors.New("MALFORMED_CHAIN_SHAPE")
	ErrMalformedListLiteral = errors.New("MALFORMED_LIST_LITERAL")
	ErrUnsupportedConstruct = errors.New("UNSUPPORTED_CONSTRUCT")
)

// CompileError aborts a single compile call. Source is the text of the
// offending sub-expression.
type CompileError struct {
	Code    string
	Message string
	Source  string
	Pos     int
	Err     error
}

func (e *CompileError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s at position %d: %s: %q", e.Code, e.Pos, e.Message, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

func malformedChain(source string, pos int, msgFmt string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeMalformedChainShape,
		Message: fmt.Sprintf(msgFmt, args...),
		Source:  source,
		Pos:     pos,
		Err:     ErrMalformedChainShape,
	}
}

func malformedList(source string, pos int, msgFmt string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeMalformedListLiteral,
		Message: fmt.Sprintf(msgFmt, args...),
		Source:  source,
		Pos:     pos,
		Err:     ErrMalformedListLiteral,
	}
}

func unsupported(source string, pos int, msgFmt string, args ...any) *CompileError {
	return &CompileError{
		Code:    ErrCodeUnsupportedConstruct,
		Message: fmt.Sprintf(msgFmt, args...),
		Source:  source,
		Pos:     pos,
		Err:     ErrUnsupportedConstruct,
	}
}

// IsClientError reports whether err means the query text was not
// well-formed, as opposed to an internal failure.
// Uses errors.As to handle wrapped errors.
func IsClientError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// ErrorCode returns the compile error code carried by err, or "".
func ErrorCode(err error) string {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

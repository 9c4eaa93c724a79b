// Package errors provides the coded errors shared by the flowbuilder
// packages.
//
// An editing operation that cannot be applied returns an [*Error] whose
// [Code] says what went wrong. The editor shows [UserMessage] as a
// warning, the HTTP server maps [Code.Class] to a status, and callers
// branch on codes with [Is]. No code is fatal: the graph is left as it
// was and editing continues.
//
//	err := errors.New(errors.ErrCodeInvalidNode, "node %q has no type", id)
//	err = errors.Wrap(errors.ErrCodeLayoutFailed, cause, "auto-layout of %d nodes", n)
//
// Codes nest. A drop refused because of a bad type name carries both
// INVALID_DROP and the INVALID_INPUT of the name check, and [Is] finds
// either.
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// Malformed input: ids, names, payloads.
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidNode  Code = "INVALID_NODE"
	ErrCodeInvalidEdge  Code = "INVALID_EDGE"
	ErrCodeInvalidDrop  Code = "INVALID_DROP"
	ErrCodeInvalidGraph Code = "INVALID_GRAPH"
	ErrCodeDuplicateID  Code = "DUPLICATE_ID"

	ErrCodeNotFound Code = "NOT_FOUND"

	// Connections the validator refuses.
	ErrCodeIncompatiblePorts Code = "INCOMPATIBLE_PORTS"
	ErrCodeLimitExceeded     Code = "LIMIT_EXCEEDED"

	// Layout and arrangement.
	ErrCodeLayoutFailed Code = "LAYOUT_FAILED"
	ErrCodeTooFewNodes  Code = "TOO_FEW_NODES"

	ErrCodeStorage Code = "STORAGE_ERROR"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Class groups codes by who has to act on them.
type Class int

const (
	ClassInternal    Class = iota // a bug or an unclassified failure
	ClassInput                    // the request itself is malformed
	ClassNotFound                 // it names something that does not exist
	ClassRejected                 // well formed, but the graph cannot accept it
	ClassStorage                  // a backend failed
	ClassUnsupported              // not available in this build or setup
)

var classes = map[Code]Class{
	ErrCodeInvalidInput:      ClassInput,
	ErrCodeInvalidNode:       ClassInput,
	ErrCodeInvalidEdge:       ClassInput,
	ErrCodeInvalidDrop:       ClassInput,
	ErrCodeInvalidGraph:      ClassInput,
	ErrCodeDuplicateID:       ClassInput,
	ErrCodeNotFound:          ClassNotFound,
	ErrCodeIncompatiblePorts: ClassRejected,
	ErrCodeLimitExceeded:     ClassRejected,
	ErrCodeLayoutFailed:      ClassRejected,
	ErrCodeTooFewNodes:       ClassRejected,
	ErrCodeStorage:           ClassStorage,
	ErrCodeUnsupported:       ClassUnsupported,
}

// Class reports the class of c. Unknown and empty codes are internal.
func (c Code) Class() Class {
	return classes[c]
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string // shown to users
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error around cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message of the outermost *Error, without the
// code prefix, or err's text for other errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

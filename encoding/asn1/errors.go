package asn1

import (
	"errors"
	"fmt"
)

// ErrorKind classifies decoding failures.
type ErrorKind int

const (
	// MalformedTag indicates invalid identifier octets.
	MalformedTag ErrorKind = iota + 1

	// MalformedLength indicates invalid length octets, or a length that does
	// not fit the remaining input.
	MalformedLength

	// MalformedContent indicates content octets that are invalid for the
	// type named by the tag.
	MalformedContent
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case MalformedTag:
		return "malformed tag"
	case MalformedLength:
		return "malformed length"
	case MalformedContent:
		return "malformed content"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Common errors
var (
	ErrEarlyEOF          = &DecodeError{Kind: MalformedLength, Message: "early EOF"}
	ErrExpectConstructed = &DecodeError{Kind: MalformedTag, Message: "constructed value expected"}
	ErrExpectPrimitive   = &DecodeError{Kind: MalformedTag, Message: "primitive value expected"}
	ErrUnsupportedLength = &DecodeError{Kind: MalformedLength, Message: "length method not supported"}
	ErrTrailingData      = &DecodeError{Kind: MalformedLength, Message: "trailing data after value"}
	ErrTooDeep           = &DecodeError{Kind: MalformedContent, Message: "nesting exceeds maximum depth"}

	// ErrExhaustedParser is returned when a sequence parser is read again
	// after it has reported the end of the sequence.
	ErrExhaustedParser = errors.New("asn1: read past end of sequence")
)

// DecodeError indicates that the input is not a valid encoding.
type DecodeError struct {
	Kind    ErrorKind
	Message string
	Detail  error
}

// Error returns error message.
func (e *DecodeError) Error() string {
	msg := "asn1: " + e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e *DecodeError) Unwrap() error {
	return e.Detail
}

func malformed(kind ErrorKind, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// SchemaViolationError indicates that a structure has missing, extra or
// out-of-order fields.
type SchemaViolationError struct {
	Structure string
	Field     string
	Detail    error
}

// Error returns error message.
func (e *SchemaViolationError) Error() string {
	msg := "asn1: schema violation"
	if e.Structure != "" {
		msg += " in " + e.Structure
	}
	if e.Field != "" {
		msg += ": field " + e.Field
	}
	if e.Detail != nil {
		msg += ": " + e.Detail.Error()
	}
	return msg
}

// Unwrap returns the internal error.
func (e *SchemaViolationError) Unwrap() error {
	return e.Detail
}

// TypeMismatchError is returned when a value cannot be converted to the
// requested type. Got names the runtime variant of the input.
type TypeMismatchError struct {
	Want string
	Got  string
}

// Error returns error message.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("asn1: cannot convert %s to %s", e.Got, e.Want)
}

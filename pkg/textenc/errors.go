package textenc

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind categorizes an Error.
type Kind string

const (
	KindEmptyInput          Kind = "empty_input"
	KindAmbiguousEncoding   Kind = "ambiguous_encoding"
	KindInvalidByteSequence Kind = "invalid_byte_sequence"
	KindSinkWriteFailure    Kind = "sink_write_failure"
	KindUnsupported         Kind = "unsupported_encoding"
)

// Sentinels for errors.Is. Any *Error with the same Kind matches.
var (
	ErrEmptyInput          = &Error{Kind: KindEmptyInput, Offset: -1}
	ErrAmbiguousEncoding   = &Error{Kind: KindAmbiguousEncoding, Offset: -1}
	ErrInvalidByteSequence = &Error{Kind: KindInvalidByteSequence, Offset: -1}
	ErrSinkWrite           = &Error{Kind: KindSinkWriteFailure, Offset: -1}
	ErrUnsupportedEncoding = &Error{Kind: KindUnsupported, Offset: -1}
)

// Error is the error type returned by the codec and detector.
type Error struct {
	Cause  error
	Kind   Kind
	Detail string
	// Offset is the source byte offset the error refers to, or -1.
	Offset int64
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Offset >= 0 {
		b.WriteString(" at offset ")
		b.WriteString(strconv.FormatInt(e.Offset, 10))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func EmptyInput() *Error {
	return &Error{Kind: KindEmptyInput, Offset: -1, Detail: "input is empty"}
}

func AmbiguousEncoding(detail string) *Error {
	return &Error{Kind: KindAmbiguousEncoding, Offset: -1, Detail: detail}
}

// InvalidByteSequence reports an unrecognized UTF-8 leading byte b found at offset.
func InvalidByteSequence(b byte, offset int64) *Error {
	return &Error{
		Kind:   KindInvalidByteSequence,
		Offset: offset,
		Detail: fmt.Sprintf("invalid UTF-8 leading byte 0x%02X", b),
	}
}

func SinkWriteFailure(cause error) *Error {
	return &Error{Kind: KindSinkWriteFailure, Offset: -1, Detail: "output rejected write", Cause: cause}
}

func Unsupported(detail string) *Error {
	return &Error{Kind: KindUnsupported, Offset: -1, Detail: detail}
}

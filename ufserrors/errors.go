// Package ufserrors defines the closed set of error kinds the filesystem
// engine can report, and a DriverError-style wrapper around them.
package ufserrors

import "fmt"

// ErrorKind is one of the non-overlapping failure categories the engine's
// six operations can report. Zero is reserved for "no error".
type ErrorKind int

const (
	// InvalidInode covers an inode index out of range, an unset allocation
	// bit, or a record whose type is neither directory nor regular file.
	InvalidInode ErrorKind = iota + 1
	// InvalidType covers a requested type that isn't allowed for the
	// operation at hand, e.g. writing to a directory.
	InvalidType
	// InvalidSize covers a negative size, or one past the per-file cap.
	InvalidSize
	// InvalidName covers an empty name or one too long to fit a dirent.
	InvalidName
	// NotFound covers a lookup/unlink target that isn't present.
	NotFound
	// NoSpace covers exhaustion of the relevant bitmap.
	NoSpace
	// DirectoryNotEmpty covers unlinking a directory with real entries.
	DirectoryNotEmpty
	// UnlinkNotAllowed covers an attempt to unlink "." or "..".
	UnlinkNotAllowed
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInode:
		return "invalid inode"
	case InvalidType:
		return "invalid type"
	case InvalidSize:
		return "invalid size"
	case InvalidName:
		return "invalid name"
	case NotFound:
		return "not found"
	case NoSpace:
		return "no space"
	case DirectoryNotEmpty:
		return "directory not empty"
	case UnlinkNotAllowed:
		return "unlink not allowed"
	default:
		return fmt.Sprintf("unknown error kind %d", int(k))
	}
}

// Error wraps an ErrorKind with an optional descriptive message and an
// optional wrapped cause, the same shape as the teacher's customDriverError.
type Error struct {
	kind    ErrorKind
	message string
	cause   error
}

// New creates an Error with the default message derived from kind.
func New(kind ErrorKind) *Error {
	return &Error{kind: kind, message: kind.String()}
}

// NewWithMessage creates an Error from a kind with a custom message.
func NewWithMessage(kind ErrorKind, message string) *Error {
	return &Error{kind: kind, message: fmt.Sprintf("%s: %s", kind, message)}
}

func (e *Error) Error() string {
	return e.message
}

// Kind returns the underlying ErrorKind.
func (e *Error) Kind() ErrorKind {
	return e.kind
}

// Code returns the negative integer the engine's operations return on
// failure: -int(kind).
func (e *Error) Code() int {
	return -int(e.kind)
}

// WithMessage returns a new Error of the same kind with an appended message.
func (e *Error) WithMessage(message string) *Error {
	return &Error{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e,
	}
}

// WrapError returns a new Error of the same kind wrapping err.
func (e *Error) WrapError(err error) *Error {
	return &Error{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, ufserrors.New(Kind)) match any Error of the same
// kind regardless of message/cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.kind == e.kind
}

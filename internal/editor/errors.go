package editor

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation did not complete.
type Kind int

const (
	KindUsage Kind = iota + 1
	KindNotFound
	KindFormat
	KindCorrupt
	KindDestinationMissing
	KindDirectoryMissing
	KindInvalidQuality
	KindInvalidProportion
	KindCompression
	KindResize
	KindConversion
)

// Exit codes are part of the command-line contract and must not change.
var exitCodes = map[Kind]int{
	KindUsage:              1,
	KindNotFound:           15,
	KindFormat:             17,
	KindDestinationMissing: 19,
	KindDirectoryMissing:   19,
	KindInvalidQuality:     21,
	KindInvalidProportion:  23,
	KindCompression:        25,
	KindResize:             27,
	KindCorrupt:            29,
	KindConversion:         31,
}

// String returns the name of the failure kind.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage error"
	case KindNotFound:
		return "not found"
	case KindFormat:
		return "format not allowed"
	case KindCorrupt:
		return "corrupt image"
	case KindDestinationMissing:
		return "destination missing"
	case KindDirectoryMissing:
		return "directory missing"
	case KindInvalidQuality:
		return "invalid quality"
	case KindInvalidProportion:
		return "invalid proportion"
	case KindCompression:
		return "compression failed"
	case KindResize:
		return "resize failed"
	case KindConversion:
		return "conversion failed"
	default:
		return "unknown error"
	}
}

// ExitCode returns the process exit code for the kind.
func (k Kind) ExitCode() int {
	if code, ok := exitCodes[k]; ok {
		return code
	}
	return 1
}

// Error is the typed failure returned by every gate check and operation.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUsage              = &Error{Kind: KindUsage}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrFormat             = &Error{Kind: KindFormat}
	ErrCorrupt            = &Error{Kind: KindCorrupt}
	ErrDestinationMissing = &Error{Kind: KindDestinationMissing}
	ErrDirectoryMissing   = &Error{Kind: KindDirectoryMissing}
	ErrInvalidQuality     = &Error{Kind: KindInvalidQuality}
	ErrInvalidProportion  = &Error{Kind: KindInvalidProportion}
	ErrCompression        = &Error{Kind: KindCompression}
	ErrResize             = &Error{Kind: KindResize}
	ErrConversion         = &Error{Kind: KindConversion}
)

func newError(kind Kind, path, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg, Err: err}
}

// ExitCode maps err to a process exit code: 0 for nil, the kind's code for
// an *Error anywhere in the chain, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return 1
}

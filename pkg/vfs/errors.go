package vfs

import "errors"

// ErrorCode represents the category of a tree error.
type ErrorCode int

const (
	// ErrNotFound indicates a path component does not exist.
	ErrNotFound ErrorCode = iota

	// ErrNotDirectory indicates the operation needed a directory but found a file.
	ErrNotDirectory

	// ErrIsDirectory indicates the operation needed a file but found a directory.
	ErrIsDirectory

	// ErrAlreadyExists indicates the target name is already taken in its parent.
	ErrAlreadyExists

	// ErrInvalidName indicates an empty name, a name containing the path
	// separator, or an attempt to operate on the root itself.
	ErrInvalidName

	// ErrInvalidShape indicates a structurally corrupt tree (for example a
	// serialized directory without metadata). This is a bug, not a user error.
	ErrInvalidShape
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrNotDirectory:
		return "not a directory"
	case ErrIsDirectory:
		return "is a directory"
	case ErrAlreadyExists:
		return "already exists"
	case ErrInvalidName:
		return "invalid name"
	case ErrInvalidShape:
		return "invalid node shape"
	default:
		return "unknown error"
	}
}

// Sentinel values for errors.Is checks against *Error.
var (
	ErrNotExist   = errors.New("no such file or directory")
	ErrNotDir     = errors.New("not a directory")
	ErrIsDir      = errors.New("is a directory")
	ErrExist      = errors.New("file or folder already exists")
	ErrBadName    = errors.New("invalid name")
	ErrBadShape   = errors.New("invalid node shape")
	sentinelByErr = map[ErrorCode]error{
		ErrNotFound:      ErrNotExist,
		ErrNotDirectory:  ErrNotDir,
		ErrIsDirectory:   ErrIsDir,
		ErrAlreadyExists: ErrExist,
		ErrInvalidName:   ErrBadName,
		ErrInvalidShape:  ErrBadShape,
	}
)

// Error is returned by tree mutators and the codec.
//
// A failed mutation never modifies the tree, so callers that prefer the
// "silent no-op" behaviour can simply ignore the error.
type Error struct {
	Code ErrorCode
	Op   string
	Path string
}

func (e *Error) Error() string {
	msg := e.Op + " " + e.Path + ": " + e.Code.String()
	if e.Path == "" {
		msg = e.Op + ": " + e.Code.String()
	}
	return msg
}

// Is makes errors.Is(err, vfs.ErrExist) and friends work.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	return sentinelByErr[e.Code] == target
}

func newError(code ErrorCode, op, path string) *Error {
	return &Error{Code: code, Op: op, Path: path}
}

// IsCode reports whether err is a *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}

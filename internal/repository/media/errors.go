package media

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPrimaryWrite   = errors.New("primary write failed")
	ErrThumbnailWrite = errors.New("thumbnail write failed")
	ErrDelete         = errors.New("delete failed")
	ErrInvalidInput   = errors.New("invalid upload input")

	// ErrObjectNotFound is returned by backend client adapters when the
	// object does not exist. It never leaves a Provider.
	ErrObjectNotFound = errors.New("object not found")
)

type Op string

const (
	OpUpload Op = "upload"
	OpDelete Op = "delete"
)

type Stage string

const (
	StagePrimary   Stage = "main image"
	StageThumbnail Stage = "thumbnail"
)

// Error is the only error type a Provider returns. It carries the backend
// message as text so SDK error values never reach the caller.
type Error struct {
	Backend string
	Op      Op
	Stage   Stage
	Detail  string

	kind error
}

func (e *Error) Error() string {
	var sb strings.Builder

	switch e.Op {
	case OpDelete:
		fmt.Fprintf(&sb, "Failed to delete from %s Storage", e.Backend)
	default:
		fmt.Fprintf(&sb, "Failed to upload to %s Storage", e.Backend)
	}

	switch {
	case e.Stage != "":
		fmt.Fprintf(&sb, ": Failed to upload %s: %s", e.Stage, e.Detail)
	case e.Detail != "":
		fmt.Fprintf(&sb, ": %s", e.Detail)
	}

	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.kind
}

// UploadError wraps a failed write of the given stage.
func UploadError(backend string, stage Stage, cause error) *Error {
	kind := ErrPrimaryWrite
	if stage == StageThumbnail {
		kind = ErrThumbnailWrite
	}
	return &Error{
		Backend: backend,
		Op:      OpUpload,
		Stage:   stage,
		Detail:  describe(cause),
		kind:    kind,
	}
}

// UploadMessageError is used when the backend answered with a structured
// error body instead of failing the call.
func UploadMessageError(backend string, stage Stage, message string) *Error {
	return UploadError(backend, stage, errors.New(message))
}

func DeleteError(backend string, cause error) *Error {
	return &Error{
		Backend: backend,
		Op:      OpDelete,
		Detail:  describe(cause),
		kind:    ErrDelete,
	}
}

func InvalidInputError(backend string, op Op, cause error) *Error {
	return &Error{
		Backend: backend,
		Op:      op,
		Detail:  fmt.Sprintf("%s: %s", ErrInvalidInput, describe(cause)),
		kind:    ErrInvalidInput,
	}
}

// IsNotFound reports whether err is the object-level ErrObjectNotFound that
// backend adapters map their structured not-found codes to. Missing buckets
// and other configuration errors never match.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

func describe(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrNotFound    = errors.New("document not found")
	ErrFormat      = errors.New("invalid document format")
	ErrInvalidPath = errors.New("invalid document path")
	ErrTruncated   = errors.New("listing truncated")
	ErrUnsupported = errors.New("operation not supported by backend")
)

// NotFoundError is returned by collection operations addressing a missing document.
type NotFoundError struct {
	Collection string
	ID         string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("document with ID %s not found in collection %s", e.ID, e.Collection)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// FormatError is returned when a stored document has a missing or malformed header.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, ErrFormat)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, ErrFormat, e.Err)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// PathError describes why a Path was rejected.
type PathError struct {
	Path   Path
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path.String(), e.Reason)
}

func (e *PathError) Is(target error) bool {
	return target == ErrInvalidPath
}

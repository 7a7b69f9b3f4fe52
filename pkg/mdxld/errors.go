package mdxld

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedHeader is matched by every *ParseError.
	ErrMalformedHeader = errors.New("malformed header")
	// ErrReservedKey is returned by Stringify when a Data key would be read back as metadata.
	ErrReservedKey = errors.New("data key collides with a reserved property")
)

// ParseError reports a header that was detected but could not be decoded.
type ParseError struct {
	Key    string // offending key, if any
	Reason string
	Err    error // underlying decoder error, if any
}

func (e *ParseError) Error() string {
	msg := "mdxld: " + ErrMalformedHeader.Error()
	if e.Key != "" {
		msg += fmt.Sprintf(" (key %q)", e.Key)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedHeader
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

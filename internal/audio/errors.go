package audio

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for the kinds of MetadataError. Match them with errors.Is.
var (
	ErrUnreadable        = errors.New("unreadable file")
	ErrCorrupt           = errors.New("corrupt metadata")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ErrorKind classifies a MetadataError.
type ErrorKind int

const (
	// KindUnreadable means the file could not be opened or read.
	KindUnreadable ErrorKind = iota

	// KindCorrupt means a metadata block is present but cannot be parsed.
	KindCorrupt

	// KindUnsupportedFormat means the file extension is not supported.
	KindUnsupportedFormat
)

// String returns a short name for the kind, suitable for log fields.
func (k ErrorKind) String() string {
	switch k {
	case KindUnreadable:
		return "unreadable"
	case KindCorrupt:
		return "corrupt"
	case KindUnsupportedFormat:
		return "unsupported_format"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUnreadable:
		return ErrUnreadable
	case KindCorrupt:
		return ErrCorrupt
	default:
		return ErrUnsupportedFormat
	}
}

// MetadataError is returned when tags cannot be read from a file.
// It affects only that file; callers are expected to skip it and continue.
type MetadataError struct {
	Kind ErrorKind
	Path string

	// Scheme is the metadata scheme being parsed when the error occurred.
	// Zero for errors not tied to a scheme.
	Scheme Scheme

	Err error
}

func (e *MetadataError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Path, e.Kind.sentinel())
	if e.Scheme != 0 {
		msg += " (" + e.Scheme.String() + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *MetadataError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

var errNotRegular = errors.New("not a regular file")

// errIO marks read failures that happened while a scheme was being parsed,
// as opposed to malformed data.
type errIO struct{ err error }

func (e errIO) Error() string { return e.err.Error() }
func (e errIO) Unwrap() error { return e.err }

// kindOf classifies an error returned by a scheme reader.
func kindOf(err error) ErrorKind {
	var ioErr errIO
	var pathErr *fs.PathError
	if errors.As(err, &ioErr) || errors.As(err, &pathErr) {
		return KindUnreadable
	}
	return KindCorrupt
}

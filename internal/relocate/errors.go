package relocate

import (
	"errors"
	"fmt"
)

// ErrIO matches every RelocateError via errors.Is.
var ErrIO = errors.New("relocation failed")

// ErrNoFreeName is returned when every collision suffix is taken.
var ErrNoFreeName = errors.New("no free file name")

// ErrNotRegular is returned for sources that are not regular files.
var ErrNotRegular = errors.New("not a regular file")

// RelocateError reports a failed file system operation during relocation.
type RelocateError struct {
	// Op is the step that failed, e.g. "mkdir", "rename", "copy".
	Op   string
	Path string
	Err  error
}

func (e *RelocateError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RelocateError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrIO.
func (e *RelocateError) Is(target error) bool {
	return target == ErrIO
}

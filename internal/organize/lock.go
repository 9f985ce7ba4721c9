package organize

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	ioutils "github.com/handiism/shelve/internal/io"
)

// LockFileName is created in the library root while a run is active.
const LockFileName = ".shelve.lock"

// ErrLocked is returned by Lock when another run holds the library.
var ErrLocked = errors.New("library is locked by another run")

// Lock takes the run lock on the library root, creating the root if needed.
// The returned function releases it. Dry runs do not lock, since they must
// not create anything.
func (o *Organizer) Lock() (unlock func() error, err error) {
	if o.dryRun {
		return func() error { return nil }, nil
	}

	if err := ioutils.EnsureDir(o.root); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}

	path := filepath.Join(o.root, LockFileName)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	o.log.Debug().Str("lock", path).Msg("acquired run lock")
	return lock.Unlock, nil
}

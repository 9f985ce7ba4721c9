package relocate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ioutils "github.com/handiism/shelve/internal/io"
	"github.com/handiism/shelve/internal/model"
)

// DefaultMaxSuffix is the highest collision suffix tried.
const DefaultMaxSuffix = 999

// Mode selects what happens to the source file.
type Mode int

const (
	// ModeMove removes the source once the destination is in place.
	ModeMove Mode = iota

	// ModeCopy leaves the source untouched.
	ModeCopy
)

func (m Mode) String() string {
	if m == ModeCopy {
		return "copy"
	}
	return "move"
}

// Action describes what Relocate did.
type Action int

const (
	// ActionMoved means the file was moved to Result.Path.
	ActionMoved Action = iota

	// ActionCopied means a copy was placed at Result.Path.
	ActionCopied

	// ActionInPlace means the source already is the destination file.
	ActionInPlace

	// ActionPlanned means a dry run chose Result.Path without touching disk.
	ActionPlanned
)

func (a Action) String() string {
	switch a {
	case ActionMoved:
		return "moved"
	case ActionCopied:
		return "copied"
	case ActionInPlace:
		return "in_place"
	case ActionPlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// Result is the outcome of a successful Relocate.
type Result struct {
	// Path is where the file ended up (or would end up, for a dry run).
	Path string

	Action Action

	// Renamed is true when a collision suffix was needed.
	Renamed bool

	// Bytes is the amount of data copied. Zero for renames.
	Bytes int64

	// SourceRetained is true when a cross-device move placed the file but
	// could not remove the source. SourceErr holds the reason.
	SourceRetained bool
	SourceErr      error
}

// Relocator places files at their destinations.
//
// A Relocator holds no per-file state and may be reused for any number of
// files.
type Relocator struct {
	mode      Mode
	dryRun    bool
	maxSuffix int

	// taken reports names that are spoken for without existing on disk.
	taken func(path string) bool

	rename func(oldpath, newpath string) error
	remove func(name string) error
}

// Option configures a Relocator.
type Option func(*Relocator)

// WithMode sets whether sources are moved or copied.
func WithMode(mode Mode) Option {
	return func(r *Relocator) { r.mode = mode }
}

// WithDryRun makes Relocate choose destinations without changing anything.
func WithDryRun(dryRun bool) Option {
	return func(r *Relocator) { r.dryRun = dryRun }
}

// WithMaxSuffix sets the highest collision suffix tried.
func WithMaxSuffix(n int) Option {
	return func(r *Relocator) { r.maxSuffix = n }
}

// WithTaken marks additional paths as occupied. A dry run uses it to keep
// planned placements from colliding with each other.
func WithTaken(taken func(path string) bool) Option {
	return func(r *Relocator) { r.taken = taken }
}

// New creates a Relocator. By default files are moved.
func New(opts ...Option) *Relocator {
	r := &Relocator{
		mode:      ModeMove,
		maxSuffix: DefaultMaxSuffix,
		rename:    os.Rename,
		remove:    os.Remove,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the configured mode.
func (r *Relocator) Mode() Mode {
	return r.mode
}

// Relocate places the file at src at dst.
//
// Missing directories are created. If dst is taken by another file, the
// first free collision suffix is used instead. If src already is dst (or one
// of its suffixed variants), nothing is done and ActionInPlace is returned.
//
// src must be a regular file; a symlink is refused rather than moved.
//
// Errors are *RelocateError values matching ErrIO.
func (r *Relocator) Relocate(src string, dst model.Destination) (Result, error) {
	srcInfo, err := os.Lstat(src)
	if err != nil {
		return Result{}, &RelocateError{Op: "stat", Path: src, Err: err}
	}
	if !srcInfo.Mode().IsRegular() {
		return Result{}, &RelocateError{Op: "stat", Path: src, Err: ErrNotRegular}
	}

	dir := dst.Dir()
	if !r.dryRun {
		if err := ioutils.EnsureDir(dir); err != nil {
			return Result{}, &RelocateError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	target, suffix, inPlace, err := r.pick(srcInfo, dst)
	if err != nil {
		return Result{}, err
	}

	res := Result{Path: target, Renamed: suffix > 0}
	switch {
	case inPlace:
		res.Action = ActionInPlace
		return res, nil
	case r.dryRun:
		res.Action = ActionPlanned
		return res, nil
	case r.mode == ModeCopy:
		res.Action = ActionCopied
		if res.Bytes, err = r.copyInto(src, target); err != nil {
			return Result{}, err
		}
		return res, nil
	}

	res.Action = ActionMoved
	err = r.rename(src, target)
	if err == nil {
		ioutils.SyncDir(dir)
		return res, nil
	}
	if !ioutils.IsCrossDevice(err) {
		return Result{}, &RelocateError{Op: "rename", Path: target, Err: err}
	}

	res.Bytes, err = r.copyInto(src, target)
	if err != nil {
		return Result{}, err
	}
	if err := r.remove(src); err != nil {
		res.SourceRetained = true
		res.SourceErr = err
	}
	return res, nil
}

// pick returns the first candidate path that is free or already holds src.
func (r *Relocator) pick(srcInfo os.FileInfo, dst model.Destination) (path string, suffix int, inPlace bool, err error) {
	dir := dst.Dir()
	for i := 0; i <= r.maxSuffix; i++ {
		path = filepath.Join(dir, candidateName(dst, i))

		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			exists, lerr := ioutils.Exists(path)
			if lerr != nil {
				return "", 0, false, &RelocateError{Op: "stat", Path: path, Err: lerr}
			}
			if !exists && (r.taken == nil || !r.taken(path)) {
				return path, i, false, nil
			}
			// Dangling symlink or reserved: the name is taken.
			continue
		}
		if err != nil {
			return "", 0, false, &RelocateError{Op: "stat", Path: path, Err: err}
		}
		if os.SameFile(srcInfo, info) {
			return path, i, true, nil
		}
	}
	return "", 0, false, &RelocateError{Op: "resolve collision", Path: dst.Path(), Err: ErrNoFreeName}
}

// candidateName returns the file name for collision attempt i.
func candidateName(dst model.Destination, i int) string {
	if i == 0 {
		return dst.FileName()
	}
	return fmt.Sprintf("%s (%d)%s", dst.Name, i, dst.Ext)
}

// copyInto copies src to a temporary file beside target, then renames it
// into place. The source is never modified.
func (r *Relocator) copyInto(src, target string) (int64, error) {
	dir := filepath.Dir(target)
	tmp := ioutils.TempName(dir, filepath.Base(target))

	n, err := ioutils.CopyFileVerified(src, tmp)
	if err != nil {
		return 0, &RelocateError{Op: "copy", Path: target, Err: err}
	}

	// The candidate was free when picked; refuse to clobber it if that
	// changed while copying.
	if exists, err := ioutils.Exists(target); err != nil || exists {
		_ = os.Remove(tmp)
		if err == nil {
			err = os.ErrExist
		}
		return 0, &RelocateError{Op: "copy", Path: target, Err: err}
	}

	if err := r.rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return 0, &RelocateError{Op: "rename", Path: target, Err: err}
	}
	ioutils.SyncDir(dir)

	return n, nil
}

package ioutils

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// ErrVerify is returned when a copied file does not match its source.
var ErrVerify = errors.New("copy verification failed")

// beforeVerify runs between writing dst and reading it back.
var beforeVerify = func(dst string) {}

// CopyFileVerified copies src to dst, then reads dst back from disk and
// checks that it matches the source in size and SHA-256 digest.
//
// The destination is created exclusively; an existing dst is an error, so a
// copy can never clobber another file. Permission bits and the modification
// time of src are applied to dst. The data is synced to disk before it is
// verified. On any failure dst is removed.
//
// Returns the number of bytes copied.
//
// Example:
//
//	n, err := CopyFileVerified("/inbox/track.mp3", "/music/A/B/.track.mp3.tmp")
func CopyFileVerified(src, dst string) (n int64, err error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	closed := false
	defer func() {
		if err != nil {
			if !closed {
				_ = out.Close()
			}
			_ = os.Remove(dst)
		}
	}()

	srcHasher := sha256.New()
	n, err = io.Copy(out, io.TeeReader(in, srcHasher))
	if err != nil {
		return n, err
	}
	if err = out.Sync(); err != nil {
		return n, err
	}
	closed = true
	if err = out.Close(); err != nil {
		return n, err
	}

	beforeVerify(dst)

	size, sum, err := hashFile(dst)
	if err != nil {
		return n, fmt.Errorf("%w: %v", ErrVerify, err)
	}
	if size != info.Size() || n != info.Size() {
		return n, fmt.Errorf("%w: source %d bytes, destination %d bytes", ErrVerify, info.Size(), size)
	}
	if !bytes.Equal(srcHasher.Sum(nil), sum) {
		return n, fmt.Errorf("%w: hash mismatch", ErrVerify)
	}

	// Timestamps are cosmetic; a failure here does not invalidate the copy.
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())

	return n, nil
}

// hashFile returns the size and SHA-256 digest of the file at path.
func hashFile(path string) (int64, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, nil, err
	}
	return n, h.Sum(nil), nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755 (rwxr-xr-x).
// If the directory already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Exists reports whether something exists at path, without following a
// final symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// IsCrossDevice reports whether err is a rename failure caused by source and
// destination living on different file systems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// TempName returns a hidden file name in dir derived from name, used to
// stage a copy before it is renamed into place.
func TempName(dir, name string) string {
	return filepath.Join(dir, fmt.Sprintf(".%s.%d.shelve-tmp", name, os.Getpid()))
}

// SyncDir flushes directory metadata so a rename inside dir is durable.
// Not every platform supports syncing directories; such errors are ignored.
func SyncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

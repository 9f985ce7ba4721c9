package organize

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/shelve/internal/model"
)

// scan returns the candidate files below input in lexical order.
func (o *Organizer) scan(input string) ([]string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{abs}, nil
	}

	// WalkDir does not follow a symlinked root.
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			o.progress(ProgressEvent{Message: "Skipping unreadable " + path + ": " + err.Error(), Level: LevelWarning, File: path})
			o.log.Warn().Str("path", path).Err(err).Msg("skipping unreadable entry")
			return nil
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !model.IsAudioExt(filepath.Ext(path)) {
			o.log.Debug().Str("path", path).Msg("ignoring non-audio file")
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// isHidden reports whether name is a dot file. This also covers the run
// lock and temporary copies the relocator stages in album directories.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

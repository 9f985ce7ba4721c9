package organize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/handiism/shelve/internal/model"
)

// minPollInterval bounds how often pending files are checked.
const minPollInterval = 50 * time.Millisecond

// Watch organizes audio files as they are created or written under dirs
// until ctx is cancelled.
//
// Events for a file are coalesced: it is processed once no event has been
// seen for it during settle. New subdirectories are watched and their
// contents picked up. Files inside the library root are ignored, so a root
// nested in a watched directory does not feed back into the watcher.
func (o *Organizer) Watch(ctx context.Context, dirs []string, settle time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if err := o.watchTree(watcher, abs, nil); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	interval := settle / 2
	if interval < minPollInterval {
		interval = minPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pending := make(map[string]time.Time)
	o.progress(ProgressEvent{Message: fmt.Sprintf("Watching %s", strings.Join(dirs, ", ")), Level: LevelInfo})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			o.handleEvent(watcher, event, pending)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				o.progress(ProgressEvent{Message: "Watcher queue overflowed, some files may need a manual run", Level: LevelWarning})
			}
			o.log.Warn().Err(err).Msg("watcher error")

		case now := <-ticker.C:
			for _, path := range ready(pending, now, settle) {
				if ctx.Err() != nil {
					return nil
				}
				delete(pending, path)
				if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
					continue
				}
				o.Process(path)
			}
		}
	}
}

func (o *Organizer) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event, pending map[string]time.Time) {
	path := event.Name
	if o.inRoot(path) || isHidden(filepath.Base(path)) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	now := time.Now()

	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			// Files may land in a new directory before it is watched.
			if err := o.watchTree(watcher, path, func(file string) { pending[file] = now }); err != nil {
				o.log.Warn().Str("path", path).Err(err).Msg("cannot watch directory")
			}
		}
		return
	}

	if model.IsAudioExt(filepath.Ext(path)) {
		pending[path] = now
	}
}

// watchTree adds dir and its visible subdirectories to watcher. Audio files
// found on the way are passed to found, if non-nil.
func (o *Organizer) watchTree(watcher *fsnotify.Watcher, dir string, found func(string)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if o.inRoot(path) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		if found != nil && d.Type().IsRegular() && model.IsAudioExt(filepath.Ext(path)) {
			found(path)
		}
		return nil
	})
}

// inRoot reports whether path is the library root or inside it.
func (o *Organizer) inRoot(path string) bool {
	rel, err := filepath.Rel(o.root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// ready returns the pending paths that have been quiet for settle, sorted.
func ready(pending map[string]time.Time, now time.Time, settle time.Duration) []string {
	var paths []string
	for path, last := range pending {
		if now.Sub(last) >= settle {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}

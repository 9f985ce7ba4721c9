package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/handiism/shelve/internal/model"
	"github.com/handiism/shelve/internal/relocate"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultWatchSettle is how long a watched file must stay unchanged before
// it is organized.
const DefaultWatchSettle = 2 * time.Second

// Settings holds all configuration options.
type Settings struct {
	// TargetDirectory is the library root files are organized into.
	TargetDirectory string `toml:"target_directory"`

	// KeepSource copies files instead of moving them.
	KeepSource bool `toml:"keep_source"`

	// Placeholders for missing tags
	UnknownArtist string `toml:"unknown_artist"`
	UnknownAlbum  string `toml:"unknown_album"`
	UnknownTitle  string `toml:"unknown_title"`

	// Sanitizing
	Replacement      string `toml:"replacement"`
	MaxSegmentLength int    `toml:"max_segment_length"`

	// WatchSettle is a duration string such as "2s".
	WatchSettle string `toml:"watch_settle"`

	// DryRun reports what would happen without touching files.
	// Only set from the command line.
	DryRun bool `toml:"-"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		KeepSource:       false,
		UnknownArtist:    model.DefaultUnknownArtist,
		UnknownAlbum:     model.DefaultUnknownAlbum,
		UnknownTitle:     model.DefaultUnknownTitle,
		Replacement:      model.DefaultReplacement,
		MaxSegmentLength: model.DefaultMaxSegmentLength,
		WatchSettle:      DefaultWatchSettle.String(),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/shelve/config.toml (or the platform
// equivalent). Empty if no config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "shelve", "config.toml")
}

// Load reads settings from a TOML file.
//
// Keys missing from the file keep their default values. A file that does
// not exist yields DefaultSettings().
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a TOML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the settings can produce safe destination paths.
func (s *Settings) Validate() error {
	if s.TargetDirectory == "" {
		return fmt.Errorf("%w: target directory is required", ErrInvalid)
	}

	placeholders := map[string]string{
		"unknown_artist": s.UnknownArtist,
		"unknown_album":  s.UnknownAlbum,
		"unknown_title":  s.UnknownTitle,
	}
	layout := s.ToLayout()
	for key, value := range placeholders {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalid, key)
		}
		if layout.Sanitize(value) != value {
			return fmt.Errorf("%w: %s %q is not a valid file name", ErrInvalid, key, value)
		}
	}

	if strings.ContainsAny(s.Replacement, `<>:"/\|?*`) || strings.ContainsFunc(s.Replacement, isControl) {
		return fmt.Errorf("%w: replacement %q contains unsafe characters", ErrInvalid, s.Replacement)
	}

	if strings.HasPrefix(s.Replacement, ".") {
		return fmt.Errorf("%w: replacement %q must not start with a dot", ErrInvalid, s.Replacement)
	}

	if s.MaxSegmentLength < 0 {
		return fmt.Errorf("%w: max_segment_length must not be negative", ErrInvalid)
	}

	if _, err := s.Settle(); err != nil {
		return err
	}

	return nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// Settle returns the parsed watch settle duration.
func (s *Settings) Settle() (time.Duration, error) {
	if s.WatchSettle == "" {
		return DefaultWatchSettle, nil
	}
	d, err := time.ParseDuration(s.WatchSettle)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: watch_settle %q is not a valid duration", ErrInvalid, s.WatchSettle)
	}
	return d, nil
}

// ToLayout converts settings to a model.Layout.
func (s *Settings) ToLayout() model.Layout {
	return model.Layout{
		UnknownArtist:    s.UnknownArtist,
		UnknownAlbum:     s.UnknownAlbum,
		UnknownTitle:     s.UnknownTitle,
		Replacement:      s.Replacement,
		MaxSegmentLength: s.MaxSegmentLength,
	}
}

// ToMode converts settings to a relocate.Mode.
func (s *Settings) ToMode() relocate.Mode {
	if s.KeepSource {
		return relocate.ModeCopy
	}
	return relocate.ModeMove
}

package model

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Default placeholders used when a tag field is missing.
const (
	DefaultUnknownArtist = "Unknown Artist"
	DefaultUnknownAlbum  = "Unknown Album"
	DefaultUnknownTitle  = "Unknown Title"
	DefaultReplacement   = "_"

	// DefaultMaxSegmentLength keeps every segment well below the common
	// 255-byte file name limit, leaving room for an extension and a
	// collision suffix.
	DefaultMaxSegmentLength = 200
)

var (
	invalidChars    = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	multiWhitespace = regexp.MustCompile(`\s+`)
	trailingDots    = regexp.MustCompile(`[.\s]+$`)
	leadingDots     = regexp.MustCompile(`^\.+`)
)

// reservedNames are device names Windows refuses as file names, with or
// without an extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Layout holds the placeholders and sanitizing rules used to compute
// destination paths.
//
// A Layout is an immutable value: pass it to wherever paths are resolved
// instead of relying on package-level settings.
//
// Example:
//
//	layout := model.DefaultLayout()
//	layout.UnknownArtist = "Various"
//	dst := layout.Resolve("/music", tag, file)
type Layout struct {
	// UnknownArtist replaces a missing or unusable artist.
	UnknownArtist string

	// UnknownAlbum replaces a missing or unusable album.
	UnknownAlbum string

	// UnknownTitle is used when neither the title nor the original file
	// name yields a usable file name.
	UnknownTitle string

	// Replacement is substituted for every character that is not allowed
	// in a path segment.
	Replacement string

	// MaxSegmentLength is the maximum length of a segment in bytes.
	// Zero or less disables truncation.
	MaxSegmentLength int
}

// DefaultLayout returns the layout with the standard placeholders.
func DefaultLayout() Layout {
	return Layout{
		UnknownArtist:    DefaultUnknownArtist,
		UnknownAlbum:     DefaultUnknownAlbum,
		UnknownTitle:     DefaultUnknownTitle,
		Replacement:      DefaultReplacement,
		MaxSegmentLength: DefaultMaxSegmentLength,
	}
}

// Destination is the canonical location of an audio file:
// <Root>/<Artist>/<Album>/<Name><Ext>.
//
// Artist, Album and Name are always non-empty and safe to use as a single
// path segment.
type Destination struct {
	Root   string
	Artist string
	Album  string
	Name   string
	Ext    string
}

// Dir returns the album directory.
func (d Destination) Dir() string {
	return filepath.Join(d.Root, d.Artist, d.Album)
}

// FileName returns the file name including the extension.
func (d Destination) FileName() string {
	return d.Name + d.Ext
}

// Path returns the full destination path.
func (d Destination) Path() string {
	return filepath.Join(d.Dir(), d.FileName())
}

// Resolve computes where file belongs under root given its tag.
//
// Missing fields fall back to the layout placeholders; a missing title falls
// back to the original file name without its extension. The extension is
// kept from the source file, lower-cased. Resolve performs no I/O and always
// returns the same Destination for the same arguments.
//
// Example:
//
//	tag := model.Tag{
//	    Artist: model.Field("Radiohead"),
//	    Album:  model.Field("OK Computer"),
//	    Title:  model.Field("Airbag"),
//	}
//	dst := model.DefaultLayout().Resolve("/music", tag, model.NewAudioFile("track.mp3"))
//	// dst.Path() = "/music/Radiohead/OK Computer/Airbag.mp3"
func (l Layout) Resolve(root string, tag Tag, file AudioFile) Destination {
	name := l.segment(Value(tag.Title), "")
	if name == "" {
		name = l.segment(file.Stem(), l.UnknownTitle)
	}

	return Destination{
		Root:   filepath.Clean(root),
		Artist: l.segment(Value(tag.Artist), l.UnknownArtist),
		Album:  l.segment(Value(tag.Album), l.UnknownAlbum),
		Name:   name,
		Ext:    strings.ToLower(file.Ext),
	}
}

// segment sanitizes value, returning placeholder if nothing usable remains.
func (l Layout) segment(value, placeholder string) string {
	if s := l.Sanitize(value); s != "" {
		return s
	}
	return placeholder
}

// Sanitize turns value into a string usable as a single path segment.
//
// The following transformations are applied:
//   - Unicode is normalized to NFC
//   - Invalid characters (<>:"/\|?* and control chars) are replaced
//   - Multiple whitespace is collapsed to a single space
//   - Leading whitespace, trailing whitespace and trailing dots are removed
//   - Leading dots become the replacement, so no segment is hidden
//   - Windows device names (CON, LPT1, ...) are prefixed with the replacement
//   - The result is truncated to MaxSegmentLength bytes
//
// An empty string is returned when nothing usable is left, which also covers
// "." and "..".
//
// Example:
//
//	DefaultLayout().Sanitize("AC/DC")    // Returns "AC_DC"
//	DefaultLayout().Sanitize(" Help!.. ") // Returns "Help!"
func (l Layout) Sanitize(value string) string {
	value = norm.NFC.String(value)
	value = invalidChars.ReplaceAllString(value, l.Replacement)
	value = multiWhitespace.ReplaceAllString(value, " ")
	value = strings.TrimLeft(value, " ")
	value = trailingDots.ReplaceAllString(value, "")
	value = leadingDots.ReplaceAllString(value, l.Replacement)
	value = strings.TrimLeft(value, " ")

	if value == "" {
		return ""
	}

	stem, _, _ := strings.Cut(value, ".")
	if _, ok := reservedNames[strings.ToUpper(strings.TrimSpace(stem))]; ok {
		value = l.Replacement + value
	}

	if l.MaxSegmentLength > 0 && len(value) > l.MaxSegmentLength {
		value = truncate(value, l.MaxSegmentLength)
		value = trailingDots.ReplaceAllString(value, "")
	}

	return value
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

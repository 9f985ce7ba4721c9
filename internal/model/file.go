package model

import (
	"path/filepath"
	"strings"
)

// Supported audio file extensions. All of them are MPEG audio streams,
// which is where ID3v2 and ID3v1 tags are embedded.
const (
	ExtMP3 = ".mp3"
	ExtMP2 = ".mp2"
	ExtMP1 = ".mp1"
)

// AudioFile represents a file that is a candidate for relocation.
type AudioFile struct {
	// Path is the location of the file as given by the caller.
	Path string

	// Ext is the lower-cased extension including the leading dot.
	// Empty if the file name has no extension.
	Ext string
}

// NewAudioFile creates an AudioFile for path.
func NewAudioFile(path string) AudioFile {
	return AudioFile{
		Path: path,
		Ext:  strings.ToLower(filepath.Ext(path)),
	}
}

// Stem returns the file name without directory and extension.
func (f AudioFile) Stem() string {
	base := filepath.Base(f.Path)
	return base[:len(base)-len(filepath.Ext(base))]
}

// Supported reports whether the file extension is one the metadata reader
// understands.
func (f AudioFile) Supported() bool {
	return IsAudioExt(f.Ext)
}

// IsAudioExt reports whether ext (with leading dot, any case) is supported.
func IsAudioExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ExtMP3, ExtMP2, ExtMP1:
		return true
	}
	return false
}

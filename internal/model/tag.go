package model

import "strings"

// Tag is the metadata extracted from one audio file.
//
// A nil field means the value was not present in any metadata scheme.
// Fields are never set to empty strings; use Field to build them.
type Tag struct {
	Artist *string
	Album  *string
	Title  *string
}

// padding is trimmed from both ends of tag values. ID3v1 pads fixed-width
// fields with NUL bytes or spaces.
const padding = " \t\r\n\x00"

// Field returns a pointer to the trimmed value, or nil if nothing is left
// after trimming.
func Field(value string) *string {
	value = strings.Trim(value, padding)
	if value == "" {
		return nil
	}
	return &value
}

// Merge returns a Tag that keeps t's values and fills absent fields from other.
func (t Tag) Merge(other Tag) Tag {
	if t.Artist == nil {
		t.Artist = other.Artist
	}
	if t.Album == nil {
		t.Album = other.Album
	}
	if t.Title == nil {
		t.Title = other.Title
	}
	return t
}

// Complete reports whether artist, album and title are all present.
func (t Tag) Complete() bool {
	return t.Artist != nil && t.Album != nil && t.Title != nil
}

// Empty reports whether no field is present.
func (t Tag) Empty() bool {
	return t.Artist == nil && t.Album == nil && t.Title == nil
}

// Value returns the dereferenced field or an empty string when absent.
func Value(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

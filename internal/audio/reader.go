package audio

import (
	"io"
	"os"

	"github.com/handiism/shelve/internal/model"
)

// Scheme identifies a metadata embedding scheme.
type Scheme int

const (
	// SchemeID3v2 is the frame-based ID3v2 tag at the start of the file.
	SchemeID3v2 Scheme = iota + 1

	// SchemeID3v1 is the fixed-layout ID3v1 tag at the end of the file.
	SchemeID3v1
)

// DefaultSchemes lists the schemes in the order they are consulted.
// The richer ID3v2 scheme wins over ID3v1 for every field it provides.
var DefaultSchemes = []Scheme{SchemeID3v2, SchemeID3v1}

func (s Scheme) String() string {
	switch s {
	case SchemeID3v2:
		return "id3v2"
	case SchemeID3v1:
		return "id3v1"
	default:
		return "unknown"
	}
}

// read extracts a partial tag using the scheme. A file that does not carry
// the scheme yields an empty Tag and no error.
func (s Scheme) read(rs io.ReadSeeker) (model.Tag, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return model.Tag{}, errIO{err}
	}
	switch s {
	case SchemeID3v2:
		return readID3v2(rs)
	case SchemeID3v1:
		return readID3v1(rs)
	default:
		return model.Tag{}, nil
	}
}

// Reader extracts tags from audio files.
//
// Example:
//
//	reader := NewReader()
//	tag, err := reader.Read("/inbox/track.mp3")
//	if errors.Is(err, ErrCorrupt) {
//	    log.Printf("skipping %s: %v", path, err)
//	}
type Reader struct {
	schemes []Scheme
}

// NewReader creates a Reader consulting the given schemes in order.
//
// If no schemes are given, DefaultSchemes is used.
func NewReader(schemes ...Scheme) *Reader {
	if len(schemes) == 0 {
		schemes = DefaultSchemes
	}
	return &Reader{schemes: schemes}
}

// Read returns the tag of the file at path.
//
// Each scheme contributes the fields it has; earlier schemes take
// precedence. Returns a *MetadataError when the extension is not supported,
// the file cannot be opened, or a metadata block is malformed.
func (r *Reader) Read(path string) (model.Tag, error) {
	file := model.NewAudioFile(path)
	if !file.Supported() {
		return model.Tag{}, &MetadataError{Kind: KindUnsupportedFormat, Path: path}
	}

	f, err := os.Open(path)
	if err != nil {
		return model.Tag{}, &MetadataError{Kind: KindUnreadable, Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return model.Tag{}, &MetadataError{Kind: KindUnreadable, Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return model.Tag{}, &MetadataError{Kind: KindUnreadable, Path: path, Err: errNotRegular}
	}

	var tag model.Tag
	for _, scheme := range r.schemes {
		if tag.Complete() {
			break
		}
		partial, err := scheme.read(f)
		if err != nil {
			return model.Tag{}, &MetadataError{Kind: kindOf(err), Path: path, Scheme: scheme, Err: err}
		}
		tag = tag.Merge(partial)
	}

	return tag, nil
}

package audio

import (
	"bytes"
	"io"

	"github.com/handiism/shelve/internal/model"
	"golang.org/x/text/encoding/charmap"
)

// ID3v1 layout. The tag occupies the last 128 bytes of the file:
//
//	"TAG" title[30] artist[30] album[30] year[4] comment[30] genre[1]
//
// The enhanced "TAG+" block, when present, sits right before it and
// extends title, artist and album by 60 bytes each.
const (
	id3v1Size         = 128
	id3v1ExtendedSize = 227
)

var (
	id3v1Magic    = []byte("TAG")
	id3v1ExtMagic = []byte("TAG+")
)

// readID3v1 reads the fixed-layout ID3v1 tag at the end of rs.
// Files shorter than a tag or without the "TAG" marker yield an empty Tag.
func readID3v1(rs io.ReadSeeker) (model.Tag, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return model.Tag{}, errIO{err}
	}
	if size < id3v1Size {
		return model.Tag{}, nil
	}

	block := make([]byte, id3v1Size)
	if err := readAt(rs, block, size-id3v1Size); err != nil {
		return model.Tag{}, err
	}
	if !bytes.HasPrefix(block, id3v1Magic) {
		return model.Tag{}, nil
	}

	title := latin1(block[3:33])
	artist := latin1(block[33:63])
	album := latin1(block[63:93])

	if size >= id3v1Size+id3v1ExtendedSize {
		ext := make([]byte, id3v1ExtendedSize)
		if err := readAt(rs, ext, size-id3v1Size-id3v1ExtendedSize); err != nil {
			return model.Tag{}, err
		}
		if bytes.HasPrefix(ext, id3v1ExtMagic) {
			title += latin1(ext[4:64])
			artist += latin1(ext[64:124])
			album += latin1(ext[124:184])
		}
	}

	return model.Tag{
		Artist: model.Field(artist),
		Album:  model.Field(album),
		Title:  model.Field(title),
	}, nil
}

func readAt(rs io.ReadSeeker, buf []byte, offset int64) error {
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return errIO{err}
	}
	if _, err := io.ReadFull(rs, buf); err != nil {
		return errIO{err}
	}
	return nil
}

// latin1 decodes a NUL-terminated ISO-8859-1 field.
func latin1(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(field)
	if err != nil {
		return string(field)
	}
	return string(decoded)
}

package audio

import (
	"errors"
	"io"
	"strings"

	"github.com/bogem/id3v2"
	"github.com/handiism/shelve/internal/model"
)

// ID3v2 frame IDs read by the reader. They are the same in v2.3 and v2.4.
const (
	frameArtist      = "TPE1"
	frameAlbumArtist = "TPE2"
	frameAlbum       = "TALB"
	frameTitle       = "TIT2"
)

// readID3v2 parses the ID3v2 tag at the start of rs.
//
// Only the frames the reader needs are parsed. Tags with a major version
// older than 2.3 are not supported by the parser and count as absent, so
// the ID3v1 fallback still applies to them.
func readID3v2(rs io.ReadSeeker) (model.Tag, error) {
	tag, err := id3v2.ParseReader(rs, id3v2.Options{
		Parse:       true,
		ParseFrames: []string{frameArtist, frameAlbumArtist, frameAlbum, frameTitle},
	})
	if errors.Is(err, id3v2.ErrUnsupportedVersion) {
		return model.Tag{}, nil
	}
	if err != nil {
		return model.Tag{}, err
	}

	// The track artist names the directory; the album artist only fills in
	// when the track has none.
	artist := textFrame(tag, frameArtist)
	if artist == nil {
		artist = textFrame(tag, frameAlbumArtist)
	}

	return model.Tag{
		Artist: artist,
		Album:  textFrame(tag, frameAlbum),
		Title:  textFrame(tag, frameTitle),
	}, nil
}

// textFrame returns the first non-empty value of a text frame.
// ID3v2.4 separates multiple values with NUL.
func textFrame(tag *id3v2.Tag, id string) *string {
	for _, value := range strings.Split(tag.GetTextFrame(id).Text, "\x00") {
		if field := model.Field(value); field != nil {
			return field
		}
	}
	return nil
}

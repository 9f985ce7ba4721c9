// Package audio reads the metadata embedded in audio files.
//
// # Reading Tags
//
// Use the Reader to extract artist, album and title:
//
//	reader := audio.NewReader()
//	tag, err := reader.Read("/inbox/track.mp3")
//	if err != nil {
//	    // errors.Is(err, audio.ErrCorrupt), audio.ErrUnreadable, ...
//	}
//
// # Metadata Schemes
//
// Two schemes are supported and tried in priority order:
//   - ID3v2 (frames TPE1/TPE2, TALB, TIT2), parsed with bogem/id3v2
//   - ID3v1 (the fixed 128-byte "TAG" trailer, plus the "TAG+" extension)
//
// Values are merged per field: a field missing from ID3v2 is taken from
// ID3v1 when present there.
//
// Files are opened read-only and never modified.
package audio

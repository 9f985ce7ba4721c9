// Package relocate moves audio files to their resolved destinations.
//
// The Relocator creates missing artist and album directories, never
// overwrites an existing file, and treats a file that is already at its
// destination as done:
//
//	r := relocate.New()
//	res, err := r.Relocate("/inbox/track.mp3", dst)
//	if errors.Is(err, relocate.ErrIO) {
//	    // report and continue with the next file
//	}
//
// # Collisions
//
// When the destination name is taken by a different file, a numeric suffix
// is inserted before the extension: "Airbag.mp3", "Airbag (1).mp3",
// "Airbag (2).mp3", and so on up to MaxSuffix. Candidates are checked in
// that order, so the chosen name is deterministic for a given directory
// state, and a file already sitting under one of the suffixed names is
// recognized as in place.
//
// # Cross-device moves
//
// Within one file system a move is a rename. Across file systems the file is
// copied to a hidden temporary file next to the destination, verified,
// renamed into place, and only then is the source removed. An interrupted
// move therefore leaves the source intact.
package relocate

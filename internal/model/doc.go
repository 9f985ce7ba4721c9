// Package model defines the core data structures used throughout
// the shelve application.
//
// # AudioFile
//
// AudioFile is a candidate file found on disk:
//
//	file := model.NewAudioFile("/inbox/track.MP3")
//	fmt.Println(file.Ext)    // ".mp3"
//	fmt.Println(file.Stem()) // "track"
//
// # Tag
//
// Tag holds the artist, album and title read from a file. Absent fields
// are nil rather than empty strings:
//
//	tag := model.Tag{Artist: model.Field("Radiohead"), Title: model.Field("Airbag")}
//	tag.Album == nil // true
//
// # Layout
//
// Layout carries the placeholders and sanitizing rules used by Resolve to
// compute where a file belongs:
//
//	dst := model.Resolve(model.DefaultLayout(), "/music", tag, file)
//	fmt.Println(dst.Path()) // "/music/Radiohead/Unknown Album/Airbag.mp3"
package model

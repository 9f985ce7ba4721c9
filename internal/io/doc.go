// Package ioutils provides the file system primitives used to relocate
// audio files.
//
// This package contains functions for:
//   - Verified file copying (size and SHA-256 checked)
//   - Directory creation
//   - Same-file and cross-device detection
//
// # File Operations
//
//	// Copy a file next to its final location, verified
//	n, err := ioutils.CopyFileVerified("/inbox/a.mp3", "/music/A/B/.a.mp3.tmp")
//
//	// Ensure directory exists
//	err := ioutils.EnsureDir("/music/Artist/Album")
//
//	// Check whether rename can be used
//	if ioutils.IsCrossDevice(err) { ... }
package ioutils

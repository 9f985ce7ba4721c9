// Package config provides configuration management for shelve.
//
// This package handles:
//   - Loading and saving settings from TOML files
//   - Default configuration values
//   - Validation
//   - Conversion to model.Layout and relocate.Mode for other packages
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// Files are moved, missing tags become "Unknown Artist" / "Unknown Album"
//
// # Loading from File
//
//	settings, err := config.Load(config.DefaultPath())
//	if err != nil {
//	    // A missing file is not an error: defaults are returned
//	}
//
// # Example File
//
//	target_directory = "/srv/music"
//	keep_source      = false
//	unknown_artist   = "Unknown Artist"
//	unknown_album    = "Unknown Album"
//	replacement      = "_"
//	watch_settle     = "2s"
package config

// Package organize drives the relocation of audio files into the library.
//
// # Organizer
//
// The Organizer runs the whole pipeline, one file at a time:
//
//  1. Collect candidate files from the inputs (files or directories)
//  2. Read the file's tag
//  3. Resolve its destination under the library root
//  4. Relocate it
//
// A failure affects only the file it happened on; the Organizer reports it
// and continues with the next file.
//
// # Basic Usage
//
//	org, err := organize.New(settings, logger, func(event organize.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := org.Initialize(ctx, []string{"/inbox"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	summary, err := org.Run(ctx)
//
// # Watch Mode
//
// Watch keeps organizing files as they appear in the given directories.
// A file is processed once it has not changed for the settle duration.
//
// # Run Lock
//
// Lock takes an exclusive lock file in the library root so two runs never
// write to the same library at once.
package organize

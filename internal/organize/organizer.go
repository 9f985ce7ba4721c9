package organize

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/handiism/shelve/internal/audio"
	"github.com/handiism/shelve/internal/config"
	"github.com/handiism/shelve/internal/model"
	"github.com/handiism/shelve/internal/relocate"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a progress update for one file or the whole run.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel

	// File is the source file the event is about, if any.
	File string
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Source string
	Dest   string
	Action relocate.Action

	// Renamed is true when a collision suffix was used.
	Renamed bool

	// SourceRetained is true when the file was placed but the source could
	// not be removed.
	SourceRetained bool

	Bytes int64

	// Err is non-nil when the file could not be organized.
	Err error
}

// Kind returns a short error classification for reports.
func (r FileResult) Kind() string {
	var metaErr *audio.MetadataError
	switch {
	case r.Err == nil:
		return ""
	case errors.As(r.Err, &metaErr):
		return metaErr.Kind.String()
	case errors.Is(r.Err, relocate.ErrIO):
		return "io"
	default:
		return "error"
	}
}

// Summary aggregates the results of a run.
type Summary struct {
	Results []FileResult

	Moved   int
	Copied  int
	InPlace int
	Planned int
	Renamed int
	Failed  int
	Bytes   int64
}

// Total returns the number of processed files.
func (s *Summary) Total() int {
	return len(s.Results)
}

// OK reports whether every file was organized.
func (s *Summary) OK() bool {
	return s.Failed == 0
}

func (s *Summary) add(r FileResult) {
	s.Results = append(s.Results, r)
	if r.Err != nil {
		s.Failed++
		return
	}
	switch r.Action {
	case relocate.ActionMoved:
		s.Moved++
	case relocate.ActionCopied:
		s.Copied++
	case relocate.ActionInPlace:
		s.InPlace++
	case relocate.ActionPlanned:
		s.Planned++
	}
	if r.Renamed {
		s.Renamed++
	}
	s.Bytes += r.Bytes
}

// Organizer coordinates reading, resolving and relocating files.
//
// Files are processed strictly one after another; no state is shared
// between files apart from the progress counters.
type Organizer struct {
	root      string
	layout    model.Layout
	reader    *audio.Reader
	relocator *relocate.Relocator
	dryRun    bool
	log       zerolog.Logger

	files     []string
	inputErrs []FileResult

	// planned holds the destinations chosen so far in a dry run.
	planned map[string]struct{}

	totalFiles     int32
	processedFiles int32
	failedFiles    int32

	onProgress func(ProgressEvent)
}

// New creates an Organizer from validated settings.
//
// onProgress may be nil.
func New(settings *config.Settings, log zerolog.Logger, onProgress func(ProgressEvent)) (*Organizer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(settings.TargetDirectory)
	if err != nil {
		return nil, fmt.Errorf("resolve target directory: %w", err)
	}

	o := &Organizer{
		root:       root,
		layout:     settings.ToLayout(),
		reader:     audio.NewReader(),
		dryRun:     settings.DryRun,
		log:        log,
		onProgress: onProgress,
	}

	opts := []relocate.Option{
		relocate.WithMode(settings.ToMode()),
		relocate.WithDryRun(settings.DryRun),
	}
	if settings.DryRun {
		o.planned = make(map[string]struct{})
		opts = append(opts, relocate.WithTaken(o.isPlanned))
	}
	o.relocator = relocate.New(opts...)

	return o, nil
}

func (o *Organizer) isPlanned(path string) bool {
	_, ok := o.planned[path]
	return ok
}

// Root returns the absolute library root.
func (o *Organizer) Root() string {
	return o.root
}

// Initialize collects the candidate files from inputs.
//
// Inputs may be files or directories. Directories are walked recursively;
// hidden entries and files without a supported extension are skipped.
// Files named explicitly are always candidates, so an unsupported one is
// reported as such. Inputs that cannot be read are reported as failures of
// the run but do not stop it.
func (o *Organizer) Initialize(ctx context.Context, inputs []string) error {
	o.files = nil
	o.inputErrs = nil

	seen := make(map[string]struct{})
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		files, err := o.scan(input)
		if err != nil {
			o.progress(ProgressEvent{Message: fmt.Sprintf("Error reading %s: %v", input, err), Level: LevelError, File: input})
			o.inputErrs = append(o.inputErrs, FileResult{Source: input, Err: err})
			continue
		}

		for _, file := range files {
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}
			o.files = append(o.files, file)
		}
	}

	atomic.StoreInt32(&o.totalFiles, int32(len(o.files)))
	atomic.StoreInt32(&o.processedFiles, 0)
	atomic.StoreInt32(&o.failedFiles, 0)

	o.progress(ProgressEvent{Message: fmt.Sprintf("Found %d file(s) to organize into %s", len(o.files), o.root), Level: LevelInfo})
	return nil
}

// Files returns the candidates collected by Initialize.
func (o *Organizer) Files() []string {
	return o.files
}

// Run organizes every file collected by Initialize.
//
// Per-file failures are recorded in the Summary. Run only returns an error
// when ctx is cancelled; files not yet started are then left alone.
func (o *Organizer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	for _, r := range o.inputErrs {
		summary.add(r)
	}

	for _, file := range o.files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.add(o.Process(file))
	}

	level := LevelSuccess
	if !summary.OK() {
		level = LevelWarning
	}
	o.progress(ProgressEvent{
		Message: fmt.Sprintf("Organized %d of %d file(s), %d failed", summary.Total()-summary.Failed, summary.Total(), summary.Failed),
		Level:   level,
	})

	return summary, nil
}

// Process reads, resolves and relocates a single file.
func (o *Organizer) Process(path string) FileResult {
	result := o.process(path)
	atomic.AddInt32(&o.processedFiles, 1)
	if result.Err != nil {
		atomic.AddInt32(&o.failedFiles, 1)
	}
	o.report(result)
	return result
}

func (o *Organizer) process(path string) FileResult {
	result := FileResult{Source: path}

	tag, err := o.reader.Read(path)
	if err != nil {
		result.Err = err
		return result
	}

	dst := o.layout.Resolve(o.root, tag, model.NewAudioFile(path))
	o.log.Debug().
		Str("file", path).
		Str("artist", dst.Artist).
		Str("album", dst.Album).
		Str("name", dst.FileName()).
		Bool("complete_tag", tag.Complete()).
		Msg("resolved destination")

	res, err := o.relocator.Relocate(path, dst)
	if err != nil {
		result.Err = err
		return result
	}

	if res.Action == relocate.ActionPlanned {
		o.planned[res.Path] = struct{}{}
	}

	result.Dest = res.Path
	result.Action = res.Action
	result.Renamed = res.Renamed
	result.Bytes = res.Bytes
	result.SourceRetained = res.SourceRetained
	if res.SourceRetained {
		o.log.Warn().Str("file", path).Err(res.SourceErr).Msg("file placed but source could not be removed")
	}
	return result
}

func (o *Organizer) report(r FileResult) {
	name := filepath.Base(r.Source)

	if r.Err != nil {
		o.log.Error().Str("file", r.Source).Str("kind", r.Kind()).Err(r.Err).Msg("skipped")
		o.progress(ProgressEvent{Message: fmt.Sprintf("%s: %v", name, r.Err), Level: LevelError, File: r.Source})
		return
	}

	rel, err := filepath.Rel(o.root, r.Dest)
	if err != nil {
		rel = r.Dest
	}

	o.log.Info().
		Str("file", r.Source).
		Str("dest", r.Dest).
		Str("action", r.Action.String()).
		Bool("renamed", r.Renamed).
		Msg("organized")

	switch {
	case r.Action == relocate.ActionInPlace:
		o.progress(ProgressEvent{Message: fmt.Sprintf("Already in place: %s", rel), Level: LevelVerbose, File: r.Source})
	case r.SourceRetained:
		o.progress(ProgressEvent{Message: fmt.Sprintf("%s → %s (source kept)", name, rel), Level: LevelWarning, File: r.Source})
	case r.Action == relocate.ActionPlanned:
		o.progress(ProgressEvent{Message: fmt.Sprintf("Would place %s → %s", name, rel), Level: LevelInfo, File: r.Source})
	default:
		o.progress(ProgressEvent{Message: fmt.Sprintf("%s → %s", name, rel), Level: LevelSuccess, File: r.Source})
	}
}

// GetProgress returns the number of processed, failed and total files.
// Safe to call from another goroutine while Run is active.
func (o *Organizer) GetProgress() (processed, failed, total int32) {
	return atomic.LoadInt32(&o.processedFiles), atomic.LoadInt32(&o.failedFiles), atomic.LoadInt32(&o.totalFiles)
}

func (o *Organizer) progress(event ProgressEvent) {
	if o.onProgress != nil {
		o.onProgress(event)
	}
}

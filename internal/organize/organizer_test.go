package organize

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2"

	"github.com/handiism/shelve/internal/audio"
	"github.com/handiism/shelve/internal/config"
	"github.com/handiism/shelve/internal/logging"
	"github.com/handiism/shelve/internal/relocate"
)

var audioFrames = bytes.Repeat([]byte{0xFF, 0xFB, 0x90, 0x00}, 64)

// writeTrack writes an mp3 with an ID3v2.4 tag holding the non-empty fields.
func writeTrack(t *testing.T, path, artist, album, title string) []byte {
	t.Helper()

	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	if artist != "" {
		tag.SetArtist(artist)
	}
	if album != "" {
		tag.SetAlbum(album)
	}
	if title != "" {
		tag.SetTitle(title)
	}

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	buf.Write(audioFrames)
	buf.WriteString(path) // makes every fixture distinct

	writeRaw(t, path, buf.Bytes())
	return buf.Bytes()
}

func writeRaw(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func corruptTrack(t *testing.T, path string) {
	t.Helper()
	header := []byte{'I', 'D', '3', 3, 0, 0, 0x80, 0x80, 0x80, 0x80}
	writeRaw(t, path, append(header, audioFrames...))
}

func newOrganizer(t *testing.T, root string, modify func(*config.Settings), events *[]ProgressEvent) *Organizer {
	t.Helper()

	settings := config.DefaultSettings()
	settings.TargetDirectory = root
	if modify != nil {
		modify(settings)
	}

	var onProgress func(ProgressEvent)
	if events != nil {
		onProgress = func(e ProgressEvent) { *events = append(*events, e) }
	}

	org, err := New(settings, logging.Discard(), onProgress)
	if err != nil {
		t.Fatal(err)
	}
	return org
}

func organize(t *testing.T, org *Organizer, inputs ...string) *Summary {
	t.Helper()
	ctx := context.Background()
	if err := org.Initialize(ctx, inputs); err != nil {
		t.Fatal(err)
	}
	summary, err := org.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

func assertContent(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("%s: content mismatch", path)
	}
}

func TestOrganizer_Batch(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	root := filepath.Join(dir, "music")

	airbag := writeTrack(t, filepath.Join(inbox, "track.mp3"), "Radiohead", "OK Computer", "Airbag")
	weird := []byte("no tags at all, just some bytes that are not an ID3 header")
	writeRaw(t, filepath.Join(inbox, "sub", "weird.mp3"), weird)
	corruptTrack(t, filepath.Join(inbox, "broken.mp3"))
	writeRaw(t, filepath.Join(inbox, "cover.jpg"), []byte("jpeg"))
	writeRaw(t, filepath.Join(inbox, ".hidden.mp3"), []byte("hidden"))

	var events []ProgressEvent
	org := newOrganizer(t, root, nil, &events)
	summary := organize(t, org, inbox)

	assertContent(t, filepath.Join(root, "Radiohead", "OK Computer", "Airbag.mp3"), airbag)
	assertContent(t, filepath.Join(root, "Unknown Artist", "Unknown Album", "weird.mp3"), weird)

	if _, err := os.Stat(filepath.Join(inbox, "broken.mp3")); err != nil {
		t.Errorf("corrupt file should stay in place: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox, "cover.jpg")); err != nil {
		t.Errorf("non-audio file should be ignored: %v", err)
	}

	if summary.Total() != 3 || summary.Moved != 2 || summary.Failed != 1 {
		t.Errorf("summary = total %d, moved %d, failed %d; want 3, 2, 1", summary.Total(), summary.Moved, summary.Failed)
	}
	if summary.OK() {
		t.Error("summary should not be OK")
	}

	var failed FileResult
	for _, r := range summary.Results {
		if r.Err != nil {
			failed = r
		}
	}
	if !errors.Is(failed.Err, audio.ErrCorrupt) || failed.Kind() != "corrupt" {
		t.Errorf("failed result = %+v (kind %q), want corrupt", failed, failed.Kind())
	}

	processed, failedCount, total := org.GetProgress()
	if processed != 3 || failedCount != 1 || total != 3 {
		t.Errorf("GetProgress() = %d, %d, %d", processed, failedCount, total)
	}
	if len(events) == 0 {
		t.Error("expected progress events")
	}
}

func TestOrganizer_Idempotent(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	root := filepath.Join(dir, "music")
	want := writeTrack(t, filepath.Join(inbox, "a.mp3"), "Radiohead", "OK Computer", "Airbag")

	organize(t, newOrganizer(t, root, nil, nil), inbox)

	// Second pass over the library itself changes nothing.
	summary := organize(t, newOrganizer(t, root, nil, nil), root)
	if summary.InPlace != 1 || summary.Moved != 0 || summary.Failed != 0 {
		t.Errorf("second run: in place %d, moved %d, failed %d", summary.InPlace, summary.Moved, summary.Failed)
	}

	dest := filepath.Join(root, "Radiohead", "OK Computer", "Airbag.mp3")
	assertContent(t, dest, want)

	entries, err := os.ReadDir(filepath.Dir(dest))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("album dir has %d entries, want 1", len(entries))
	}
}

func TestOrganizer_Collision(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "music")
	first := writeTrack(t, filepath.Join(dir, "in", "1.mp3"), "A", "B", "Song")
	second := writeTrack(t, filepath.Join(dir, "in", "2.mp3"), "A", "B", "Song")

	summary := organize(t, newOrganizer(t, root, nil, nil), filepath.Join(dir, "in"))
	if summary.Moved != 2 || summary.Renamed != 1 {
		t.Errorf("moved %d, renamed %d; want 2, 1", summary.Moved, summary.Renamed)
	}

	assertContent(t, filepath.Join(root, "A", "B", "Song.mp3"), first)
	assertContent(t, filepath.Join(root, "A", "B", "Song (1).mp3"), second)

	// Running again over the library keeps both files where they are.
	again := organize(t, newOrganizer(t, root, nil, nil), root)
	if again.InPlace != 2 {
		t.Errorf("second run in place = %d, want 2", again.InPlace)
	}
}

func TestOrganizer_DryRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "a.mp3")
	root := filepath.Join(dir, "music")
	writeTrack(t, src, "A", "B", "C")

	org := newOrganizer(t, root, func(s *config.Settings) { s.DryRun = true }, nil)
	unlock, err := org.Lock()
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	summary := organize(t, org, src)
	if summary.Planned != 1 {
		t.Errorf("planned = %d, want 1", summary.Planned)
	}
	if want := filepath.Join(root, "A", "B", "C.mp3"); summary.Results[0].Dest != want {
		t.Errorf("Dest = %q, want %q", summary.Results[0].Dest, want)
	}
	if _, err := os.Stat(root); !errors.Is(err, os.ErrNotExist) {
		t.Error("dry run must not create the library")
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("dry run must not move the source")
	}
}

func TestOrganizer_DryRunCollision(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "music")
	writeTrack(t, filepath.Join(dir, "in", "1.mp3"), "A", "B", "Song")
	writeTrack(t, filepath.Join(dir, "in", "2.mp3"), "A", "B", "Song")

	org := newOrganizer(t, root, func(s *config.Settings) { s.DryRun = true }, nil)
	summary := organize(t, org, filepath.Join(dir, "in"))

	if summary.Planned != 2 || summary.Renamed != 1 {
		t.Fatalf("planned %d, renamed %d; want 2, 1", summary.Planned, summary.Renamed)
	}
	want := []string{
		filepath.Join(root, "A", "B", "Song.mp3"),
		filepath.Join(root, "A", "B", "Song (1).mp3"),
	}
	for i, r := range summary.Results {
		if r.Dest != want[i] {
			t.Errorf("result %d: Dest = %q, want %q", i, r.Dest, want[i])
		}
	}
}

func TestOrganizer_SymlinkedInputDir(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "music")
	want := writeTrack(t, filepath.Join(dir, "real", "a.mp3"), "A", "B", "C")

	link := filepath.Join(dir, "inbox")
	if err := os.Symlink("real", link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	summary := organize(t, newOrganizer(t, root, nil, nil), link)
	if summary.Total() != 1 || summary.Moved != 1 {
		t.Fatalf("total %d, moved %d; want 1, 1", summary.Total(), summary.Moved)
	}
	assertContent(t, filepath.Join(root, "A", "B", "C.mp3"), want)
}

func TestOrganizer_KeepSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "a.mp3")
	root := filepath.Join(dir, "music")
	want := writeTrack(t, src, "A", "B", "C")

	summary := organize(t, newOrganizer(t, root, func(s *config.Settings) { s.KeepSource = true }, nil), src)
	if summary.Copied != 1 || summary.Bytes != int64(len(want)) {
		t.Errorf("copied %d, bytes %d", summary.Copied, summary.Bytes)
	}
	assertContent(t, src, want)
	assertContent(t, filepath.Join(root, "A", "B", "C.mp3"), want)
}

func TestOrganizer_ExplicitUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	writeRaw(t, path, []byte("hello"))

	summary := organize(t, newOrganizer(t, filepath.Join(dir, "music"), nil, nil), path)
	if summary.Failed != 1 || !errors.Is(summary.Results[0].Err, audio.ErrUnsupportedFormat) {
		t.Fatalf("got %+v, want one unsupported-format failure", summary.Results)
	}
	if summary.Results[0].Kind() != "unsupported_format" {
		t.Errorf("Kind() = %q", summary.Results[0].Kind())
	}
}

func TestOrganizer_MissingInput(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.mp3")
	writeTrack(t, good, "A", "B", "C")

	summary := organize(t, newOrganizer(t, filepath.Join(dir, "music"), nil, nil), filepath.Join(dir, "missing"), good)
	if summary.Failed != 1 || summary.Moved != 1 {
		t.Errorf("failed %d, moved %d; want 1, 1", summary.Failed, summary.Moved)
	}
}

func TestOrganizer_RelocateFailure(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "music")
	writeTrack(t, filepath.Join(dir, "in", "a.mp3"), "Blocked", "B", "C")
	writeTrack(t, filepath.Join(dir, "in", "b.mp3"), "Open", "B", "C")

	// A file where the artist directory should go makes mkdir fail.
	writeRaw(t, filepath.Join(root, "Blocked"), []byte("in the way"))

	summary := organize(t, newOrganizer(t, root, nil, nil), filepath.Join(dir, "in"))
	if summary.Failed != 1 || summary.Moved != 1 {
		t.Fatalf("failed %d, moved %d; want 1, 1", summary.Failed, summary.Moved)
	}
	for _, r := range summary.Results {
		if r.Err != nil && (!errors.Is(r.Err, relocate.ErrIO) || r.Kind() != "io") {
			t.Errorf("err = %v (kind %q), want io", r.Err, r.Kind())
		}
	}
}

func TestOrganizer_Cancelled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.mp3")
	writeTrack(t, src, "A", "B", "C")

	org := newOrganizer(t, filepath.Join(dir, "music"), nil, nil)
	if err := org.Initialize(context.Background(), []string{src}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := org.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Error("cancelled run must not touch files")
	}
}

func TestNew_InvalidSettings(t *testing.T) {
	settings := config.DefaultSettings()
	if _, err := New(settings, logging.Discard(), nil); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestOrganizer_Lock(t *testing.T) {
	root := filepath.Join(t.TempDir(), "music")

	first := newOrganizer(t, root, nil, nil)
	unlock, err := first.Lock()
	if err != nil {
		t.Fatal(err)
	}

	second := newOrganizer(t, root, nil, nil)
	if _, err := second.Lock(); !errors.Is(err, ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}

	if err := unlock(); err != nil {
		t.Fatal(err)
	}
	unlock2, err := second.Lock()
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	_ = unlock2()
}

func TestOrganizer_LockFileIsNotOrganized(t *testing.T) {
	root := filepath.Join(t.TempDir(), "music")
	org := newOrganizer(t, root, nil, nil)
	unlock, err := org.Lock()
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	summary := organize(t, org, root)
	if summary.Total() != 0 {
		t.Errorf("expected no candidates, got %d", summary.Total())
	}
}

func TestOrganizer_Watch(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	root := filepath.Join(inbox, "library") // nested root must be ignored
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}

	org := newOrganizer(t, root, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- org.Watch(ctx, []string{inbox}, 100*time.Millisecond) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)

	want := writeTrack(t, filepath.Join(inbox, "new", "a.mp3"), "Radiohead", "OK Computer", "Airbag")
	dest := filepath.Join(root, "Radiohead", "OK Computer", "Airbag.mp3")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if processed, _, _ := org.GetProgress(); processed > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	assertContent(t, dest, want)

	if processed, failed, _ := org.GetProgress(); processed != 1 || failed != 0 {
		t.Errorf("processed = %d, failed = %d; want 1, 0", processed, failed)
	}
}

func TestInRoot(t *testing.T) {
	org := &Organizer{root: filepath.Join("/", "music")}
	tests := map[string]bool{
		filepath.Join("/", "music"):                true,
		filepath.Join("/", "music", "A", "x.mp3"):  true,
		filepath.Join("/", "musicals", "x.mp3"):    false,
		filepath.Join("/", "inbox", "x.mp3"):       false,
		filepath.Join("/", "music", "..", "x.mp3"): false,
	}
	for path, want := range tests {
		if got := org.inRoot(path); got != want {
			t.Errorf("inRoot(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestReady(t *testing.T) {
	now := time.Now()
	pending := map[string]time.Time{
		"b": now.Add(-time.Second),
		"a": now.Add(-2 * time.Second),
		"c": now,
	}
	got := ready(pending, now, time.Second)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ready = %v, want [a b]", got)
	}
}

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/handiism/shelve/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	if err != nil {
		return exitFailed
	}
	return exitOK
}

func TestRun_NoInputs(t *testing.T) {
	_, err := execute(t, "-t", t.TempDir())
	if exitCode(err) != exitUsage {
		t.Fatalf("exit code = %d (%v), want %d", exitCode(err), err, exitUsage)
	}
}

func TestRun_NoTarget(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "-c", filepath.Join(dir, "none.toml"), dir)
	if exitCode(err) != exitUsage {
		t.Fatalf("exit code = %d (%v), want %d", exitCode(err), err, exitUsage)
	}
}

func TestRun_OrganizesAndReportsFailures(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	root := filepath.Join(dir, "music")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "plain.mp3"), []byte("no tag in this file at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	broken := append([]byte{'I', 'D', '3', 3, 0, 0, 0x80, 0x80, 0x80, 0x80}, make([]byte, 64)...)
	if err := os.WriteFile(filepath.Join(inbox, "broken.mp3"), broken, 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "-c", filepath.Join(dir, "none.toml"), "--json", "-t", root, inbox)
	if exitCode(err) != exitFailed {
		t.Fatalf("exit code = %d (%v), want %d", exitCode(err), err, exitFailed)
	}

	if _, err := os.Stat(filepath.Join(root, "Unknown Artist", "Unknown Album", "plain.mp3")); err != nil {
		t.Errorf("plain.mp3 not organized: %v", err)
	}
	if !strings.Contains(out, "broken.mp3") || !strings.Contains(out, "corrupt") {
		t.Errorf("summary should list the corrupt file, got:\n%s", out)
	}
}

func TestApplyFlags(t *testing.T) {
	settings := config.DefaultSettings()
	settings.TargetDirectory = "/from/file"
	settings.KeepSource = true

	applyFlags(settings, options{target: "/from/flag", keepSource: false, dryRun: true}, map[string]bool{"target-directory": true})

	if settings.TargetDirectory != "/from/flag" {
		t.Errorf("TargetDirectory = %q", settings.TargetDirectory)
	}
	if !settings.KeepSource {
		t.Error("unchanged flag must not override file setting")
	}
	if !settings.DryRun {
		t.Error("DryRun should follow the flag")
	}
}

func TestRenderTable(t *testing.T) {
	if got := renderTable("x", nil, [][]string{{"a"}}); got != "" {
		t.Errorf("no columns should render nothing, got %q", got)
	}

	out := renderTable("Failed files", []column{
		{Header: "File", Align: text.AlignLeft},
		{Header: "Kind", Align: text.AlignLeft},
	}, [][]string{{"short.mp3"}})

	// Headers are upper-cased by the default style.
	upper := strings.ToUpper(out)
	for _, want := range []string{"FAILED FILES", "FILE", "KIND", "SHORT.MP3"} {
		if !strings.Contains(upper, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

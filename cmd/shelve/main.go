package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/handiism/shelve/internal/config"
	"github.com/handiism/shelve/internal/logging"
	"github.com/handiism/shelve/internal/organize"
)

const longHelp = `Organize audio files into <target>/<artist>/<album>/<title>.<ext>
using the artist, album and title stored in their ID3v2 or ID3v1 tags.

Missing tags become "Unknown Artist", "Unknown Album", or the original
file name. Existing files are never overwritten: a clashing name gets a
" (1)", " (2)", ... suffix. Files already in the right place are left alone.

Settings are read from the config file (default ` + "$XDG_CONFIG_HOME/shelve/config.toml" + `);
flags override them.`

var exampleUsage = strings.TrimSpace(`
  shelve -t ~/Music ~/Downloads/*.mp3
  shelve -t ~/Music --keep-source /mnt/usb/music
  shelve -t ~/Music --watch ~/Inbox
`)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: exitUsage, err: fmt.Errorf(format, args...)}
}

type options struct {
	configPath string
	target     string
	keepSource bool
	dryRun     bool
	verbose    bool
	json       bool
	watch      bool
}

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func newRootCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "shelve [flags] <file-or-directory>...",
		Short:         "Move audio files into an artist/album/title library using their tags",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	flags.StringVarP(&opts.target, "target-directory", "t", "", "library root to organize files into")
	flags.BoolVarP(&opts.keepSource, "keep-source", "k", false, "copy files instead of moving them")
	flags.BoolVarP(&opts.dryRun, "dry-run", "n", false, "show where files would go without changing anything")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")
	flags.BoolVar(&opts.json, "json", false, "log JSON lines even on a terminal")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "keep running and organize files as they appear in the given directories")

	return cmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	if len(args) == 0 {
		return usageError("you must specify at least one file or directory")
	}

	log := logging.New(logging.Options{Verbose: opts.verbose, JSON: opts.json})

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	settings, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	applyFlags(settings, opts, changed)

	if settings.TargetDirectory == "" {
		return usageError("a target directory is required (--target-directory or target_directory in %s)", cfgPath)
	}
	if err := settings.Validate(); err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	settle, _ := settings.Settle()

	org, err := organize.New(settings, log, nil)
	if err != nil {
		return err
	}

	unlock, err := org.Lock()
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Msg("failed to release run lock")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Info().Msg("received signal, finishing current file...")
			cancel()
		case <-ctx.Done():
		}
	}()

	log.Debug().
		Str("root", org.Root()).
		Str("mode", settings.ToMode().String()).
		Bool("dry_run", settings.DryRun).
		Str("config", cfgPath).
		Msg("configuration")

	if err := org.Initialize(ctx, args); err != nil {
		return err
	}

	summary, err := org.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printSummary(cmd.OutOrStdout(), summary, settings.DryRun)

	if opts.watch && ctx.Err() == nil {
		dirs := watchDirs(args)
		if len(dirs) == 0 {
			return usageError("--watch needs at least one directory")
		}
		if err := org.Watch(ctx, dirs, settle); err != nil {
			return err
		}
		return nil
	}

	if ctx.Err() != nil {
		return &exitError{code: exitFailed, err: errors.New("interrupted")}
	}
	if !summary.OK() {
		return &exitError{code: exitFailed}
	}
	return nil
}

// applyFlags overrides file settings with flags the user set explicitly.
func applyFlags(settings *config.Settings, opts options, changed map[string]bool) {
	if changed["target-directory"] {
		settings.TargetDirectory = opts.target
	}
	if changed["keep-source"] {
		settings.KeepSource = opts.keepSource
	}
	settings.DryRun = opts.dryRun
}

// watchDirs returns the arguments that are directories.
func watchDirs(args []string) []string {
	var dirs []string
	for _, arg := range args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			dirs = append(dirs, arg)
		}
	}
	return dirs
}

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
		}
		os.Exit(exitErr.code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFailed)
}

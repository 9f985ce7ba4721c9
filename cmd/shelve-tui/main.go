package main

import (
	"fmt"
	"os"

	"github.com/handiism/shelve/internal/config"
	"github.com/handiism/shelve/internal/tui"
)

func main() {
	settings, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		settings.TargetDirectory = os.Args[1]
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

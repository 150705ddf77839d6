package main

import (
	"os"

	"github.com/Fepozopo/dithr/pkg/cli"
	"github.com/Fepozopo/dithr/pkg/config"
	"github.com/Fepozopo/dithr/pkg/logging"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentConfig, "invalid configuration", "error", err)
		os.Exit(1)
	}
	level := settings.LogLevel
	if config.GetBool("PREVIEW_DEBUG", false) {
		level = "debug"
	}
	logging.Setup(os.Stderr, level)
	logging.WithComponent(logging.ComponentStartup).Debug("starting",
		"version", cli.Version, "scale", settings.Scale, "zoom", settings.Zoom, "debounce", settings.Debounce)

	if err := cli.RunCLI(settings, os.Args[1:]); err != nil {
		logging.ErrorWithComponent(logging.ComponentCLI, "session ended", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/luthier-run/orchestrator/internal/appconfig"
	"github.com/luthier-run/orchestrator/internal/applog"
	"github.com/luthier-run/orchestrator/internal/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	prefs, _, err := appconfig.LoadOrCreateLauncherPreferences("")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	logger, closeLog, err := applog.New(applog.Options{Level: prefs.General.LogLevel, LogFile: prefs.General.LogFile})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	defer closeLog()

	opts, err := cli.Parse(args, os.Stderr)
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	logger.Info("luthier-run launcher started")

	if err := cli.Run(opts, ""); err != nil {
		logger.Warn("command failed", "error", err.Error())
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	logger.Info("command completed")
	return 0
}

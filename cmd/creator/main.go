package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/luthier-run/orchestrator/internal/appconfig"
	"github.com/luthier-run/orchestrator/internal/applog"
	"github.com/luthier-run/orchestrator/internal/creatorcli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	prefs, _, err := appconfig.LoadOrCreateCreatorPreferences("")
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

	logger.Info("luthier-creator started", "command", firstArg(args))

	if err := creatorcli.Run(context.Background(), args, prefs, os.Stdout); err != nil {
		if errors.Is(err, creatorcli.ErrUsage) {
			return 2
		}
		logger.Warn("command failed", "error", err.Error())
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}

	logger.Info("command completed")
	return 0
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// Package creatorcli is the subcommand dispatcher for the creator
// binary, in the teacher's internal/cli subcommand-switch idiom:
// `hash`, `test`, `create`, `batch`, and `fetch-cache`, ported from
// `original_source/bins/creator-cli/src/main.rs`'s
// Hash/Test/Create subcommands plus the batch-mode and dependency
// cache fetch supplements SPEC_FULL.md adds.
package creatorcli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/luthier-run/orchestrator/internal/appconfig"
	"github.com/luthier-run/orchestrator/internal/archivefetch"
	"github.com/luthier-run/orchestrator/internal/creator"
	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// ErrUsage signals a usage problem.
var ErrUsage = errors.New("usage")

// Run dispatches args[0] to the matching subcommand. prefs supplies the
// creator binary's own defaults (backup_existing, make_executable) for
// the `create` subcommand's optional flags.
func Run(ctx context.Context, args []string, prefs *appconfig.CreatorPreferences, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return ErrUsage
	}

	switch args[0] {
	case "hash":
		return runHash(args[1:], out)
	case "test":
		return runTest(args[1:], out)
	case "create":
		return runCreate(args[1:], prefs, out)
	case "batch":
		return runBatch(args[1:], prefs, out)
	case "fetch-cache":
		return runFetchCache(ctx, args[1:])
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return ErrUsage
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "creator commands:")
	fmt.Fprintln(out, "  hash --exe <path>")
	fmt.Fprintln(out, "  test --config <path> --game-root <path>")
	fmt.Fprintln(out, "  create --base <path> --config <path> --output <path> [--no-backup] [--no-executable]")
	fmt.Fprintln(out, "  batch --base <path> --config-dir <dir> --output-dir <dir> [--no-backup] [--no-executable]")
	fmt.Fprintln(out, "  fetch-cache --url <source> --dest <dir>")
}

func runHash(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(out)
	exe := fs.String("exe", "", "path to the executable to hash")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *exe == "" {
		fmt.Fprintln(out, "hash: --exe is required")
		return ErrUsage
	}

	digest, err := creator.Sha256File(*exe)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, digest)
	return nil
}

func runTest(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(out)
	configPath := fs.String("config", "", "path to the GameConfig JSON file")
	gameRoot := fs.String("game-root", "", "path to the game's install root")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *configPath == "" || *gameRoot == "" {
		fmt.Fprintln(out, "test: --config and --game-root are required")
		return ErrUsage
	}

	cfg, err := readGameConfig(*configPath)
	if err != nil {
		return err
	}

	report, err := creator.Test(cfg, *gameRoot)
	if err != nil {
		return err
	}

	return printJSON(out, report)
}

func runCreate(args []string, prefs *appconfig.CreatorPreferences, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(out)
	base := fs.String("base", "", "path to the base launcher binary")
	configPath := fs.String("config", "", "path to the GameConfig JSON file")
	output := fs.String("output", "", "path to write the generated launcher to")
	noBackup := fs.Bool("no-backup", false, "do not back up an existing output file")
	noExecutable := fs.Bool("no-executable", false, "do not mark the output file executable")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *base == "" || *configPath == "" || *output == "" {
		fmt.Fprintln(out, "create: --base, --config, and --output are required")
		return ErrUsage
	}

	cfg, err := readGameConfig(*configPath)
	if err != nil {
		return err
	}

	backupExisting := prefs.CreateFlow.BackupExisting && !*noBackup
	makeExecutable := prefs.CreateFlow.MakeExecutable && !*noExecutable

	result, err := creator.Create(creator.Request{
		BaseBinaryPath: *base,
		OutputPath:     *output,
		Config:         cfg,
		BackupExisting: backupExisting,
		MakeExecutable: makeExecutable,
	})
	if err != nil {
		return err
	}

	return printJSON(out, result)
}

func runBatch(args []string, prefs *appconfig.CreatorPreferences, out io.Writer) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	fs.SetOutput(out)
	base := fs.String("base", "", "path to the base launcher binary shared by every title")
	configDir := fs.String("config-dir", "", "directory of *.json GameConfig files")
	outputDir := fs.String("output-dir", "", "directory to write generated launchers into")
	noBackup := fs.Bool("no-backup", false, "do not back up existing output files")
	noExecutable := fs.Bool("no-executable", false, "do not mark output files executable")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *base == "" || *configDir == "" || *outputDir == "" {
		fmt.Fprintln(out, "batch: --base, --config-dir, and --output-dir are required")
		return ErrUsage
	}

	items, err := creator.BatchCreate(*base, *configDir, *outputDir,
		prefs.CreateFlow.BackupExisting && !*noBackup,
		prefs.CreateFlow.MakeExecutable && !*noExecutable,
	)
	if err != nil {
		return err
	}

	return printJSON(out, items)
}

func runFetchCache(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fetch-cache", flag.ContinueOnError)
	source := fs.String("url", "", "local path or http(s) URL of the dependency bundle")
	dest := fs.String("dest", "", "directory to extract the bundle into")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *source == "" || *dest == "" {
		return fmt.Errorf("fetch-cache: --url and --dest are required")
	}

	return archivefetch.Fetch(ctx, *source, *dest)
}

func readGameConfig(path string) (gconfig.GameConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg gconfig.GameConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("invalid config json at %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func printJSON(out io.Writer, v interface{}) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	fmt.Fprintln(out, string(payload))
	return nil
}

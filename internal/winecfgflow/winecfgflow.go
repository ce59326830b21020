// Package winecfgflow runs doctor + prefix setup + registry/winecfg
// application and then execs the interactive winecfg GUI tool, for the
// `--winecfg` CLI surface.
package winecfgflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/domainerr"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/observability"
	"github.com/luthier-run/orchestrator/internal/overrides"
	"github.com/luthier-run/orchestrator/internal/prefix"
	"github.com/luthier-run/orchestrator/internal/procexec"
	"github.com/luthier-run/orchestrator/internal/regfile"
	"github.com/luthier-run/orchestrator/internal/trailer"
)

// Result is the winecfg-adjacent flow's outcome (doctor summary, winecfg
// step status and exit code), serialized to stdout like playflow.Result.
type Result struct {
	DoctorSummary     string   `json:"doctor_summary"`
	WinecfgStatus     string   `json:"winecfg_status"`
	WinecfgReason     string   `json:"winecfg_reason,omitempty"`
	WinecfgExitCode   *int     `json:"winecfg_exit_code,omitempty"`
	TerminalError     *string  `json:"terminal_error,omitempty"`
}

type Options struct {
	SelfPath string
	DryRun   bool
	Emitter  *observability.Emitter
}

// Execute loads the embedded configuration, runs the doctor and prefix
// setup, applies registry/winecfg overrides, and finally execs the
// interactive `winecfg` tool (mandatory, no timeout).
func Execute(opts Options) (Result, error) {
	traceID := observability.NewTraceID()

	selfPath := opts.SelfPath
	if selfPath == "" {
		resolved, err := os.Executable()
		if err != nil {
			return Result{}, err
		}
		selfPath = resolved
	}
	selfBytes, err := os.ReadFile(selfPath)
	if err != nil {
		return Result{}, err
	}
	configJSON, err := trailer.Extract(selfBytes)
	if err != nil {
		return Result{}, fmt.Errorf("embedded payload trailer not found: %w", err)
	}
	var cfg gconfig.GameConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return Result{}, err
	}
	cfg.ApplyDefaults()

	emitter := opts.Emitter
	if emitter == nil {
		emitter = observability.NewEmitter(observability.NewSink(os.Stderr), traceID, cfg.ExeHash)
	}

	gameRoot := filepath.Dir(selfPath)

	store, err := overrides.Load(cfg.ExeHash)
	if err != nil {
		return Result{}, err
	}
	overrides.Apply(&cfg, store)

	report := doctor.RunDoctor(&cfg)
	emitter.Info("winecfg", "doctor", "GO-WC-010", "winecfg_doctor_finished", map[string]string{"summary": string(report.Summary)})

	if report.Summary == doctor.Blocker {
		code := domainerr.WinecfgDoctorBlocked.Code()
		return Result{DoctorSummary: string(report.Summary), WinecfgStatus: "aborted", WinecfgReason: "doctor returned BLOCKER", TerminalError: &code},
			domainerr.New(domainerr.WinecfgDoctorBlocked)
	}

	plan, err := prefix.Build(&cfg)
	if err != nil {
		return Result{}, err
	}
	envPairs := prefix.BaseEnv(plan.PrefixPath)
	setupResults := procexec.ExecutePlan(plan, envPairs, opts.DryRun)
	if procexec.HasMandatoryFailures(setupResults) {
		code := domainerr.WinecfgPrefixSetupMandatoryFailed.Code()
		return Result{DoctorSummary: string(report.Summary), WinecfgStatus: "aborted", WinecfgReason: "mandatory prefix setup command failed", TerminalError: &code},
			domainerr.New(domainerr.WinecfgPrefixSetupMandatoryFailed)
	}

	if len(cfg.RegistryKeys) > 0 {
		if err := importRegistry(regfile.Render(cfg.RegistryKeys), envPairs, opts.DryRun); err != nil {
			code := domainerr.PlayRegistryImportFailed.Code()
			return Result{DoctorSummary: string(report.Summary), WinecfgStatus: "aborted", WinecfgReason: "registry import failed", TerminalError: &code}, err
		}
	}

	winecfgKeys := regfile.WinecfgRegistryKeys(cfg.Winecfg)
	if len(winecfgKeys) > 0 {
		if err := importRegistry(regfile.Render(winecfgKeys), envPairs, opts.DryRun); err != nil {
			code := domainerr.WinecfgOverrideApplyFailed.Code()
			return Result{DoctorSummary: string(report.Summary), WinecfgStatus: "aborted", WinecfgReason: "winecfg override apply failed", TerminalError: &code}, err
		}
	}

	emitter.Info("winecfg", "command", "GO-WC-020", "winecfg_command_built", map[string]string{"program": "winecfg"})

	cmdResult := procexec.RunCommand(prefix.PlannedCommand{
		Name: "winecfg", Program: "winecfg", TimeoutSecs: 0, Mandatory: true,
	}, envPairs, gameRoot, opts.DryRun)

	if cmdResult.Status == procexec.Failed || cmdResult.Status == procexec.TimedOut {
		code := domainerr.WinecfgCommandFailed.Code()
		return Result{DoctorSummary: string(report.Summary), WinecfgStatus: "aborted", WinecfgReason: "winecfg command failed", TerminalError: &code},
			domainerr.New(domainerr.WinecfgCommandFailed)
	}

	return Result{
		DoctorSummary:   string(report.Summary),
		WinecfgStatus:   "completed",
		WinecfgExitCode: cmdResult.ExitCode,
	}, nil
}

func importRegistry(regText string, envPairs []procexec.EnvPair, dryRun bool) error {
	if dryRun {
		procexec.RunCommand(prefix.PlannedCommand{
			Name: "regedit", Program: "wine", Args: []string{"regedit", "(dry-run)"},
			TimeoutSecs: 60, Mandatory: true,
		}, envPairs, "", true)
		return nil
	}

	tmp, err := os.CreateTemp("", "luthier-run-*.reg")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(regText); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	result := procexec.RunCommand(prefix.PlannedCommand{
		Name: "regedit", Program: "wine", Args: []string{"regedit", tmp.Name()},
		TimeoutSecs: 60, Mandatory: true,
	}, envPairs, "", false)
	if result.Status == procexec.Failed || result.Status == procexec.TimedOut {
		return fmt.Errorf("wine regedit import failed")
	}
	return nil
}

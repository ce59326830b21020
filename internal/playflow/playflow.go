// Package playflow composes trailer extraction, the instance lock, the
// doctor, the prefix planner/executor, registry/winecfg application,
// folder mounts, pre/post scripts, and final launch assembly into the
// single linear state machine that runs when a generated launcher is
// executed (C10).
package playflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/domainerr"
	"github.com/luthier-run/orchestrator/internal/gamescope"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/instancelock"
	"github.com/luthier-run/orchestrator/internal/observability"
	"github.com/luthier-run/orchestrator/internal/overrides"
	"github.com/luthier-run/orchestrator/internal/prefix"
	"github.com/luthier-run/orchestrator/internal/procexec"
	"github.com/luthier-run/orchestrator/internal/regfile"
	"github.com/luthier-run/orchestrator/internal/trailer"
)

type StepName string

const (
	StepLoadPayload     StepName = "LoadPayload"
	StepResolveGameRoot StepName = "ResolveGameRoot"
	StepAcquireLock     StepName = "AcquireLock"
	StepIntegrity       StepName = "Integrity"
	StepLoadOverrides   StepName = "LoadOverrides"
	StepDoctor          StepName = "Doctor"
	StepPrefixSetup     StepName = "PrefixSetup"
	StepRegistryApply   StepName = "RegistryApply"
	StepWinecfgApply    StepName = "WinecfgApply"
	StepFolderMounts    StepName = "FolderMounts"
	StepPreScript       StepName = "PreScript"
	StepLaunch          StepName = "Launch"
	StepPostScript      StepName = "PostScript"
	StepRelease         StepName = "Release"
)

type StepOutcome string

const (
	StepOK      StepOutcome = "ok"
	StepSkipped StepOutcome = "skipped"
	StepFailed  StepOutcome = "failed"
)

type StepResult struct {
	Step    StepName    `json:"step"`
	Outcome StepOutcome `json:"outcome"`
	Error   *string     `json:"error,omitempty"`
}

// Result is the envelope printed to stdout whether the flow succeeds or
// aborts partway through: downstream tooling can always parse the last
// stdout line as JSON.
type Result struct {
	TraceID       string       `json:"trace_id"`
	ExeHash       string       `json:"exe_hash,omitempty"`
	Steps         []StepResult `json:"steps"`
	DoctorSummary *string      `json:"doctor_summary,omitempty"`
	LaunchCommand []string     `json:"launch_command,omitempty"`
	ExitCode      *int         `json:"exit_code,omitempty"`
	TerminalError *string      `json:"terminal_error,omitempty"`
}

// Options configures the parts of a play flow a caller can override for
// testing (self binary path, dry-run, output stream for the launched
// game's stdio is always inherited).
type Options struct {
	SelfPath string
	DryRun   bool
	Emitter  *observability.Emitter
}

func errPtr(s string) *string { return &s }

// Execute runs the full 14-state flow. It always returns a Result (for
// the caller to serialize to stdout), and a non-nil error exactly when a
// mandatory step failed.
func Execute(opts Options) (Result, error) {
	traceID := observability.NewTraceID()
	emitter := opts.Emitter
	if emitter == nil {
		emitter = observability.NewEmitter(observability.NewSink(os.Stderr), traceID, "")
	}

	result := Result{TraceID: traceID}
	record := func(step StepName, outcome StepOutcome, errMsg string) {
		sr := StepResult{Step: step, Outcome: outcome}
		if errMsg != "" {
			sr.Error = errPtr(errMsg)
		}
		result.Steps = append(result.Steps, sr)
	}
	fail := func(step StepName, code, message string) (Result, error) {
		record(step, StepFailed, message)
		result.TerminalError = errPtr(code)
		emitter.ErrorEvent("playflow", string(step), "GO-PF-900", message, map[string]string{"code": code})
		return result, fmt.Errorf("%s: %s", code, message)
	}

	// 1. LoadPayload
	selfPath := opts.SelfPath
	if selfPath == "" {
		resolved, err := os.Executable()
		if err != nil {
			return fail(StepLoadPayload, "PLAY_LOAD_PAYLOAD_FAILED", err.Error())
		}
		selfPath = resolved
	}
	selfBytes, err := os.ReadFile(selfPath)
	if err != nil {
		return fail(StepLoadPayload, "PLAY_LOAD_PAYLOAD_FAILED", err.Error())
	}
	configJSON, err := trailer.Extract(selfBytes)
	if err != nil {
		return fail(StepLoadPayload, "PLAY_LOAD_PAYLOAD_FAILED", "embedded payload trailer not found: "+err.Error())
	}
	var cfg gconfig.GameConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return fail(StepLoadPayload, "PLAY_LOAD_PAYLOAD_FAILED", err.Error())
	}
	cfg.ApplyDefaults()
	result.ExeHash = cfg.ExeHash
	if opts.Emitter == nil {
		emitter = observability.NewEmitter(observability.NewSink(os.Stderr), traceID, cfg.ExeHash)
	}
	record(StepLoadPayload, StepOK, "")
	emitter.Info("playflow", string(StepLoadPayload), "GO-PF-010", "payload loaded", nil)

	// 2. ResolveGameRoot
	gameRoot := filepath.Dir(selfPath)
	record(StepResolveGameRoot, StepOK, "")
	emitter.Info("playflow", string(StepResolveGameRoot), "GO-PF-020", "game root resolved", map[string]string{"game_root": gameRoot})

	// 3. AcquireLock
	lock, err := instancelock.Acquire(cfg.ExeHash)
	if err != nil {
		return fail(StepAcquireLock, domainerr.PlayInstanceAlreadyRunning.Code(), err.Error())
	}
	defer lock.Release()
	record(StepAcquireLock, StepOK, "")
	emitter.Info("playflow", string(StepAcquireLock), "GO-PF-030", "instance lock acquired", nil)

	// 4. Integrity
	if err := checkIntegrity(gameRoot, cfg); err != nil {
		de, _ := err.(*domainerr.Error)
		code := domainerr.PlayIntegrityCheckFailed.Code()
		if de != nil {
			code = de.Code()
		}
		return fail(StepIntegrity, code, err.Error())
	}
	record(StepIntegrity, StepOK, "")
	emitter.Info("playflow", string(StepIntegrity), "GO-PF-040", "integrity check passed", nil)

	// 5. LoadOverrides
	store, err := overrides.Load(cfg.ExeHash)
	if err != nil {
		return fail(StepLoadOverrides, domainerr.RuntimeOverridesReadFailed.Code(), err.Error())
	}
	overrides.Apply(&cfg, store)
	record(StepLoadOverrides, StepOK, "")
	emitter.Info("playflow", string(StepLoadOverrides), "GO-PF-050", "overrides applied", nil)

	// 6. Doctor
	report := doctor.RunDoctor(&cfg)
	result.DoctorSummary = errPtr(string(report.Summary))
	if report.Summary == doctor.Blocker {
		return fail(StepDoctor, domainerr.PlayDoctorBlocked.Code(), "doctor returned blocker")
	}
	record(StepDoctor, StepOK, "")
	emitter.Info("playflow", string(StepDoctor), "GO-PF-060", "doctor passed", map[string]string{"summary": string(report.Summary)})

	// 7. PrefixSetup
	plan, err := prefix.Build(&cfg)
	if err != nil {
		return fail(StepPrefixSetup, domainerr.PlayPrefixSetupMandatoryFailed.Code(), err.Error())
	}
	envPairs := prefix.BaseEnv(plan.PrefixPath)
	stepResults := procexec.ExecutePlan(plan, envPairs, opts.DryRun)
	if procexec.HasMandatoryFailures(stepResults) {
		return fail(StepPrefixSetup, domainerr.PlayPrefixSetupMandatoryFailed.Code(), "mandatory prefix setup step failed")
	}
	record(StepPrefixSetup, StepOK, "")
	emitter.Info("playflow", string(StepPrefixSetup), "GO-PF-070", "prefix setup complete", nil)

	// 8. RegistryApply
	if len(cfg.RegistryKeys) == 0 {
		record(StepRegistryApply, StepSkipped, "")
	} else {
		if err := importRegistry(regfile.Render(cfg.RegistryKeys), plan.PrefixPath, envPairs, opts.DryRun); err != nil {
			return fail(StepRegistryApply, domainerr.PlayRegistryImportFailed.Code(), err.Error())
		}
		record(StepRegistryApply, StepOK, "")
	}
	emitter.Info("playflow", string(StepRegistryApply), "GO-PF-080", "registry apply finished", nil)

	// 9. WinecfgApply
	winecfgKeys := regfile.WinecfgRegistryKeys(cfg.Winecfg)
	if len(winecfgKeys) == 0 && len(cfg.Winecfg.Drives) == 0 {
		record(StepWinecfgApply, StepSkipped, "")
	} else {
		if len(winecfgKeys) > 0 {
			if err := importRegistry(regfile.Render(winecfgKeys), plan.PrefixPath, envPairs, opts.DryRun); err != nil {
				return fail(StepWinecfgApply, domainerr.PlayWinecfgOverrideApplyFailed.Code(), err.Error())
			}
		}
		if err := applyDriveMappings(plan.PrefixPath, gameRoot, cfg.Winecfg.Drives); err != nil {
			return fail(StepWinecfgApply, domainerr.PlayWinecfgOverrideApplyFailed.Code(), err.Error())
		}
		record(StepWinecfgApply, StepOK, "")
	}
	emitter.Info("playflow", string(StepWinecfgApply), "GO-PF-090", "winecfg apply finished", nil)

	// 10. FolderMounts
	if len(cfg.FolderMounts) == 0 {
		record(StepFolderMounts, StepSkipped, "")
	} else {
		if err := applyFolderMounts(gameRoot, plan.PrefixPath, cfg.FolderMounts); err != nil {
			return fail(StepFolderMounts, domainerr.PlayFolderMountSetupFailed.Code(), err.Error())
		}
		record(StepFolderMounts, StepOK, "")
	}
	emitter.Info("playflow", string(StepFolderMounts), "GO-PF-100", "folder mounts applied", nil)

	// 11. PreScript
	if strings.TrimSpace(cfg.Scripts.PreLaunch) == "" {
		record(StepPreScript, StepSkipped, "")
	} else {
		preResult := procexec.RunCommand(prefix.PlannedCommand{
			Name: "pre-launch", Program: "bash", Args: []string{"-lc", cfg.Scripts.PreLaunch},
			TimeoutSecs: 600, Mandatory: true,
		}, envPairs, gameRoot, opts.DryRun)
		if preResult.Status == procexec.Failed || preResult.Status == procexec.TimedOut {
			return fail(StepPreScript, domainerr.PlayPreLaunchScriptFailed.Code(), "pre-launch script failed")
		}
		record(StepPreScript, StepOK, "")
	}
	emitter.Info("playflow", string(StepPreScript), "GO-PF-110", "pre-launch script finished", nil)

	// 12. Launch
	command, err := assembleLaunchCommand(&cfg, report, gameRoot)
	if err != nil {
		return fail(StepLaunch, domainerr.PlayGameLaunchFailed.Code(), err.Error())
	}
	result.LaunchCommand = command
	emitter.Info("playflow", string(StepLaunch), "GO-PF-120", "launch command assembled", map[string]string{"program": command[0]})

	launchResult := procexec.RunCommand(prefix.PlannedCommand{
		Name: "launch", Program: command[0], Args: command[1:],
		TimeoutSecs: 0, Mandatory: true,
	}, envPairs, gameRoot, opts.DryRun)
	if launchResult.Status == procexec.Failed || launchResult.Status == procexec.TimedOut {
		record(StepLaunch, StepFailed, "game launch command failed")
		result.TerminalError = errPtr(domainerr.PlayGameLaunchFailed.Code())
	} else {
		record(StepLaunch, StepOK, "")
		result.ExitCode = launchResult.ExitCode
	}
	emitter.Info("playflow", string(StepLaunch), "GO-PF-121", "launch finished", map[string]interface{}{"status": string(launchResult.Status)})

	// 13. PostScript — always attempted, never mandatory.
	if strings.TrimSpace(cfg.Scripts.PostLaunch) == "" {
		record(StepPostScript, StepSkipped, "")
	} else {
		procexec.RunCommand(prefix.PlannedCommand{
			Name: "post-launch", Program: "bash", Args: []string{"-lc", cfg.Scripts.PostLaunch},
			TimeoutSecs: 600, Mandatory: false,
		}, envPairs, gameRoot, opts.DryRun)
		record(StepPostScript, StepOK, "")
	}
	emitter.Info("playflow", string(StepPostScript), "GO-PF-130", "post-launch script finished", nil)

	// 14. Release — handled by the deferred lock.Release() above; record
	// it explicitly so the envelope's step list is complete.
	record(StepRelease, StepOK, "")
	emitter.Info("playflow", string(StepRelease), "GO-PF-140", "instance lock released", nil)

	if result.TerminalError != nil {
		return result, fmt.Errorf("%s: game launch command failed", *result.TerminalError)
	}
	return result, nil
}

func checkIntegrity(gameRoot string, cfg gconfig.GameConfig) error {
	exePath := filepath.Join(gameRoot, filepath.FromSlash(cfg.RelativeExePath))
	if _, err := os.Stat(exePath); err != nil {
		return domainerr.Wrap(domainerr.PlayMissingGameExecutable, cfg.RelativeExePath)
	}
	for _, rel := range cfg.IntegrityFiles {
		p := filepath.Join(gameRoot, filepath.FromSlash(rel))
		if _, err := os.Stat(p); err != nil {
			return domainerr.Wrap(domainerr.PlayIntegrityCheckFailed, rel)
		}
	}
	return nil
}

func importRegistry(regText, prefixPath string, envPairs []procexec.EnvPair, dryRun bool) error {
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

func applyDriveMappings(prefixPath, gameRoot string, drives []gconfig.WineDriveMapping) error {
	for _, drive := range drives {
		if !drive.State.Enabled() {
			continue
		}
		hostPath := filepath.Join(gameRoot, filepath.FromSlash(drive.SourceRelativePath))
		if drive.HostPath != nil && *drive.HostPath != "" {
			hostPath = *drive.HostPath
		}
		dosdevices := filepath.Join(prefixPath, "dosdevices")
		if err := os.MkdirAll(dosdevices, 0o755); err != nil {
			return err
		}
		link := filepath.Join(dosdevices, strings.ToLower(drive.Letter)+":")
		_ = os.Remove(link)
		if err := os.Symlink(hostPath, link); err != nil {
			return err
		}
	}
	return nil
}

func applyFolderMounts(gameRoot, prefixPath string, mounts []gconfig.FolderMount) error {
	for _, mount := range mounts {
		sourcePath := filepath.Join(gameRoot, filepath.FromSlash(mount.SourceRelativePath))
		if mount.CreateSourceIfMissing {
			if err := os.MkdirAll(sourcePath, 0o755); err != nil {
				return err
			}
		}
		if _, err := os.Stat(sourcePath); err != nil {
			return err
		}

		drive, rest, ok := strings.Cut(mount.TargetWindowsPath, `:\`)
		if !ok {
			continue
		}
		dosdevices := filepath.Join(prefixPath, "dosdevices")
		if err := os.MkdirAll(dosdevices, 0o755); err != nil {
			return err
		}
		targetDir := filepath.Join(dosdevices, strings.ToLower(drive)+":", filepath.FromSlash(strings.ReplaceAll(rest, `\`, "/")))
		if err := os.MkdirAll(filepath.Dir(targetDir), 0o755); err != nil {
			return err
		}
		_ = os.Remove(targetDir)
		if err := os.Symlink(sourcePath, targetDir); err != nil {
			return err
		}
	}
	return nil
}

func assembleLaunchCommand(cfg *gconfig.GameConfig, report doctor.Report, gameRoot string) ([]string, error) {
	exePath := filepath.Join(gameRoot, filepath.FromSlash(cfg.RelativeExePath))

	var command []string
	switch {
	case report.Runtime.SelectedRuntime != nil && *report.Runtime.SelectedRuntime == gconfig.ProtonUmu && report.Runtime.UmuRun != nil:
		command = append(command, *report.Runtime.UmuRun, exePath)
	case report.Runtime.SelectedRuntime != nil && *report.Runtime.SelectedRuntime == gconfig.ProtonNative && report.Runtime.Proton != nil:
		command = append(command, *report.Runtime.Proton, "waitforexitandrun", exePath)
	case report.Runtime.SelectedRuntime != nil && *report.Runtime.SelectedRuntime == gconfig.Wine && report.Runtime.Wine != nil:
		command = append(command, *report.Runtime.Wine, exePath)
	default:
		return nil, fmt.Errorf("no runtime candidate available")
	}
	command = append(command, cfg.LaunchArgs...)

	for i := len(cfg.Compatibility.WrapperCommands) - 1; i >= 0; i-- {
		wrapper := cfg.Compatibility.WrapperCommands[i]
		if !wrapper.State.Enabled() {
			continue
		}
		wrapped := append([]string{wrapper.Executable}, strings.Fields(wrapper.Args)...)
		command = append(wrapped, command...)
	}

	if cfg.Requirements.Gamemode.Enabled() {
		if _, found := dependencyPath(report, "gamemoderun"); found {
			command = append([]string{"gamemoderun"}, command...)
		}
	}
	if cfg.Requirements.Mangohud.Enabled() {
		if _, found := dependencyPath(report, "mangohud"); found {
			command = append([]string{"mangohud"}, command...)
		}
	}

	result := gamescope.ApplyIfEnabled(cfg, report, command)
	return result.CommandTokens, nil
}

func dependencyPath(report doctor.Report, name string) (string, bool) {
	for _, dep := range report.Dependencies {
		if dep.Name == name && dep.Found && dep.ResolvedPath != nil {
			return *dep.ResolvedPath, true
		}
	}
	return "", false
}

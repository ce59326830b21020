// Package procexec spawns external processes with per-command timeouts,
// inherited stdio, outcome classification, and mandatory-failure
// short-circuiting across a plan (C7).
package procexec

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/luthier-run/orchestrator/internal/prefix"
	"golang.org/x/sys/unix"
)

type StepStatus string

const (
	Skipped StepStatus = "Skipped"
	Success StepStatus = "Success"
	Failed  StepStatus = "Failed"
	TimedOut StepStatus = "TimedOut"
)

// Result is the outcome of running (or skipping) one PlannedCommand.
type Result struct {
	Name       string     `json:"name"`
	Program    string     `json:"program"`
	Args       []string   `json:"args"`
	Mandatory  bool       `json:"mandatory"`
	Status     StepStatus `json:"status"`
	ExitCode   *int       `json:"exit_code"`
	DurationMs int64      `json:"duration_ms"`
	Error      *string    `json:"error"`
}

// EnvPair mirrors prefix.EnvPair so callers outside the prefix package
// don't need to import it just to build an environment list.
type EnvPair = prefix.EnvPair

func errPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func skippedResult(cmd prefix.PlannedCommand, reason string) Result {
	return Result{
		Name: cmd.Name, Program: cmd.Program, Args: cmd.Args, Mandatory: cmd.Mandatory,
		Status: Skipped, Error: errPtr(reason),
	}
}

// ExecutePlan runs a prefix.Plan's commands sequentially. A mandatory
// command that fails or times out halts the remaining plan; subsequent
// entries are reported Skipped.
func ExecutePlan(plan prefix.Plan, envPairs []EnvPair, dryRun bool) []Result {
	var results []Result
	stop := false

	for _, cmd := range plan.Commands {
		if stop {
			results = append(results, skippedResult(cmd, "skipped due to prior mandatory failure"))
			continue
		}

		result := RunCommand(cmd, envPairs, "", dryRun)

		failed := result.Status == Failed || result.Status == TimedOut
		if failed && result.Mandatory {
			stop = true
		}

		results = append(results, result)
	}

	return results
}

// HasMandatoryFailures reports whether any mandatory step in results
// failed or timed out.
func HasMandatoryFailures(results []Result) bool {
	for _, r := range results {
		if r.Mandatory && (r.Status == Failed || r.Status == TimedOut) {
			return true
		}
	}
	return false
}

// RunCommand spawns a single PlannedCommand, inheriting stdio, with cwd
// applied when non-empty. It runs the child in its own process group so a
// timeout kill reaps wrapper chains (gamescope -- mangohud -- wine ...) in
// full, not just the direct child. When dryRun is true nothing is
// spawned and the result is reported Skipped.
func RunCommand(cmd prefix.PlannedCommand, envPairs []EnvPair, cwd string, dryRun bool) Result {
	if dryRun {
		return skippedResult(cmd, "dry-run mode")
	}

	start := time.Now()

	process := exec.Command(cmd.Program, cmd.Args...)
	process.Stdout = os.Stdout
	process.Stderr = os.Stderr
	process.Stdin = os.Stdin
	if cwd != "" {
		process.Dir = cwd
	}
	process.Env = os.Environ()
	for _, pair := range envPairs {
		process.Env = append(process.Env, pair.Key+"="+pair.Value)
	}
	process.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := process.Start(); err != nil {
		return Result{
			Name: cmd.Name, Program: cmd.Program, Args: cmd.Args, Mandatory: cmd.Mandatory,
			Status: Failed, DurationMs: time.Since(start).Milliseconds(), Error: errPtr(err.Error()),
		}
	}

	done := make(chan error, 1)
	go func() { done <- process.Wait() }()

	finish := func(err error) Result {
		duration := time.Since(start).Milliseconds()
		if err == nil {
			code := process.ProcessState.ExitCode()
			return Result{
				Name: cmd.Name, Program: cmd.Program, Args: cmd.Args, Mandatory: cmd.Mandatory,
				Status: Success, ExitCode: intPtr(code), DurationMs: duration,
			}
		}
		code := -1
		if process.ProcessState != nil {
			code = process.ProcessState.ExitCode()
		}
		return Result{
			Name: cmd.Name, Program: cmd.Program, Args: cmd.Args, Mandatory: cmd.Mandatory,
			Status: Failed, ExitCode: intPtr(code), DurationMs: duration, Error: errPtr(err.Error()),
		}
	}

	// TimeoutSecs == 0 means run unbounded in the foreground (the game
	// launch and winecfg commands both rely on this): don't arm a timer.
	if cmd.TimeoutSecs <= 0 {
		return finish(<-done)
	}

	timeout := time.Duration(cmd.TimeoutSecs) * time.Second
	select {
	case err := <-done:
		return finish(err)
	case <-time.After(timeout):
		killProcessGroup(process)
		<-done
		return Result{
			Name: cmd.Name, Program: cmd.Program, Args: cmd.Args, Mandatory: cmd.Mandatory,
			Status: TimedOut, DurationMs: time.Since(start).Milliseconds(),
			Error: errPtr("timeout after " + timeout.String()),
		}
	}
}

func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err != nil {
		_ = cmd.Process.Kill()
		return
	}
	_ = unix.Kill(-pgid, unix.SIGKILL)
}

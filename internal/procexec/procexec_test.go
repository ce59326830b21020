package procexec

import (
	"testing"

	"github.com/luthier-run/orchestrator/internal/prefix"
	"github.com/stretchr/testify/require"
)

func TestDryRunMarksStepsAsSkipped(t *testing.T) {
	plan := prefix.Plan{
		PrefixPath: "/tmp/prefix",
		NeedsInit:  true,
		Commands: []prefix.PlannedCommand{{
			Name: "dummy", Program: "echo", Args: []string{"hello"}, TimeoutSecs: 1, Mandatory: true,
		}},
	}

	results := ExecutePlan(plan, nil, true)
	require.Len(t, results, 1)
	require.Equal(t, Skipped, results[0].Status)
}

func TestMandatoryFailureSkipsRemainingSteps(t *testing.T) {
	plan := prefix.Plan{
		Commands: []prefix.PlannedCommand{
			{Name: "fails", Program: "false", TimeoutSecs: 5, Mandatory: true},
			{Name: "never-runs", Program: "true", TimeoutSecs: 5, Mandatory: false},
		},
	}

	results := ExecutePlan(plan, nil, false)
	require.Len(t, results, 2)
	require.Equal(t, Failed, results[0].Status)
	require.Equal(t, Skipped, results[1].Status)
	require.True(t, HasMandatoryFailures(results))
}

func TestSuccessfulCommandReportsExitCodeZero(t *testing.T) {
	result := RunCommand(prefix.PlannedCommand{Name: "ok", Program: "true", TimeoutSecs: 5}, nil, "", false)
	require.Equal(t, Success, result.Status)
	require.NotNil(t, result.ExitCode)
	require.Equal(t, 0, *result.ExitCode)
}

func TestTimeoutKillsProcess(t *testing.T) {
	result := RunCommand(prefix.PlannedCommand{Name: "slow", Program: "sleep", Args: []string{"5"}, TimeoutSecs: 1}, nil, "", false)
	require.Equal(t, TimedOut, result.Status)
}

func TestZeroTimeoutRunsUnboundedInForeground(t *testing.T) {
	result := RunCommand(prefix.PlannedCommand{Name: "instant", Program: "true", TimeoutSecs: 0}, nil, "", false)
	require.Equal(t, Success, result.Status)
	require.NotNil(t, result.ExitCode)
	require.Equal(t, 0, *result.ExitCode)
}

func TestDryRunSkipsRunCommandWithoutSpawning(t *testing.T) {
	result := RunCommand(prefix.PlannedCommand{Name: "never-spawned", Program: "false", TimeoutSecs: 5}, nil, "", true)
	require.Equal(t, Skipped, result.Status)
}

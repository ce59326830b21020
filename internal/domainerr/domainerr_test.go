package domainerr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindExposesStableCodeAndMessage(t *testing.T) {
	require.Equal(t, "PLAY_INSTANCE_LOCKED", PlayInstanceAlreadyRunning.Code())
	require.Equal(t, "another orchestrator instance is already running", PlayInstanceAlreadyRunning.Message())
	require.Equal(t, FlowPlay, PlayInstanceAlreadyRunning.Flow())
}

func TestWrapPreservesCodeAndAddsContext(t *testing.T) {
	err := Wrap(PlayMissingGameExecutable, "game.exe")
	require.Equal(t, "PLAY_MISSING_EXECUTABLE", err.Code())
	require.Contains(t, err.Error(), "game.exe")
	require.Contains(t, err.Error(), "PLAY_MISSING_EXECUTABLE")
}

func TestNewCarriesKindWithoutContext(t *testing.T) {
	err := New(WinecfgCommandFailed)
	require.Equal(t, "WINECFG_COMMAND_FAILED", err.Code())
	require.Equal(t, WinecfgCommandFailed, err.Kind())
}

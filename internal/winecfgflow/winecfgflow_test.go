package winecfgflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/trailer"
	"github.com/stretchr/testify/require"
)

func writeLauncher(t *testing.T, cfg gconfig.GameConfig) string {
	t.Helper()
	cfg.ApplyDefaults()
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	dir := t.TempDir()
	selfPath := filepath.Join(dir, "launcher")
	require.NoError(t, os.WriteFile(selfPath, trailer.Append([]byte("base"), body), 0o755))
	return selfPath
}

func TestExecuteFailsWhenTrailerMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	selfPath := filepath.Join(dir, "launcher")
	require.NoError(t, os.WriteFile(selfPath, []byte("no trailer here"), 0o755))

	_, err := Execute(Options{SelfPath: selfPath})
	require.Error(t, err)
}

func TestExecuteReportsDoctorBlockedWithoutRunningWinecfg(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := gconfig.GameConfig{
		ExeHash:         "abc123",
		RelativeExePath: "game.exe",
		Requirements: gconfig.RequirementsConfig{
			Runtime: gconfig.RuntimePolicy{Strict: true, Primary: gconfig.ProtonNative},
		},
	}
	selfPath := writeLauncher(t, cfg)

	result, err := Execute(Options{SelfPath: selfPath, DryRun: true})
	require.Error(t, err)
	require.Equal(t, "aborted", result.WinecfgStatus)
	require.NotNil(t, result.TerminalError)
}

func TestImportRegistryDryRunDoesNotTouchFilesystem(t *testing.T) {
	before, err := filepath.Glob(filepath.Join(os.TempDir(), "luthier-run-*.reg"))
	require.NoError(t, err)

	require.NoError(t, importRegistry(`[HKEY_CURRENT_USER]`, nil, true))

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "luthier-run-*.reg"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

package playflow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/trailer"
	"github.com/stretchr/testify/require"
)

func TestCheckIntegrityFailsWhenExecutableMissing(t *testing.T) {
	dir := t.TempDir()
	cfg := gconfig.GameConfig{RelativeExePath: "game.exe"}

	err := checkIntegrity(dir, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PLAY_MISSING_EXECUTABLE")
}

func TestCheckIntegrityFailsWhenIntegrityFileMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.exe"), []byte("x"), 0o644))
	cfg := gconfig.GameConfig{RelativeExePath: "game.exe", IntegrityFiles: []string{"data.pak"}}

	err := checkIntegrity(dir, cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "PLAY_INTEGRITY_FAILED")
}

func TestCheckIntegrityPassesWhenAllFilesPresent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.exe"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.pak"), []byte("x"), 0o644))
	cfg := gconfig.GameConfig{RelativeExePath: "game.exe", IntegrityFiles: []string{"data.pak"}}

	require.NoError(t, checkIntegrity(dir, cfg))
}

func TestApplyFolderMountsCreatesSymlinkUnderDosdevices(t *testing.T) {
	gameRoot := t.TempDir()
	prefixPath := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(gameRoot, "saves"), 0o755))

	mounts := []gconfig.FolderMount{{
		SourceRelativePath: "saves",
		TargetWindowsPath:  `Z:\mygame\saves`,
	}}

	require.NoError(t, applyFolderMounts(gameRoot, prefixPath, mounts))

	linkPath := filepath.Join(prefixPath, "dosdevices", "z:", "mygame", "saves")
	info, err := os.Lstat(linkPath)
	require.NoError(t, err)
	require.True(t, info.Mode()&os.ModeSymlink != 0)
}

func TestApplyDriveMappingsSkipsDisabledDrives(t *testing.T) {
	prefixPath := t.TempDir()
	drives := []gconfig.WineDriveMapping{{Letter: "D", State: gconfig.OptionalOff}}

	require.NoError(t, applyDriveMappings(prefixPath, t.TempDir(), drives))
	_, err := os.Lstat(filepath.Join(prefixPath, "dosdevices", "d:"))
	require.True(t, os.IsNotExist(err))
}

func TestAssembleLaunchCommandUsesWineWhenSelected(t *testing.T) {
	gameRoot := t.TempDir()
	cfg := &gconfig.GameConfig{RelativeExePath: "game.exe", LaunchArgs: []string{"-windowed"}}

	winePath := "/usr/bin/wine"
	runtime := gconfig.Wine
	report := doctor.Report{Runtime: doctor.RuntimeDiscovery{SelectedRuntime: &runtime, Wine: &winePath}}

	command, err := assembleLaunchCommand(cfg, report, gameRoot)
	require.NoError(t, err)
	require.Equal(t, winePath, command[0])
	require.Contains(t, command, "-windowed")
}

func TestAssembleLaunchCommandFailsWithoutRuntimeCandidate(t *testing.T) {
	cfg := &gconfig.GameConfig{RelativeExePath: "game.exe"}
	_, err := assembleLaunchCommand(cfg, doctor.Report{}, t.TempDir())
	require.Error(t, err)
}

func TestAssembleLaunchCommandNestsWrapperInsideGamemodeAndMangohud(t *testing.T) {
	gameRoot := t.TempDir()
	cfg := &gconfig.GameConfig{
		RelativeExePath: "game.exe",
		Requirements: gconfig.RequirementsConfig{
			Gamemode: gconfig.OptionalOn,
			Mangohud: gconfig.OptionalOn,
		},
		Compatibility: gconfig.CompatibilityConfig{
			WrapperCommands: []gconfig.WrapperCommand{
				{State: gconfig.OptionalOn, Executable: "strace", Args: "-f"},
			},
		},
	}

	winePath := "/usr/bin/wine"
	runtime := gconfig.Wine
	gamemodePath := "/usr/bin/gamemoderun"
	mangohudPath := "/usr/bin/mangohud"
	report := doctor.Report{
		Runtime: doctor.RuntimeDiscovery{SelectedRuntime: &runtime, Wine: &winePath},
		Dependencies: []doctor.DependencyStatus{
			{Name: "gamemoderun", Found: true, ResolvedPath: &gamemodePath},
			{Name: "mangohud", Found: true, ResolvedPath: &mangohudPath},
		},
	}

	command, err := assembleLaunchCommand(cfg, report, gameRoot)
	require.NoError(t, err)

	indexOf := func(token string) int {
		for i, v := range command {
			if v == token {
				return i
			}
		}
		return -1
	}

	straceIdx := indexOf("strace")
	wineIdx := indexOf(winePath)
	gamemodeIdx := indexOf("gamemoderun")
	mangohudIdx := indexOf("mangohud")

	require.NotEqual(t, -1, straceIdx)
	require.NotEqual(t, -1, wineIdx)
	require.NotEqual(t, -1, gamemodeIdx)
	require.NotEqual(t, -1, mangohudIdx)

	// mangohud wraps gamemoderun wraps the wrapper command wraps the runtime:
	// mangohud gamemoderun strace -f wine game.exe
	require.Less(t, mangohudIdx, gamemodeIdx)
	require.Less(t, gamemodeIdx, straceIdx)
	require.Less(t, straceIdx, wineIdx)
}

func TestImportRegistryDryRunDoesNotTouchFilesystem(t *testing.T) {
	before, err := filepath.Glob(filepath.Join(os.TempDir(), "luthier-run-*.reg"))
	require.NoError(t, err)

	require.NoError(t, importRegistry(`[HKEY_CURRENT_USER]`, "/tmp/prefix", nil, true))

	after, err := filepath.Glob(filepath.Join(os.TempDir(), "luthier-run-*.reg"))
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestExecuteFailsWhenTrailerMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	selfPath := filepath.Join(dir, "launcher")
	require.NoError(t, os.WriteFile(selfPath, []byte("not a valid launcher binary"), 0o755))

	result, err := Execute(Options{SelfPath: selfPath})
	require.Error(t, err)
	require.NotNil(t, result.TerminalError)
	require.Equal(t, "PLAY_LOAD_PAYLOAD_FAILED", *result.TerminalError)
}

func TestExecuteFailsIntegrityWhenExecutableMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	selfPath := filepath.Join(dir, "launcher")

	cfg := gconfig.GameConfig{ExeHash: "deadbeefcafef00d", RelativeExePath: "missing.exe"}
	cfg.ApplyDefaults()
	body, err := json.Marshal(cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(selfPath, trailer.Append([]byte("base"), body), 0o755))

	result, err := Execute(Options{SelfPath: selfPath})
	require.Error(t, err)
	require.Equal(t, "PLAY_MISSING_EXECUTABLE", *result.TerminalError)
}

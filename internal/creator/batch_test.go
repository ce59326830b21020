package creator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, name string, cfg gconfig.GameConfig) string {
	t.Helper()
	body, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func TestBatchCreateProducesOneOutputPerConfig(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base")
	require.NoError(t, os.WriteFile(basePath, []byte("base"), 0o644))

	configDir := filepath.Join(dir, "configs")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	writeConfigFile(t, configDir, "titlea.json", gconfig.GameConfig{RelativeExePath: "a.exe"})
	writeConfigFile(t, configDir, "titleb.json", gconfig.GameConfig{RelativeExePath: "b.exe"})

	outputDir := filepath.Join(dir, "out")
	items, err := BatchCreate(basePath, configDir, outputDir, false, false)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		require.Nil(t, item.Error)
		require.NotNil(t, item.Result)
		_, statErr := os.Stat(item.OutputPath)
		require.NoError(t, statErr)
	}
}

func TestBatchCreateReportsPerItemFailureWithoutAbortingOthers(t *testing.T) {
	dir := t.TempDir()
	basePath := filepath.Join(dir, "base")
	require.NoError(t, os.WriteFile(basePath, []byte("base"), 0o644))

	configDir := filepath.Join(dir, "configs")
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	writeConfigFile(t, configDir, "bad.json", gconfig.GameConfig{RelativeExePath: "../escape.exe"})
	writeConfigFile(t, configDir, "good.json", gconfig.GameConfig{RelativeExePath: "good.exe"})

	items, err := BatchCreate(basePath, configDir, filepath.Join(dir, "out"), false, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].Error)
	require.Nil(t, items[0].Result)

	require.Nil(t, items[1].Error)
	require.NotNil(t, items[1].Result)
}

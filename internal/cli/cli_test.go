package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/overrides"
	"github.com/luthier-run/orchestrator/internal/trailer"
	"github.com/stretchr/testify/require"
)

func writeEmbeddedLauncher(t *testing.T, cfg gconfig.GameConfig) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "game-launcher")

	configBytes, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, trailer.Append([]byte("base"), configBytes), 0o755))
	return path
}

func runCapturingStdout(t *testing.T, opts Options, selfPath string) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	runErr := Run(opts, selfPath)
	os.Stdout = orig
	require.NoError(t, w.Close())
	var out bytes.Buffer
	_, err = out.ReadFrom(r)
	require.NoError(t, err)
	require.NoError(t, runErr)
	return out.String()
}

func TestParseRecognizesBooleanFlags(t *testing.T) {
	var out bytes.Buffer
	opts, err := Parse([]string{"--doctor", "--verbose"}, &out)
	require.NoError(t, err)
	require.True(t, opts.Doctor)
	require.True(t, opts.Verbose)
}

func TestParseCollectsFeatureToggles(t *testing.T) {
	var out bytes.Buffer
	opts, err := Parse([]string{"--config", "--set-mangohud", "on", "--set-gamescope", "off"}, &out)
	require.NoError(t, err)
	require.Equal(t, overrides.On, opts.Sets["mangohud"])
	require.Equal(t, overrides.Off, opts.Sets["gamescope"])
}

func TestParseRejectsInvalidToggleValue(t *testing.T) {
	var out bytes.Buffer
	_, err := Parse([]string{"--set-mangohud", "maybe"}, &out)
	require.ErrorIs(t, err, ErrUsage)
}

func TestParseRejectsUnknownFlag(t *testing.T) {
	var out bytes.Buffer
	_, err := Parse([]string{"--not-a-real-flag"}, &out)
	require.ErrorIs(t, err, ErrUsage)
}

func TestRunShowPayloadMasksHeroImageHintByDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	selfPath := writeEmbeddedLauncher(t, gconfig.GameConfig{GameName: "Example", ExeHash: "abc"})

	opts := Options{ShowPayload: true}
	out := runCapturingStdout(t, opts, selfPath)
	require.Contains(t, out, heroImageMaskedHint)
}

func TestRunSavePayloadWritesFileNextToBinary(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	selfPath := writeEmbeddedLauncher(t, gconfig.GameConfig{GameName: "Example", ExeHash: "abc"})

	require.NoError(t, Run(Options{SavePayload: true}, selfPath))

	saved, err := os.ReadFile(filepath.Join(filepath.Dir(selfPath), "luthier-payload.json"))
	require.NoError(t, err)

	var roundTripped gconfig.GameConfig
	require.NoError(t, json.Unmarshal(saved, &roundTripped))
	require.Equal(t, "Example", roundTripped.GameName)
}

func TestRunConfigPersistsToggleAndPrintsViews(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := gconfig.GameConfig{
		GameName: "Example",
		ExeHash:  "deadbeefdeadbeefdeadbeefdeadbeef",
		Requirements: gconfig.RequirementsConfig{
			Mangohud: gconfig.OptionalOn,
		},
	}
	selfPath := writeEmbeddedLauncher(t, cfg)

	opts := Options{Sets: map[string]overrides.Toggle{"mangohud": overrides.Off}}
	out := runCapturingStdout(t, opts, selfPath)
	require.Contains(t, out, `"feature": "mangohud"`)

	store, err := overrides.Load(cfg.ExeHash)
	require.NoError(t, err)
	require.NotNil(t, store.Mangohud)
	require.False(t, *store.Mangohud)
}

func TestRunConfigExportProfileWritesYaml(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := gconfig.GameConfig{GameName: "Example", ExeHash: "cafebabecafebabecafebabecafebabe"}
	selfPath := writeEmbeddedLauncher(t, cfg)

	exportPath := filepath.Join(t.TempDir(), "profile.yaml")
	opts := Options{ExportProfile: exportPath}
	require.NoError(t, Run(opts, selfPath))
	require.FileExists(t, exportPath)
}

package prefix

import (
	"testing"

	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/stretchr/testify/require"
)

func sampleConfig() *gconfig.GameConfig {
	return &gconfig.GameConfig{
		ExeHash:         "abc123",
		RelativeExePath: "./game.exe",
		Requirements: gconfig.RequirementsConfig{
			Winetricks: gconfig.OptionalOff,
			Runtime: gconfig.RuntimePolicy{
				Primary:       gconfig.ProtonNative,
				FallbackOrder: []gconfig.RuntimeCandidate{gconfig.Wine},
			},
		},
	}
}

func TestBuildIncludesWinetricksWhenDependenciesExist(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := sampleConfig()
	cfg.Dependencies = []string{"corefonts"}
	cfg.Requirements.Winetricks = gconfig.MandatoryOn

	plan, err := Build(cfg)
	require.NoError(t, err)

	var found *PlannedCommand
	for i := range plan.Commands {
		if plan.Commands[i].Program == "winetricks" {
			found = &plan.Commands[i]
		}
	}
	require.NotNil(t, found)
	require.True(t, found.Mandatory)
}

func TestBuildSkipsWinetricksWhenPolicyOff(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := sampleConfig()
	cfg.Dependencies = []string{"corefonts"}
	cfg.Requirements.Winetricks = gconfig.OptionalOff

	plan, err := Build(cfg)
	require.NoError(t, err)

	for _, cmd := range plan.Commands {
		require.NotEqual(t, "winetricks", cmd.Program)
	}
	require.Contains(t, plan.Notes[0], "optional-off")
}

func TestBaseEnvContainsWineprefixAndProtonVerb(t *testing.T) {
	env := BaseEnv("/tmp/prefix")
	require.Contains(t, env, EnvPair{Key: "WINEPREFIX", Value: "/tmp/prefix"})
	require.Contains(t, env, EnvPair{Key: "PROTON_VERB", Value: "run"})
}

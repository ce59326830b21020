package doctor

import (
	"testing"

	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/stretchr/testify/require"
)

func TestWorseStatusPrefersBlocker(t *testing.T) {
	require.Equal(t, Blocker, WorseStatus(OK, Blocker))
	require.Equal(t, Warn, WorseStatus(Warn, Info))
}

func TestEvaluatesComponentPolicies(t *testing.T) {
	mandatoryOn := gconfig.MandatoryOn
	missingMandatory := evaluateComponent("gamescope", &mandatoryOn, nil)
	require.Equal(t, Blocker, missingMandatory.Status)

	mandatoryOff := gconfig.MandatoryOff
	forcedOff := evaluateComponent("gamescope", &mandatoryOff, nil)
	require.Equal(t, Info, forcedOff.Status)
}

func TestReorderCandidatesPrioritizesPreferredEntries(t *testing.T) {
	base := []gconfig.RuntimeCandidate{gconfig.ProtonNative, gconfig.Wine, gconfig.ProtonUmu}
	reordered := ReorderCandidates(base, []gconfig.RuntimeCandidate{gconfig.ProtonUmu, gconfig.ProtonNative, gconfig.Wine})
	require.Equal(t, []gconfig.RuntimeCandidate{gconfig.ProtonUmu, gconfig.ProtonNative, gconfig.Wine}, reordered)
}

func TestPreservedDependencyNamesAreIdentified(t *testing.T) {
	for _, name := range []string{"gamemoderun", "gamemode-umu-runtime", "wine-wayland", "hdr", "dxvk-nvapi", "staging"} {
		require.True(t, shouldPreserveDependencyStatus(name))
	}
	for _, name := range []string{"gamescope", "wine", "umu-run", "unknown-component"} {
		require.False(t, shouldPreserveDependencyStatus(name))
	}
}

func TestApplyDependencyStatusPolicyPreservesSpecialNames(t *testing.T) {
	deps := []DependencyStatus{
		{Name: "wine-wayland", Status: OK, Note: "precomputed status must be preserved"},
		{Name: "gamescope", State: featureStatePtr(gconfig.MandatoryOn), Found: false, Status: Info, Note: "stale"},
	}

	evaluated := applyDependencyStatusPolicy(deps)
	require.Equal(t, OK, evaluated[0].Status)
	require.Equal(t, "precomputed status must be preserved", evaluated[0].Note)
	require.Equal(t, Blocker, evaluated[1].Status)
	require.Equal(t, "required but missing", evaluated[1].Note)
}

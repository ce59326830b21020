package doctor

import "github.com/luthier-run/orchestrator/internal/gconfig"

// preservedStatusNames carries statuses computed by specialized probes
// (see dependency_checks.go); the uniform state x found table must not
// clobber them.
var preservedStatusNames = map[string]bool{
	"gamemoderun":          true,
	"gamemode-umu-runtime": true,
	"wine-wayland":         true,
	"hdr":                  true,
	"dxvk-nvapi":           true,
	"staging":              true,
}

func shouldPreserveDependencyStatus(name string) bool {
	return preservedStatusNames[name]
}

// applyDependencyStatusPolicy remaps every non-preserved dependency's
// status/note from its (state, found) pair.
func applyDependencyStatusPolicy(deps []DependencyStatus) []DependencyStatus {
	for i := range deps {
		if shouldPreserveDependencyStatus(deps[i].Name) {
			continue
		}
		status, note := mapFeatureStateAndPresenceToStatus(deps[i].State, deps[i].Found)
		deps[i].Status = status
		deps[i].Note = note
	}
	return deps
}

func mapFeatureStateAndPresenceToStatus(state *gconfig.FeatureState, found bool) (CheckStatus, string) {
	if state == nil {
		if found {
			return OK, "available"
		}
		return Warn, "not found"
	}

	switch *state {
	case gconfig.MandatoryOn:
		if found {
			return OK, "required and available"
		}
		return Blocker, "required but missing"
	case gconfig.MandatoryOff:
		return Info, "forced off by policy"
	case gconfig.OptionalOn:
		if found {
			return OK, "enabled in payload and available"
		}
		return Warn, "enabled in payload but missing"
	case gconfig.OptionalOff:
		if found {
			return Info, "not required by current payload (available)"
		}
		return Info, "not required by current payload (missing)"
	default:
		if found {
			return OK, "available"
		}
		return Warn, "not found"
	}
}

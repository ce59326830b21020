package doctor

import (
	"fmt"

	"github.com/luthier-run/orchestrator/internal/gconfig"
)

func candidateAvailable(candidate gconfig.RuntimeCandidate, hasProton, hasWine, hasUmu bool) bool {
	switch candidate {
	case gconfig.ProtonUmu:
		return hasUmu && hasProton
	case gconfig.ProtonNative:
		return hasProton
	case gconfig.Wine:
		return hasWine
	default:
		return false
	}
}

func pushUniqueCandidate(out []gconfig.RuntimeCandidate, c gconfig.RuntimeCandidate) []gconfig.RuntimeCandidate {
	for _, existing := range out {
		if existing == c {
			return out
		}
	}
	return append(out, c)
}

// ReorderCandidates moves every candidate from preferredOrder that is
// present in base to the front, preserving base's relative order for the
// remainder.
func ReorderCandidates(base, preferredOrder []gconfig.RuntimeCandidate) []gconfig.RuntimeCandidate {
	var out []gconfig.RuntimeCandidate
	inBase := func(c gconfig.RuntimeCandidate) bool {
		for _, b := range base {
			if b == c {
				return true
			}
		}
		return false
	}

	for _, preferred := range preferredOrder {
		if inBase(preferred) {
			out = pushUniqueCandidate(out, preferred)
		}
	}
	for _, c := range base {
		out = pushUniqueCandidate(out, c)
	}
	return out
}

func effectiveRuntimeCandidates(cfg *gconfig.GameConfig) []gconfig.RuntimeCandidate {
	var base []gconfig.RuntimeCandidate
	base = pushUniqueCandidate(base, cfg.Requirements.Runtime.Primary)
	for _, c := range cfg.Requirements.Runtime.FallbackOrder {
		base = pushUniqueCandidate(base, c)
	}

	switch cfg.Runner.RuntimePreference {
	case gconfig.PreferenceProton:
		return ReorderCandidates(base, []gconfig.RuntimeCandidate{gconfig.ProtonUmu, gconfig.ProtonNative, gconfig.Wine})
	case gconfig.PreferenceWine:
		return ReorderCandidates(base, []gconfig.RuntimeCandidate{gconfig.Wine, gconfig.ProtonUmu, gconfig.ProtonNative})
	default:
		return base
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func evaluateRuntime(cfg *gconfig.GameConfig, proton, wine, umuRun *string, requestedProtonVersion string, protonVersionMatched bool) RuntimeDiscovery {
	hasProton := proton != nil
	hasWine := wine != nil
	hasUmu := umuRun != nil

	if cfg != nil {
		strict := cfg.Requirements.Runtime.Strict
		candidates := effectiveRuntimeCandidates(cfg)

		var selected *gconfig.RuntimeCandidate
		if strict {
			if len(candidates) > 0 && candidateAvailable(candidates[0], hasProton, hasWine, hasUmu) {
				c := candidates[0]
				selected = &c
			}
		} else {
			for _, c := range candidates {
				if candidateAvailable(c, hasProton, hasWine, hasUmu) {
					cc := c
					selected = &cc
					break
				}
			}
		}

		protonSelected := selected != nil && (*selected == gconfig.ProtonNative || *selected == gconfig.ProtonUmu)

		var status CheckStatus
		var note string
		switch {
		case selected == nil:
			status, note = Blocker, "no runtime candidate available with current policy"
		case protonSelected:
			status, note = protonVersionNote(requestedProtonVersion, proton, protonVersionMatched, strict, "runtime candidate selected", "runtime candidate selected")
		default:
			status, note = OK, "runtime candidate selected"
		}

		return RuntimeDiscovery{
			Proton: proton, Wine: wine, UmuRun: umuRun,
			SelectedRuntime: selected, RuntimeStatus: status, RuntimeNote: note,
		}
	}

	var selected *gconfig.RuntimeCandidate
	switch {
	case hasUmu && hasProton:
		c := gconfig.ProtonUmu
		selected = &c
	case hasProton:
		c := gconfig.ProtonNative
		selected = &c
	case hasWine:
		c := gconfig.Wine
		selected = &c
	}

	var status CheckStatus
	var note string
	switch {
	case selected == nil:
		status, note = Warn, "no runtime discovered (doctor without embedded config)"
	case *selected == gconfig.ProtonNative || *selected == gconfig.ProtonUmu:
		status, note = protonVersionNote(requestedProtonVersion, proton, protonVersionMatched, false, "runtime discovered", "runtime discovered")
	default:
		status, note = OK, "runtime discovered"
	}

	return RuntimeDiscovery{
		Proton: proton, Wine: wine, UmuRun: umuRun,
		SelectedRuntime: selected, RuntimeStatus: status, RuntimeNote: note,
	}
}

func protonVersionNote(requested string, selectedPath *string, matched, strict bool, okDefault, warnDefault string) (CheckStatus, string) {
	if requested == "" || selectedPath == nil {
		return OK, okDefault
	}

	if matched {
		return OK, fmt.Sprintf("runtime candidate selected (requested proton version '%s' found at %s)", requested, *selectedPath)
	}

	if strict {
		return Blocker, fmt.Sprintf("requested proton version '%s' not found and runtime strict mode is enabled (fallback candidate path: %s)", requested, *selectedPath)
	}

	return Warn, fmt.Sprintf("requested proton version '%s' not found; using fallback proton at %s", requested, *selectedPath)
}

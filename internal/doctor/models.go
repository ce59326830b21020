// Package doctor probes the host for Proton/Wine/umu/gamescope/gamemode/
// mangohud, selects a runtime candidate, and grades every dependency the
// configuration declares (C5).
package doctor

import "github.com/luthier-run/orchestrator/internal/gconfig"

// CheckStatus is the severity of a single doctor finding.
type CheckStatus string

const (
	Info    CheckStatus = "INFO"
	OK      CheckStatus = "OK"
	Warn    CheckStatus = "WARN"
	Blocker CheckStatus = "BLOCKER"
)

func rank(s CheckStatus) int {
	switch s {
	case Blocker:
		return 3
	case Warn:
		return 2
	case OK:
		return 1
	default:
		return 0
	}
}

// WorseStatus returns the more severe of a and b under
// INFO < OK < WARN < BLOCKER.
func WorseStatus(a, b CheckStatus) CheckStatus {
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

// DependencyStatus is the graded presence/policy outcome for one capability.
type DependencyStatus struct {
	Name         string                `json:"name"`
	State        *gconfig.FeatureState `json:"state"`
	Status       CheckStatus           `json:"status"`
	Found        bool                  `json:"found"`
	ResolvedPath *string               `json:"resolved_path"`
	Note         string                `json:"note"`
}

// RuntimeDiscovery carries the resolved tool paths plus the selected
// runtime candidate and its status.
type RuntimeDiscovery struct {
	Proton              *string                   `json:"proton"`
	Wine                *string                   `json:"wine"`
	UmuRun              *string                   `json:"umu_run"`
	SelectedRuntime     *gconfig.RuntimeCandidate `json:"selected_runtime"`
	RuntimeStatus       CheckStatus               `json:"runtime_status"`
	RuntimeNote         string                    `json:"runtime_note"`
}

// Report is the full doctor output (C5).
type Report struct {
	GeneratedAt        string             `json:"generated_at"`
	HasEmbeddedConfig  bool               `json:"has_embedded_config"`
	Runtime            RuntimeDiscovery   `json:"runtime"`
	Dependencies       []DependencyStatus `json:"dependencies"`
	Summary            CheckStatus        `json:"summary"`
}

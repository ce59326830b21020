package doctor

import (
	"strings"
	"time"

	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// RunDoctor probes the host and grades every dependency against an
// optional embedded configuration. A nil config runs the no-payload
// discovery path: runtimes are probed but no policy is applied.
func RunDoctor(cfg *gconfig.GameConfig) Report {
	var requestedProtonVersion string
	if cfg != nil {
		requestedProtonVersion = strings.TrimSpace(cfg.Runner.ProtonVersion)
	}

	protonPath, protonVersionMatched := discoverProtonWithPreference(requestedProtonVersion)
	winePath := discoverWine()
	umuPath := discoverUmu()

	runtime := evaluateRuntime(cfg, protonPath, winePath, umuPath, requestedProtonVersion, protonVersionMatched)

	dependencies := applyDependencyStatusPolicy(evaluateDependencies(cfg, runtime))

	summary := runtime.RuntimeStatus
	for _, dep := range dependencies {
		summary = WorseStatus(summary, dep.Status)
	}

	return Report{
		GeneratedAt:       time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		HasEmbeddedConfig: cfg != nil,
		Runtime:           runtime,
		Dependencies:      dependencies,
		Summary:           summary,
	}
}

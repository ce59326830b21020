package creator

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/prefix"
)

// Report is the output of the `test` subcommand: validate the config,
// report any missing game-root files, and run the doctor/prefix planner
// against it without creating anything.
type Report struct {
	Status       string        `json:"status"`
	MissingFiles []string      `json:"missing_files"`
	Doctor       doctor.Report `json:"doctor"`
	PrefixSetup  prefix.Plan   `json:"prefix_setup_plan"`
}

// Test validates cfg, checks relative_exe_path and integrity_files against
// gameRoot, and runs the doctor and prefix planner the same way the play
// flow's early steps would, without touching any persisted state.
func Test(cfg gconfig.GameConfig, gameRoot string) (Report, error) {
	cfg.ApplyDefaults()
	if err := ValidateGameConfig(&cfg); err != nil {
		return Report{}, err
	}

	missing := collectMissingFiles(cfg, gameRoot)
	report := doctor.RunDoctor(&cfg)
	plan, err := prefix.Build(&cfg)
	if err != nil {
		return Report{}, err
	}

	status := "OK"
	if len(missing) > 0 || report.Summary == doctor.Blocker {
		status = "BLOCKER"
	}

	return Report{
		Status:       status,
		MissingFiles: missing,
		Doctor:       report,
		PrefixSetup:  plan,
	}, nil
}

func collectMissingFiles(cfg gconfig.GameConfig, gameRoot string) []string {
	var missing []string

	exePath := resolveRelative(gameRoot, cfg.RelativeExePath)
	if _, err := os.Stat(exePath); err != nil {
		missing = append(missing, cfg.RelativeExePath)
	}

	for _, rel := range cfg.IntegrityFiles {
		p := resolveRelative(gameRoot, rel)
		if _, err := os.Stat(p); err != nil {
			missing = append(missing, rel)
		}
	}

	return missing
}

func resolveRelative(base, relative string) string {
	clean := strings.TrimPrefix(relative, "./")
	return filepath.Join(base, filepath.FromSlash(clean))
}

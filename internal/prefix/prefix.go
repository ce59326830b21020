// Package prefix derives the per-title Wine prefix path and the ordered
// setup command list a play flow must run before launching the game (C6).
package prefix

import (
	"os"
	"path/filepath"

	"github.com/luthier-run/orchestrator/internal/appdirs"
	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// PlannedCommand is one step of a Plan.
type PlannedCommand struct {
	Name         string   `json:"name"`
	Program      string   `json:"program"`
	Args         []string `json:"args"`
	TimeoutSecs  uint64   `json:"timeout_secs"`
	Mandatory    bool     `json:"mandatory"`
}

// Plan is the ordered, annotated command list produced from the
// configuration and consumed by the command executor (C7).
type Plan struct {
	PrefixPath string           `json:"prefix_path"`
	NeedsInit  bool             `json:"needs_init"`
	Commands   []PlannedCommand `json:"commands"`
	Notes      []string         `json:"notes"`
}

// PathForHash returns the prefix directory for a title's exe_hash.
func PathForHash(exeHash string) (string, error) {
	dir, err := appdirs.PrefixesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, exeHash), nil
}

// Build derives the setup plan: wineboot --init when the prefix directory
// does not yet exist (invariant vi), then a winetricks invocation when
// dependencies are declared and policy allows it.
func Build(cfg *gconfig.GameConfig) (Plan, error) {
	prefixPath, err := PathForHash(cfg.ExeHash)
	if err != nil {
		return Plan{}, err
	}

	_, statErr := os.Stat(prefixPath)
	needsInit := os.IsNotExist(statErr)

	var commands []PlannedCommand
	var notes []string

	if needsInit {
		commands = append(commands, PlannedCommand{
			Name:        "wineboot-init",
			Program:     "wineboot",
			Args:        []string{"--init"},
			TimeoutSecs: 120,
			Mandatory:   true,
		})
	}

	if len(cfg.Dependencies) > 0 {
		switch cfg.Requirements.Winetricks {
		case gconfig.MandatoryOn, gconfig.OptionalOn:
			mandatory := cfg.Requirements.Winetricks == gconfig.MandatoryOn
			args := append([]string{"-q"}, cfg.Dependencies...)
			commands = append(commands, PlannedCommand{
				Name:        "winetricks",
				Program:     "winetricks",
				Args:        args,
				TimeoutSecs: 900,
				Mandatory:   mandatory,
			})
		case gconfig.MandatoryOff:
			notes = append(notes, "winetricks disabled by policy; dependencies list will not be installed")
		case gconfig.OptionalOff:
			notes = append(notes, "winetricks optional-off by default; dependencies list not installed unless override is provided")
		}
	}

	if len(cfg.RegistryKeys) > 0 {
		notes = append(notes, "registry_keys present: apply after prefix init")
	}

	return Plan{
		PrefixPath: prefixPath,
		NeedsInit:  needsInit,
		Commands:   commands,
		Notes:      notes,
	}, nil
}

// BaseEnv returns the environment pairs every prefix-scoped command needs.
func BaseEnv(prefixPath string) []EnvPair {
	return []EnvPair{
		{Key: "WINEPREFIX", Value: prefixPath},
		{Key: "PROTON_VERB", Value: "run"},
	}
}

// EnvPair is an ordered (key, value) environment entry; kept as a slice of
// pairs rather than a map so command construction preserves a stable,
// reproducible ordering for tests and logs.
type EnvPair struct {
	Key   string
	Value string
}

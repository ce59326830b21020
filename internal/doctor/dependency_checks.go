package doctor

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// evaluateComponent builds an unpreserved DependencyStatus from a policy
// state and an observed presence, deferring to the shared state x found
// table. Kept as a standalone function so tests can call it directly.
func evaluateComponent(name string, state *gconfig.FeatureState, foundPath *string) DependencyStatus {
	found := foundPath != nil
	status, note := mapFeatureStateAndPresenceToStatus(state, found)
	return DependencyStatus{
		Name:         name,
		State:        state,
		Status:       status,
		Found:        found,
		ResolvedPath: foundPath,
		Note:         note,
	}
}

func featureStatePtr(s gconfig.FeatureState) *gconfig.FeatureState { return &s }

func evaluateDependencies(cfg *gconfig.GameConfig, runtime RuntimeDiscovery) []DependencyStatus {
	var deps []DependencyStatus

	gamescopePath := discoverGamescope()
	mangohudPath := discoverMangohud()
	winetricksPath := discoverWinetricks()
	gamemoderunPath := discoverGamemode()

	if cfg == nil {
		deps = append(deps, evaluateComponent("gamescope", nil, gamescopePath))
		deps = append(deps, evaluateComponent("mangohud", nil, mangohudPath))
		deps = append(deps, evaluateComponent("winetricks", nil, winetricksPath))
		deps = append(deps, DependencyStatus{Name: "gamemoderun", Status: presenceOnlyStatus(gamemoderunPath), Found: gamemoderunPath != nil, ResolvedPath: gamemoderunPath, Note: presenceOnlyNote(gamemoderunPath)})
		return deps
	}

	deps = append(deps, evaluateComponent("gamescope", featureStatePtr(cfg.Requirements.Gamescope), gamescopePath))
	deps = append(deps, evaluateComponent("mangohud", featureStatePtr(cfg.Requirements.Mangohud), mangohudPath))
	deps = append(deps, evaluateComponent("winetricks", featureStatePtr(cfg.Requirements.Winetricks), winetricksPath))
	deps = append(deps, evaluateComponent("umu-run", featureStatePtr(cfg.Requirements.Umu), discoverUmu()))
	deps = append(deps, evaluateComponent("steam_runtime", featureStatePtr(cfg.Requirements.SteamRuntime), steamRuntimeDetected()))
	deps = append(deps, evaluateComponent("easy_anti_cheat_runtime", featureStatePtr(cfg.Compatibility.EasyAntiCheatRuntime), eacRuntimeDetected()))
	deps = append(deps, evaluateComponent("battleye_runtime", featureStatePtr(cfg.Compatibility.BattleyeRuntime), battlEyeRuntimeDetected()))

	deps = append(deps, gamemodeDependencyStatus(cfg, gamemoderunPath))
	deps = append(deps, gamemodeUmuRuntimeDependencyStatus(cfg))
	deps = append(deps, wineWaylandDependencyStatus(cfg))
	deps = append(deps, hdrDependencyStatus(cfg, runtime))
	deps = append(deps, dxvkNvapiDependencyStatus(cfg))
	deps = append(deps, stagingDependencyStatus(cfg))

	for _, sysDep := range cfg.ExtraSystemDependencies {
		deps = append(deps, evaluateSystemDependency(sysDep))
	}

	return deps
}

func presenceOnlyStatus(found *string) CheckStatus {
	if found != nil {
		return OK
	}
	return Warn
}

func presenceOnlyNote(found *string) string {
	if found != nil {
		return "available"
	}
	return "not found"
}

func gamemodeDependencyStatus(cfg *gconfig.GameConfig, gamemoderunPath *string) DependencyStatus {
	state := cfg.Requirements.Gamemode
	found := gamemoderunPath != nil
	status, note := mapFeatureStateAndPresenceToStatus(&state, found)
	return DependencyStatus{Name: "gamemoderun", State: &state, Status: status, Found: found, ResolvedPath: gamemoderunPath, Note: note}
}

func gamemodeUmuRuntimeDependencyStatus(cfg *gconfig.GameConfig) DependencyStatus {
	state := cfg.Requirements.Gamemode
	path := umuBundledGamemodeRuntimePath()
	found := path != nil
	status, note := mapFeatureStateAndPresenceToStatus(&state, found)
	return DependencyStatus{Name: "gamemode-umu-runtime", State: &state, Status: status, Found: found, ResolvedPath: path, Note: note}
}

func umuBundledGamemodeRuntimePath() *string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return nil
	}
	candidate := filepath.Join(home, ".local", "share", "umu", "gamemode")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return strPtr(candidate)
	}
	return nil
}

func wineWaylandDependencyStatus(cfg *gconfig.GameConfig) DependencyStatus {
	state := cfg.Compatibility.WineWayland
	enabled := state.Enabled()
	detected := hostWaylandSessionDetected()

	var status CheckStatus
	var note string
	switch {
	case enabled && detected:
		status, note = OK, "wayland session detected for wine-wayland"
	case enabled:
		status, note = Warn, "wine-wayland enabled but no wayland session detected"
	default:
		status, note = Info, "wine-wayland not requested"
	}

	return DependencyStatus{Name: "wine-wayland", State: &state, Status: status, Found: detected, Note: note}
}

func hdrDependencyStatus(cfg *gconfig.GameConfig, runtime RuntimeDiscovery) DependencyStatus {
	state := cfg.Compatibility.Hdr
	enabled := state.Enabled()
	protonSelected := runtime.SelectedRuntime != nil && (*runtime.SelectedRuntime == gconfig.ProtonNative || *runtime.SelectedRuntime == gconfig.ProtonUmu)

	var status CheckStatus
	var note string
	switch {
	case enabled && protonSelected:
		status, note = OK, "hdr passthrough available under selected proton runtime"
	case enabled:
		status, note = Warn, "hdr requested but selected runtime does not support passthrough"
	default:
		status, note = Info, "hdr not requested"
	}

	return DependencyStatus{Name: "hdr", State: &state, Status: status, Found: protonSelected, Note: note}
}

func dxvkNvapiDependencyStatus(cfg *gconfig.GameConfig) DependencyStatus {
	state := cfg.Compatibility.AutoDxvkNvapi
	enabled := state.Enabled()
	nvidiaPresent := nvidiaDevicePresent()

	var status CheckStatus
	var note string
	switch {
	case enabled && nvidiaPresent:
		status, note = OK, "nvidia device detected for dxvk-nvapi"
	case enabled:
		status, note = Warn, "dxvk-nvapi requested but no nvidia device detected"
	default:
		status, note = Info, "dxvk-nvapi not requested"
	}

	return DependencyStatus{Name: "dxvk-nvapi", State: &state, Status: status, Found: nvidiaPresent, Note: note}
}

func nvidiaDevicePresent() bool {
	_, err := os.Stat("/dev/nvidia0")
	return err == nil
}

func stagingDependencyStatus(cfg *gconfig.GameConfig) DependencyStatus {
	state := cfg.Compatibility.Staging
	enabled := state.Enabled()
	isStaging := wineIsStagingBuild()

	var status CheckStatus
	var note string
	switch {
	case enabled && isStaging:
		status, note = OK, "staging wine build detected"
	case enabled:
		status, note = Warn, "staging requested but installed wine is not a staging build"
	default:
		status, note = Info, "staging not requested"
	}

	return DependencyStatus{Name: "staging", State: &state, Status: status, Found: isStaging, Note: note}
}

func wineIsStagingBuild() bool {
	winePath := discoverWine()
	if winePath == nil {
		return false
	}
	output, err := exec.Command(*winePath, "--version").CombinedOutput()
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(output)), "staging")
}

func steamRuntimeDetected() *string {
	if path, err := lookPath("steam-runtime-urlopen"); err == nil {
		return strPtr(path)
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return nil
	}
	candidate := filepath.Join(home, ".steam", "root", "ubuntu12_32", "steam-runtime")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return strPtr(candidate)
	}
	return nil
}

func eacRuntimeDetected() *string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return nil
	}
	candidate := filepath.Join(home, ".steam", "root", "steamapps", "common", "EasyAntiCheat Runtime")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return strPtr(candidate)
	}
	return nil
}

func battlEyeRuntimeDetected() *string {
	home, _ := os.UserHomeDir()
	if home == "" {
		return nil
	}
	candidate := filepath.Join(home, ".steam", "root", "steamapps", "common", "BattlEye Runtime")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return strPtr(candidate)
	}
	return nil
}

func evaluateSystemDependency(dep gconfig.SystemDependency) DependencyStatus {
	found := systemDependencyFound(dep)
	state := dep.State
	status, note := mapFeatureStateAndPresenceToStatus(&state, found != nil)
	return DependencyStatus{Name: dep.Name, State: &state, Status: status, Found: found != nil, ResolvedPath: found, Note: note}
}

func systemDependencyFound(dep gconfig.SystemDependency) *string {
	for _, command := range dep.CheckCommands {
		if path, err := lookPath(command); err == nil {
			return strPtr(path)
		}
	}
	for _, envVar := range dep.CheckEnvVars {
		if value := os.Getenv(envVar); value != "" {
			return strPtr(value)
		}
	}
	for _, path := range dep.CheckPaths {
		if _, err := os.Stat(path); err == nil {
			return strPtr(path)
		}
	}
	return nil
}

// Package overrides implements the per-title user-toggle store (C8): the
// subset of overridable features a user may flip on top of the embedded
// policy, persisted as JSON and merged back into the GameConfig at
// play-flow time.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luthier-run/orchestrator/internal/appdirs"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"gopkg.in/yaml.v3"
)

// Store is the persisted shape of a title's runtime overrides. Every
// field is optional: nil means "use policy default".
type Store struct {
	Mangohud             *bool `json:"mangohud,omitempty"`
	Gamescope            *bool `json:"gamescope,omitempty"`
	Gamemode             *bool `json:"gamemode,omitempty"`
	Umu                  *bool `json:"umu,omitempty"`
	Winetricks           *bool `json:"winetricks,omitempty"`
	SteamRuntime         *bool `json:"steam_runtime,omitempty"`
	PrimeOffload         *bool `json:"prime_offload,omitempty"`
	WineWayland          *bool `json:"wine_wayland,omitempty"`
	Hdr                  *bool `json:"hdr,omitempty"`
	AutoDxvkNvapi        *bool `json:"auto_dxvk_nvapi,omitempty"`
	EasyAntiCheatRuntime *bool `json:"easy_anti_cheat_runtime,omitempty"`
	BattleyeRuntime      *bool `json:"battleye_runtime,omitempty"`
}

// ErrFeatureNotOverridable is returned when a CLI toggle targets a feature
// whose policy state is mandatory.
var ErrFeatureNotOverridable = errors.New("overrides: feature is not overridable with current policy")

// FeatureView describes one toggle-capable feature's current effective
// state, used by `--config` to print the merged view.
type FeatureView struct {
	Feature          string               `json:"feature" yaml:"feature"`
	PolicyState      gconfig.FeatureState `json:"policy_state" yaml:"policy_state"`
	Overridable      bool                 `json:"overridable" yaml:"overridable"`
	DefaultEnabled   bool                 `json:"default_enabled" yaml:"default_enabled"`
	EffectiveEnabled bool                 `json:"effective_enabled" yaml:"effective_enabled"`
	OverrideValue    *bool                `json:"override_value" yaml:"override_value"`
}

func BuildFeatureView(feature string, policyState gconfig.FeatureState, override *bool) FeatureView {
	return FeatureView{
		Feature:          feature,
		PolicyState:      policyState,
		Overridable:      policyState.Overridable(),
		DefaultEnabled:   policyState.Enabled(),
		EffectiveEnabled: gconfig.EffectiveEnabled(policyState, override),
		OverrideValue:    override,
	}
}

func path(exeHash string) (string, error) {
	dir, err := appdirs.OverridesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, gconfig.CompactExeHashKey(exeHash)+".json"), nil
}

// Load returns the persisted overrides for a title, or a zero-value Store
// if none have been saved yet.
func Load(exeHash string) (Store, error) {
	p, err := path(exeHash)
	if err != nil {
		return Store{}, err
	}

	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return Store{}, nil
	}
	if err != nil {
		return Store{}, fmt.Errorf("overrides: failed to read %s: %w", p, err)
	}

	var store Store
	if err := json.Unmarshal(raw, &store); err != nil {
		return Store{}, fmt.Errorf("overrides: invalid overrides at %s: %w", p, err)
	}
	return store, nil
}

// Save atomically writes the overrides for a title, creating parent
// directories as needed.
func Save(exeHash string, store Store) (string, error) {
	p, err := path(exeHash)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("overrides: failed to create directory: %w", err)
	}

	payload, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return "", fmt.Errorf("overrides: failed to serialize: %w", err)
	}

	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return "", fmt.Errorf("overrides: failed to write: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return "", fmt.Errorf("overrides: failed to finalize write: %w", err)
	}
	return p, nil
}

func applyOptional(state *gconfig.FeatureState, override *bool) {
	if override == nil || !state.Overridable() {
		return
	}
	*state = gconfig.ApplyOverride(*state, *override)
}

// Apply mutates cfg in place, replacing each overridable feature's state
// per the stored override. Mandatory states are left untouched.
func Apply(cfg *gconfig.GameConfig, store Store) {
	applyOptional(&cfg.Environment.Gamemode, store.Gamemode)
	applyOptional(&cfg.Requirements.Gamemode, store.Gamemode)
	applyOptional(&cfg.Requirements.Mangohud, store.Mangohud)
	applyOptional(&cfg.Environment.Gamescope.State, store.Gamescope)
	applyOptional(&cfg.Requirements.Gamescope, store.Gamescope)
	applyOptional(&cfg.Requirements.Umu, store.Umu)
	applyOptional(&cfg.Requirements.Winetricks, store.Winetricks)
	applyOptional(&cfg.Requirements.SteamRuntime, store.SteamRuntime)
	applyOptional(&cfg.Environment.PrimeOffload, store.PrimeOffload)
	applyOptional(&cfg.Compatibility.WineWayland, store.WineWayland)
	applyOptional(&cfg.Compatibility.Hdr, store.Hdr)
	applyOptional(&cfg.Compatibility.AutoDxvkNvapi, store.AutoDxvkNvapi)
	applyOptional(&cfg.Compatibility.EasyAntiCheatRuntime, store.EasyAntiCheatRuntime)
	applyOptional(&cfg.Compatibility.BattleyeRuntime, store.BattleyeRuntime)
}

// Toggle is the CLI-facing request shape: On/Off/Default.
type Toggle string

const (
	On      Toggle = "on"
	Off     Toggle = "off"
	Default Toggle = "default"
)

func setOptionalOverride(target **bool, requested Toggle) bool {
	var next *bool
	switch requested {
	case On:
		v := true
		next = &v
	case Off:
		v := false
		next = &v
	case Default:
		next = nil
	}

	changed := !boolPtrEqual(*target, next)
	*target = next
	return changed
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ExportProfile writes views as YAML to path for human inspection or
// editing. It is a read-only snapshot of the effective feature view
// `--config` already prints as JSON; the authoritative store remains
// the per-title JSON file under appdirs.OverridesDir.
func ExportProfile(path string, views []FeatureView) error {
	payload, err := yaml.Marshal(views)
	if err != nil {
		return fmt.Errorf("overrides: failed to encode profile export: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("overrides: failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("overrides: failed to write profile export: %w", err)
	}
	return nil
}

// ApplyToggleRequest validates a CLI toggle against the feature's policy
// state before mutating target, returning ErrFeatureNotOverridable when
// the feature is mandatory.
func ApplyToggleRequest(featureName string, state gconfig.FeatureState, requested *Toggle, target **bool) (bool, error) {
	if requested == nil {
		return false, nil
	}
	if !state.Overridable() {
		return false, fmt.Errorf("%w: %s", ErrFeatureNotOverridable, featureName)
	}
	return setOptionalOverride(target, *requested), nil
}

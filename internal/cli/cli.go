// Package cli is the flag-based command dispatcher for the generated
// launcher binary, in the teacher's internal/cli+internal/app idiom:
// a single flag.FlagSet parsed up front, then a dispatch by which
// boolean flags were set.
package cli

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luthier-run/orchestrator/internal/doctor"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/overrides"
	"github.com/luthier-run/orchestrator/internal/playflow"
	"github.com/luthier-run/orchestrator/internal/trailer"
	"github.com/luthier-run/orchestrator/internal/winecfgflow"
)

// ErrUsage signals a usage problem; callers should exit 2 without
// printing an additional error (usage text has already been written).
var ErrUsage = errors.New("usage")

const heroImageMaskedHint = "base-64 image. Use --show-base64-hero-image to see"

var toggleableFeatures = []string{
	"mangohud", "gamescope", "gamemode", "umu", "winetricks",
	"steam_runtime", "prime_offload", "wine_wayland", "hdr",
	"auto_dxvk_nvapi", "easy_anti_cheat_runtime", "battleye_runtime",
}

// Options is the parsed command line.
type Options struct {
	Play                bool
	PlaySplash          bool
	Config              bool
	Doctor              bool
	Winecfg             bool
	Verbose             bool
	ShowPayload         bool
	ShowHeroImageBase64 bool
	SavePayload         bool
	Lang                string
	ExportProfile       string
	Sets                map[string]overrides.Toggle
}

// Parse builds Options from args, the way clap parses Cli in the
// original `luthier-orchestrator`. Unknown flags return ErrUsage.
func Parse(args []string, out io.Writer) (Options, error) {
	fs := flag.NewFlagSet("luthier-run", flag.ContinueOnError)
	fs.SetOutput(out)

	opts := Options{Sets: map[string]overrides.Toggle{}}
	fs.BoolVar(&opts.Play, "play", false, "run game launch pipeline without splash")
	fs.BoolVar(&opts.PlaySplash, "play-splash", false, "run game launch pipeline with splash")
	fs.BoolVar(&opts.Config, "config", false, "configure optional runtime overrides")
	fs.BoolVar(&opts.Doctor, "doctor", false, "run doctor checks and print categorized result")
	fs.BoolVar(&opts.Winecfg, "winecfg", false, "run Wine configuration flow")
	fs.BoolVar(&opts.Verbose, "verbose", false, "show additional details for doctor output")
	fs.BoolVar(&opts.ShowPayload, "show-payload", false, "print embedded payload")
	fs.BoolVar(&opts.ShowHeroImageBase64, "show-base64-hero-image", false, "print payload including hero image base64 (no-op: not part of this payload schema)")
	fs.BoolVar(&opts.SavePayload, "save-payload", false, "save embedded payload JSON to luthier-payload.json in game root")
	fs.StringVar(&opts.Lang, "lang", "", "locale override for splash/UI text (example: pt-BR, en-US)")
	fs.StringVar(&opts.ExportProfile, "export-profile", "", "export the effective feature view as YAML to this path (requires --config)")

	raw := make(map[string]*string, len(toggleableFeatures))
	for _, name := range toggleableFeatures {
		raw[name] = fs.String("set-"+strings.ReplaceAll(name, "_", "-"), "", fmt.Sprintf("override %s optional state: on|off|default", name))
	}

	if err := fs.Parse(args); err != nil {
		return Options{}, ErrUsage
	}

	for name, value := range raw {
		if *value == "" {
			continue
		}
		toggle := overrides.Toggle(strings.ToLower(*value))
		if toggle != overrides.On && toggle != overrides.Off && toggle != overrides.Default {
			fmt.Fprintf(out, "invalid value %q for --set-%s: must be on, off, or default\n", *value, strings.ReplaceAll(name, "_", "-"))
			return Options{}, ErrUsage
		}
		opts.Sets[name] = toggle
	}

	return opts, nil
}

// Run executes the subcommand selected by opts against the generated
// launcher binary at selfPath (os.Executable() when empty), printing
// the relevant result envelope to stdout as its final line.
func Run(opts Options, selfPath string) error {
	switch {
	case opts.ShowPayload:
		return runShowPayload(opts, selfPath)
	case opts.SavePayload:
		return runSavePayload(selfPath)
	case opts.Config || len(opts.Sets) > 0 || opts.ExportProfile != "":
		return runConfig(opts, selfPath)
	case opts.Doctor:
		return runDoctor(opts, selfPath)
	case opts.Winecfg:
		return runWinecfg(selfPath)
	case opts.Play, opts.PlaySplash:
		return runPlay(selfPath)
	default:
		// No flags and a valid payload: behave as --play-splash.
		return runPlay(selfPath)
	}
}

func resolveSelfPath(selfPath string) (string, error) {
	if selfPath != "" {
		return selfPath, nil
	}
	return os.Executable()
}

func loadEmbeddedConfig(selfPath string) (gconfig.GameConfig, error) {
	resolved, err := resolveSelfPath(selfPath)
	if err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("resolve self path: %w", err)
	}
	selfBytes, err := os.ReadFile(resolved)
	if err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("read self binary: %w", err)
	}
	configJSON, err := trailer.Extract(selfBytes)
	if err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("embedded payload trailer not found: %w", err)
	}
	var cfg gconfig.GameConfig
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("parse embedded payload: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func runPlay(selfPath string) error {
	result, err := playflow.Execute(playflow.Options{SelfPath: selfPath, DryRun: isDryRun()})
	printEnvelope(result)
	return err
}

func runWinecfg(selfPath string) error {
	result, err := winecfgflow.Execute(winecfgflow.Options{SelfPath: selfPath, DryRun: isDryRun()})
	printEnvelope(result)
	return err
}

func isDryRun() bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv("LUTHIER_DRY_RUN")))
	return value == "1" || value == "true"
}

func printEnvelope(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Println(string(payload))
}

func runShowPayload(opts Options, selfPath string) error {
	cfg, err := loadEmbeddedConfig(selfPath)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	fmt.Println(string(payload))
	if !opts.ShowHeroImageBase64 {
		fmt.Println(heroImageMaskedHint)
	}
	return nil
}

func runSavePayload(selfPath string) error {
	resolved, err := resolveSelfPath(selfPath)
	if err != nil {
		return err
	}
	cfg, err := loadEmbeddedConfig(selfPath)
	if err != nil {
		return err
	}

	gameRoot := filepath.Dir(resolved)
	outputPath := filepath.Join(gameRoot, "luthier-payload.json")

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize payload for save: %w", err)
	}
	if err := os.WriteFile(outputPath, payload, 0o644); err != nil {
		return fmt.Errorf("write payload file at %s: %w", outputPath, err)
	}

	fmt.Println(outputPath)
	return nil
}

var featureLocations = map[string]func(*gconfig.GameConfig) gconfig.FeatureState{
	"mangohud":                func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.Mangohud },
	"gamescope":               func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.Gamescope },
	"gamemode":                func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.Gamemode },
	"umu":                     func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.Umu },
	"winetricks":              func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.Winetricks },
	"steam_runtime":           func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Requirements.SteamRuntime },
	"prime_offload":           func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Environment.PrimeOffload },
	"wine_wayland":            func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Compatibility.WineWayland },
	"hdr":                     func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Compatibility.Hdr },
	"auto_dxvk_nvapi":         func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Compatibility.AutoDxvkNvapi },
	"easy_anti_cheat_runtime": func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Compatibility.EasyAntiCheatRuntime },
	"battleye_runtime":        func(c *gconfig.GameConfig) gconfig.FeatureState { return c.Compatibility.BattleyeRuntime },
}

func storeField(store *overrides.Store, name string) **bool {
	switch name {
	case "mangohud":
		return &store.Mangohud
	case "gamescope":
		return &store.Gamescope
	case "gamemode":
		return &store.Gamemode
	case "umu":
		return &store.Umu
	case "winetricks":
		return &store.Winetricks
	case "steam_runtime":
		return &store.SteamRuntime
	case "prime_offload":
		return &store.PrimeOffload
	case "wine_wayland":
		return &store.WineWayland
	case "hdr":
		return &store.Hdr
	case "auto_dxvk_nvapi":
		return &store.AutoDxvkNvapi
	case "easy_anti_cheat_runtime":
		return &store.EasyAntiCheatRuntime
	case "battleye_runtime":
		return &store.BattleyeRuntime
	default:
		return nil
	}
}

func runConfig(opts Options, selfPath string) error {
	cfg, err := loadEmbeddedConfig(selfPath)
	if err != nil {
		return err
	}

	store, err := overrides.Load(cfg.ExeHash)
	if err != nil {
		return err
	}

	for name, toggle := range opts.Sets {
		toggle := toggle
		policyState := featureLocations[name](&cfg)
		if _, err := overrides.ApplyToggleRequest(name, policyState, &toggle, storeField(&store, name)); err != nil {
			return err
		}
	}

	if len(opts.Sets) > 0 {
		if _, err := overrides.Save(cfg.ExeHash, store); err != nil {
			return err
		}
	}

	views := make([]overrides.FeatureView, 0, len(toggleableFeatures))
	for _, name := range toggleableFeatures {
		policyState := featureLocations[name](&cfg)
		views = append(views, overrides.BuildFeatureView(name, policyState, *storeField(&store, name)))
	}

	if opts.ExportProfile != "" {
		if err := overrides.ExportProfile(opts.ExportProfile, views); err != nil {
			return err
		}
	}

	payload, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("format feature views: %w", err)
	}
	fmt.Println(string(payload))
	return nil
}

func runDoctor(opts Options, selfPath string) error {
	cfg, err := loadEmbeddedConfig(selfPath)
	if err != nil {
		return err
	}

	report := doctor.RunDoctor(&cfg)

	if opts.Verbose {
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("format doctor report: %w", err)
		}
		fmt.Println(string(payload))
		return nil
	}

	fmt.Println(string(report.Summary))
	return nil
}

// Package appconfig holds the local TOML preferences a binary in this
// module persists for itself, separate from any GameConfig payload it
// reads or produces. It follows the same load/default/save shape for
// every binary that needs one; each binary supplies its own app name
// and default values.
package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// CreatorPreferences is the creator binary's own local preferences,
// under $XDG_CONFIG_HOME/luthier-creator/creator.toml.
type CreatorPreferences struct {
	Meta struct {
		ConfigPath string `toml:"-"`
	} `toml:"-"`
	General    GeneralPreferences `toml:"general"`
	CreateFlow CreateFlowPrefs    `toml:"create_flow"`
}

// GeneralPreferences covers the interactive/logging knobs shared by
// both the creator and launcher preference files.
type GeneralPreferences struct {
	Interactive bool   `toml:"interactive"`
	LogLevel    string `toml:"log_level"`
	LogFile     string `toml:"log_file"`
}

// CreateFlowPrefs holds the creator's own defaults for the `create`
// subcommand's optional flags.
type CreateFlowPrefs struct {
	BackupExisting bool `toml:"backup_existing"`
	MakeExecutable bool `toml:"make_executable"`
}

func defaultCreatorConfigPath() (string, error) {
	return configPathFor("luthier-creator", "creator.toml")
}

func configPathFor(appDir, fileName string) (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appDir, fileName), nil
}

// DefaultCreatorPreferences returns the creator's preferences as they
// are before any file on disk is consulted.
func DefaultCreatorPreferences() *CreatorPreferences {
	prefs := &CreatorPreferences{}
	prefs.General.Interactive = true
	prefs.General.LogLevel = "info"
	prefs.CreateFlow.BackupExisting = true
	prefs.CreateFlow.MakeExecutable = true
	return prefs
}

// LoadOrCreateCreatorPreferences loads path (or the XDG default when
// path is empty), writing out defaults on first run the same way the
// teacher's launcher config loader does.
func LoadOrCreateCreatorPreferences(path string) (*CreatorPreferences, string, error) {
	var err error
	if path == "" {
		path, err = defaultCreatorConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", fmt.Errorf("create config dir: %w", err)
	}

	prefs := DefaultCreatorPreferences()

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := prefs.Save(path); err != nil {
			return nil, "", err
		}
		prefs.Meta.ConfigPath = path
		return prefs, path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, prefs); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}
	prefs.Meta.ConfigPath = path
	return prefs, path, nil
}

// Save writes prefs to path as TOML, creating parent directories as
// needed.
func (p *CreatorPreferences) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// LauncherPreferences is the launcher's own local preferences, under
// $XDG_CONFIG_HOME/luthier-run/launcher.toml. The generated launcher
// binary is meant to be self-contained via its embedded payload, but
// still persists a thin local file for the one thing that can't live
// in the payload: which locale to prefer and whether the terminal is
// interactive, mirroring the teacher's own `internal/config.Config`.
type LauncherPreferences struct {
	Meta struct {
		ConfigPath string `toml:"-"`
	} `toml:"-"`
	General GeneralPreferences `toml:"general"`
	Locale  string             `toml:"locale"`
}

func defaultLauncherConfigPath() (string, error) {
	return configPathFor("luthier-run", "launcher.toml")
}

// DefaultLauncherPreferences returns the launcher's preferences before
// any file on disk is consulted.
func DefaultLauncherPreferences() *LauncherPreferences {
	prefs := &LauncherPreferences{}
	prefs.General.Interactive = true
	prefs.General.LogLevel = "info"
	prefs.Locale = "en-US"
	return prefs
}

// LoadOrCreateLauncherPreferences loads path (or the XDG default when
// path is empty), writing out defaults on first run.
func LoadOrCreateLauncherPreferences(path string) (*LauncherPreferences, string, error) {
	var err error
	if path == "" {
		path, err = defaultLauncherConfigPath()
		if err != nil {
			return nil, "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, "", fmt.Errorf("create config dir: %w", err)
	}

	prefs := DefaultLauncherPreferences()

	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		if err := prefs.Save(path); err != nil {
			return nil, "", err
		}
		prefs.Meta.ConfigPath = path
		return prefs, path, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, prefs); err != nil {
			return nil, "", fmt.Errorf("parse config: %w", err)
		}
	}
	prefs.Meta.ConfigPath = path
	return prefs, path, nil
}

// Save writes prefs to path as TOML, creating parent directories as
// needed.
func (p *LauncherPreferences) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

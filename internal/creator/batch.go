package creator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// BatchItem pairs a discovered config file with the Create outcome it
// produced (or the error it failed with).
type BatchItem struct {
	ConfigPath string  `json:"config_path"`
	OutputPath string  `json:"output_path"`
	Result     *Result `json:"result,omitempty"`
	Error      *string `json:"error,omitempty"`
}

// BatchCreate runs Create once per `*.json` GameConfig file found directly
// inside configDir, producing one output binary per title into outputDir
// (named after the config file's base name), all from the same base
// binary. One config's failure does not prevent the others from running;
// every outcome is reported in the returned slice.
func BatchCreate(baseBinaryPath, configDir, outputDir string, backupExisting, makeExecutable bool) ([]BatchItem, error) {
	entries, err := os.ReadDir(configDir)
	if err != nil {
		return nil, fmt.Errorf("creator: failed to read batch config directory: %w", err)
	}

	var configPaths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		configPaths = append(configPaths, filepath.Join(configDir, entry.Name()))
	}
	sort.Strings(configPaths)

	items := make([]BatchItem, 0, len(configPaths))
	for _, configPath := range configPaths {
		outputPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(configPath), ".json"))
		item := BatchItem{ConfigPath: configPath, OutputPath: outputPath}

		cfg, err := loadGameConfig(configPath)
		if err != nil {
			msg := err.Error()
			item.Error = &msg
			items = append(items, item)
			continue
		}

		result, err := Create(Request{
			BaseBinaryPath: baseBinaryPath,
			OutputPath:     outputPath,
			Config:         cfg,
			BackupExisting: backupExisting,
			MakeExecutable: makeExecutable,
		})
		if err != nil {
			msg := err.Error()
			item.Error = &msg
			items = append(items, item)
			continue
		}
		item.Result = &result
		items = append(items, item)
	}

	return items, nil
}

func loadGameConfig(path string) (gconfig.GameConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("creator: failed to read %s: %w", path, err)
	}
	var cfg gconfig.GameConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return gconfig.GameConfig{}, fmt.Errorf("creator: invalid config json at %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

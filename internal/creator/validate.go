// Package creator implements the creator pipeline (C4): validate a
// GameConfig's payload-relative paths, embed it into a base launcher
// binary via the trailer codec, and self-check the result.
package creator

import (
	"fmt"
	"strings"

	"github.com/luthier-run/orchestrator/internal/domainerr"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/pathguard"
)

// ValidateGameConfig normalizes and validates every payload-relative path
// carried by cfg, mutating cfg in place with the normalized forms on
// success. All issues are collected before returning so a single failed
// validation reports every offending path at once, matching the
// original's InvalidGameConfig{issues} shape.
func ValidateGameConfig(cfg *gconfig.GameConfig) error {
	var issues []string

	if normalized, err := pathguard.NormalizeRelativePayloadPath(cfg.RelativeExePath); err != nil {
		issues = append(issues, fmt.Sprintf("relative_exe_path: %v", err))
	} else {
		cfg.RelativeExePath = normalized
	}

	for i, raw := range cfg.IntegrityFiles {
		normalized, err := pathguard.NormalizeRelativePayloadPath(raw)
		if err != nil {
			issues = append(issues, fmt.Sprintf("integrity_files[%d]: %v", i, err))
			continue
		}
		cfg.IntegrityFiles[i] = normalized
	}

	seenTargets := make(map[string]int, len(cfg.FolderMounts))
	for i := range cfg.FolderMounts {
		mount := &cfg.FolderMounts[i]

		normalizedSource, err := pathguard.NormalizeRelativePayloadPath(mount.SourceRelativePath)
		if err != nil {
			issues = append(issues, fmt.Sprintf("folder_mounts[%d].source_relative_path: %v", i, err))
		} else {
			mount.SourceRelativePath = normalizedSource
		}

		normalizedTarget, err := pathguard.NormalizeWindowsMountTarget(mount.TargetWindowsPath)
		if err != nil {
			issues = append(issues, fmt.Sprintf("folder_mounts[%d].target_windows_path: %v", i, err))
			continue
		}
		mount.TargetWindowsPath = normalizedTarget

		key := strings.ToUpper(normalizedTarget)
		if first, seen := seenTargets[key]; seen {
			issues = append(issues, fmt.Sprintf("folder_mounts[%d].target_windows_path: duplicate of folder_mounts[%d] target %s", i, first, normalizedTarget))
			continue
		}
		seenTargets[key] = i
	}

	if len(issues) == 0 {
		return nil
	}
	return domainerr.Wrap(domainerr.CreatorInvalidGameConfig, strings.Join(issues, "; "))
}

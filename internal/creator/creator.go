package creator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/luthier-run/orchestrator/internal/domainerr"
	"github.com/luthier-run/orchestrator/internal/gconfig"
	"github.com/luthier-run/orchestrator/internal/trailer"
)

// Request describes one binary to produce.
type Request struct {
	BaseBinaryPath string
	OutputPath     string
	Config         gconfig.GameConfig
	BackupExisting bool
	MakeExecutable bool
}

// Result is the creator pipeline's output envelope.
type Result struct {
	OutputPath      string `json:"output_path"`
	ConfigSizeBytes int    `json:"config_size_bytes"`
	ConfigSha256Hex string `json:"config_sha256_hex"`
}

// Create validates req.Config, embeds it into the base binary's bytes via
// the trailer codec, and atomically writes the result to OutputPath
// (temp file in the same directory, fsync, rename), matching the
// atomic-write pattern the teacher uses for its own downloaded artifacts.
// A self-check re-extracts the written trailer before returning.
func Create(req Request) (Result, error) {
	if err := ValidateGameConfig(&req.Config); err != nil {
		return Result{}, err
	}

	baseBytes, err := os.ReadFile(req.BaseBinaryPath)
	if err != nil {
		return Result{}, fmt.Errorf("creator: failed to read base binary: %w", err)
	}

	configBytes, err := json.MarshalIndent(req.Config, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("creator: failed to serialize game config: %w", err)
	}

	output := trailer.Append(baseBytes, configBytes)

	if req.BackupExisting {
		if _, statErr := os.Stat(req.OutputPath); statErr == nil {
			if err := backupExisting(req.OutputPath); err != nil {
				return Result{}, err
			}
		}
	}

	mode := os.FileMode(0o644)
	if req.MakeExecutable {
		mode = 0o755
	}
	if err := atomicWrite(req.OutputPath, output, mode); err != nil {
		return Result{}, err
	}

	if err := selfCheck(req.OutputPath, configBytes); err != nil {
		return Result{}, err
	}

	sum := sha256.Sum256(configBytes)
	return Result{
		OutputPath:      req.OutputPath,
		ConfigSizeBytes: len(configBytes),
		ConfigSha256Hex: hex.EncodeToString(sum[:]),
	}, nil
}

func backupExisting(outputPath string) error {
	existing, err := os.ReadFile(outputPath)
	if err != nil {
		return fmt.Errorf("creator: failed to read existing output for backup: %w", err)
	}
	if err := os.WriteFile(outputPath+".bak", existing, 0o644); err != nil {
		return fmt.Errorf("creator: failed to write backup: %w", err)
	}
	return nil
}

func atomicWrite(path string, data []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creator: failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".creator-tmp-*")
	if err != nil {
		return fmt.Errorf("creator: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("creator: failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("creator: failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("creator: failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("creator: failed to set output permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("creator: failed to finalize output: %w", err)
	}
	return nil
}

func selfCheck(outputPath string, expectedConfigBytes []byte) error {
	written, err := os.ReadFile(outputPath)
	if err != nil {
		return domainerr.Wrap(domainerr.CreatorVerificationFailed, err.Error())
	}
	extracted, err := trailer.Extract(written)
	if err != nil {
		return domainerr.Wrap(domainerr.CreatorVerificationFailed, err.Error())
	}
	if len(extracted) != len(expectedConfigBytes) || string(extracted) != string(expectedConfigBytes) {
		return domainerr.Wrap(domainerr.CreatorVerificationFailed, "re-extracted payload does not match serialized config")
	}
	return nil
}

// Sha256File hashes a file's bytes, used by the `hash` CLI subcommand and
// as the canonical way to compute a title's exe_hash.
func Sha256File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("creator: failed to read %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

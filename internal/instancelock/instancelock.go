// Package instancelock prevents two play flows for the same title from
// running concurrently against the same Wine prefix (C9).
package instancelock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/luthier-run/orchestrator/internal/appdirs"
	"github.com/luthier-run/orchestrator/internal/gconfig"
)

// Guard holds an acquired lock file open for the life of a play flow.
// Release removes the lock file; callers should defer it immediately
// after a successful Acquire.
type Guard struct {
	lockPath string
	file     *os.File
}

func (g *Guard) LockPath() string { return g.lockPath }

// Release closes and removes the lock file. A lock file that is already
// gone is not reported as an error, so a second call returns nil.
func (g *Guard) Release() error {
	if g.file != nil {
		_ = g.file.Close()
		g.file = nil
	}
	if err := os.Remove(g.lockPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("instancelock: failed to remove lock file: %w", err)
	}
	return nil
}

// Acquire takes the instance lock for exe_hash under the default lock
// directory ($HOME/.local/share/luthier-run/locks).
func Acquire(exeHash string) (*Guard, error) {
	dir, err := appdirs.LocksDir()
	if err != nil {
		return nil, err
	}
	return acquireIn(exeHash, dir)
}

func acquireIn(exeHash, lockDir string) (*Guard, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("instancelock: failed to create lock directory %s: %w", lockDir, err)
	}

	lockPath, err := resolveLockPath(lockDir, exeHash)
	if err != nil {
		return nil, err
	}

	file, err := createLockFile(lockPath)
	if err == nil {
		return &Guard{lockPath: lockPath, file: file}, nil
	}
	if !os.IsExist(err) {
		return nil, fmt.Errorf("instancelock: failed to create lock file %s: %w", lockPath, err)
	}

	reclaimed, reclaimErr := tryReclaimStaleLock(lockPath)
	if reclaimErr != nil {
		return nil, reclaimErr
	}
	if reclaimed {
		file, err := createLockFile(lockPath)
		if err != nil {
			return nil, fmt.Errorf("instancelock: failed to create lock file after stale cleanup %s: %w", lockPath, err)
		}
		return &Guard{lockPath: lockPath, file: file}, nil
	}

	return nil, fmt.Errorf("instancelock: another instance for this game is already running (lock=%s)", lockPath)
}

func sanitizeLockKey(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	key := b.String()
	if key == "" {
		return "", fmt.Errorf("instancelock: exe_hash is empty after sanitization")
	}
	return key, nil
}

func resolveLockPath(lockDir, exeHash string) (string, error) {
	shortKey, err := sanitizeLockKey(gconfig.CompactExeHashKey(exeHash))
	if err != nil {
		return "", err
	}
	shortPath := filepath.Join(lockDir, shortKey+".lock")

	legacyKey, err := sanitizeLockKey(exeHash)
	if err != nil {
		return "", err
	}
	legacyPath := filepath.Join(lockDir, legacyKey+".lock")

	legacyExists := fileExists(legacyPath)
	shortExists := fileExists(shortPath)
	if legacyExists && !shortExists {
		return legacyPath, nil
	}
	return shortPath, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func createLockFile(lockPath string) (*os.File, error) {
	file, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	if err := writeLockMetadata(file); err != nil {
		_ = file.Close()
		_ = os.Remove(lockPath)
		return nil, err
	}
	return file, nil
}

func writeLockMetadata(file *os.File) error {
	pid := os.Getpid()
	createdAt := time.Now().Unix()

	if _, err := fmt.Fprintf(file, "pid=%d\ncreated_at=%d\n", pid, createdAt); err != nil {
		return err
	}
	return file.Sync()
}

func tryReclaimStaleLock(lockPath string) (bool, error) {
	pid, ok, err := readLockPid(lockPath)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if isPidRunning(pid) {
		return false, nil
	}

	if err := os.Remove(lockPath); err != nil {
		return false, fmt.Errorf("instancelock: failed to remove stale lock %s: %w", lockPath, err)
	}
	return true, nil
}

func readLockPid(lockPath string) (int, bool, error) {
	raw, err := os.ReadFile(lockPath)
	if err != nil {
		return 0, false, fmt.Errorf("instancelock: failed to read lock file %s: %w", lockPath, err)
	}

	for _, line := range strings.Split(string(raw), "\n") {
		value, found := strings.CutPrefix(line, "pid=")
		if !found {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return pid, true, nil
		}
	}
	return 0, false, nil
}

func isPidRunning(pid int) bool {
	_, err := os.Stat(filepath.Join("/proc", strconv.Itoa(pid)))
	return err == nil
}

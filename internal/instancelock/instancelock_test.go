package instancelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeniesSecondLockWhileFirstIsHeld(t *testing.T) {
	dir := t.TempDir()

	first, err := acquireIn("abc123", dir)
	require.NoError(t, err)

	_, err = acquireIn("abc123", dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already running")

	require.NoError(t, first.Release())

	second, err := acquireIn("abc123", dir)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestReclaimsStaleLockWithDeadPid(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, "abc123.lock")
	require.NoError(t, os.WriteFile(lockPath, []byte("pid=4294967295\ncreated_at=0\n"), 0o644))

	guard, err := acquireIn("abc123", dir)
	require.NoError(t, err)
	require.Equal(t, lockPath, guard.LockPath())

	require.NoError(t, guard.Release())
}

func TestPrefersLegacyFullHashLockWhenItAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	fullHash := "d21d0173c3028c190055ae1f14f9a4c282e8e58318975fc5d4cefdeb61a15df9"
	legacyPath := filepath.Join(dir, fullHash+".lock")
	require.NoError(t, os.WriteFile(legacyPath, []byte("pid=4294967295\ncreated_at=0\n"), 0o644))

	guard, err := acquireIn(fullHash, dir)
	require.NoError(t, err)
	require.Equal(t, legacyPath, guard.LockPath())

	require.NoError(t, guard.Release())
}

func TestLockMetadataContainsPidAndTimestamp(t *testing.T) {
	dir := t.TempDir()

	guard, err := acquireIn("metadata-check", dir)
	require.NoError(t, err)
	defer guard.Release()

	raw, err := os.ReadFile(guard.LockPath())
	require.NoError(t, err)
	require.Contains(t, string(raw), "pid=")
	require.Contains(t, string(raw), "created_at=")
}

package pathguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRelativePayloadPathHandlesMixedSeparators(t *testing.T) {
	normalized, err := NormalizeRelativePayloadPath(" ./assets\\.\\bin//game.exe ")
	require.NoError(t, err)
	require.Equal(t, "assets/bin/game.exe", normalized)
}

func TestNormalizeRelativePayloadPathIsIdempotent(t *testing.T) {
	once, err := NormalizeRelativePayloadPath(`.\mods//bin\game.exe `)
	require.NoError(t, err)
	twice, err := NormalizeRelativePayloadPath(once)
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestNormalizeRelativePayloadPathRejectsTraversal(t *testing.T) {
	for _, raw := range []string{`../secret.dll`, `mods/../secret.dll`, `.\mods\..\secret.dll`} {
		_, err := NormalizeRelativePayloadPath(raw)
		require.Error(t, err)
		var pgErr *Error
		require.ErrorAs(t, err, &pgErr)
		require.Equal(t, "PathTraversalNotAllowed", pgErr.Code)
	}
}

func TestNormalizeRelativePayloadPathRejectsAbsolute(t *testing.T) {
	for _, raw := range []string{"/opt/game/game.exe", `C:\Games\Demo\game.exe`, "d:/games/demo.exe", "////"} {
		_, err := NormalizeRelativePayloadPath(raw)
		require.Error(t, err)
		var pgErr *Error
		require.ErrorAs(t, err, &pgErr)
		require.Equal(t, "AbsolutePathNotAllowed", pgErr.Code)
	}
}

func TestNormalizeRelativePayloadPathRejectsEmptyOrDotOnly(t *testing.T) {
	for _, raw := range []string{"", "   ", ".", "./", ".\\", ".//./"} {
		_, err := NormalizeRelativePayloadPath(raw)
		require.Error(t, err)
		var pgErr *Error
		require.ErrorAs(t, err, &pgErr)
		require.Equal(t, "InvalidRelativePath", pgErr.Code)
	}
}

func TestNormalizeWindowsMountTargetNormalizesCaseAndSeparators(t *testing.T) {
	normalized, err := NormalizeWindowsMountTarget("c:/Users/steamuser/Documents/MyGame")
	require.NoError(t, err)
	require.Equal(t, `C:\Users\steamuser\Documents\MyGame`, normalized)
}

func TestNormalizeWindowsMountTargetRejectsEnvVarsAndUNC(t *testing.T) {
	for _, raw := range []string{`C:\%APPDATA%\Game`, `\\host\share`, "//host/share", "", "  "} {
		_, err := NormalizeWindowsMountTarget(raw)
		require.Error(t, err)
	}
}

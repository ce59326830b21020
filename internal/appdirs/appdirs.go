// Package appdirs centralizes the single state root every persisted
// artifact (prefixes, overrides, locks) lives under, matching the
// "all persisted state is rooted under a single directory to simplify
// teardown" design note.
package appdirs

import (
	"errors"
	"os"
	"path/filepath"
)

const appName = "luthier-run"

var ErrMissingHome = errors.New("appdirs: HOME is not set")

func StateRoot() (string, error) {
	home := os.Getenv("HOME")
	if home == "" {
		return "", ErrMissingHome
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

func PrefixesDir() (string, error) {
	root, err := StateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "prefixes"), nil
}

func OverridesDir() (string, error) {
	root, err := StateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "overrides"), nil
}

func LocksDir() (string, error) {
	root, err := StateRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, "locks"), nil
}

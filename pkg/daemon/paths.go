package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	// dataDirectoryName is the name of valve's data directory, resolved
	// relative to the current user's home directory.
	dataDirectoryName = ".valve"

	// lockName is the name of the daemon lock file. It resides at the root of
	// the data directory so that it can be acquired before anything else
	// (including the registry) is touched.
	lockName = "daemon.lock"

	// registryName is the name of the codebase registry file.
	registryName = "registry.json"

	// chroniclesDirectoryName is the subdirectory holding chronicle logs.
	chroniclesDirectoryName = "chronicles"

	// chronicleName is the name of the default chronicle log file.
	chronicleName = "valve.ndjson"
)

// homeDirectory is the cached path to the current user's home directory.
var homeDirectory string

func init() {
	h, err := os.UserHomeDir()
	if err != nil {
		panic(errors.Wrap(err, "unable to query user's home directory"))
	} else if h == "" {
		panic(errors.New("home directory path empty"))
	}
	homeDirectory = h
}

// Root returns the path to valve's data directory, creating it (with
// restrictive permissions) if it doesn't already exist.
func Root() (string, error) {
	root := filepath.Join(homeDirectory, dataDirectoryName)
	if err := os.MkdirAll(root, 0700); err != nil {
		return "", fmt.Errorf("unable to create data directory: %w", err)
	}
	return root, nil
}

// subpath computes a subpath of the data directory, creating the data
// directory (but not any further intermediate directories) in the process.
func subpath(name string) (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// lockPath computes the path to the daemon lock file.
func lockPath() (string, error) {
	return subpath(lockName)
}

// RegistryPath computes the path to the codebase registry file.
func RegistryPath() (string, error) {
	return subpath(registryName)
}

// ChroniclePath computes the path to the default chronicle log file,
// creating the chronicles subdirectory if necessary.
func ChroniclePath() (string, error) {
	root, err := Root()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(root, chroniclesDirectoryName)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("unable to create chronicles directory: %w", err)
	}
	return filepath.Join(dir, chronicleName), nil
}

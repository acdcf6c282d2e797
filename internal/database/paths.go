package database

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppDirName       = ".facility-locator"
	SQLiteDBFileName = "runs.db"
)

// GetAppDir returns ~/.facility-locator, creating it if needed
func GetAppDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	appDir := filepath.Join(homeDir, AppDirName)
	if err := os.MkdirAll(appDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create app directory: %w", err)
	}

	return appDir, nil
}

// GetDefaultDBPath returns the default SQLite database path: ~/.facility-locator/runs.db
func GetDefaultDBPath() (string, error) {
	appDir, err := GetAppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(appDir, SQLiteDBFileName), nil
}

// ResolveDBPath expands a leading ~ in path and creates the parent directory.
// An empty path selects the default; ":memory:" is returned unchanged.
func ResolveDBPath(path string) (string, error) {
	if path == "" {
		return GetDefaultDBPath()
	}
	if path == ":memory:" {
		return path, nil
	}
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[1:])
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

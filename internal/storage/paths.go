// Package storage persists saved games, preferences and statistics in
// BadgerDB.
package storage

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tilechess"

// DataDirEnv overrides the platform data directory when set.
const DataDirEnv = "TILECHESS_DATA_DIR"

// GetDataDir returns the application data directory, creating it if
// needed. TILECHESS_DATA_DIR wins over the platform default:
// - macOS: ~/Library/Application Support/tilechess/
// - Linux: $XDG_DATA_HOME/tilechess/ or ~/.local/share/tilechess/
// - Windows: %APPDATA%/tilechess/
func GetDataDir() (string, error) {
	dataDir := os.Getenv(DataDirEnv)
	if dataDir == "" {
		base, err := platformDataHome()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(base, appName)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}
	return dataDir, nil
}

func platformDataHome() (string, error) {
	home, err := os.UserHomeDir()

	switch runtime.GOOS {
	case "darwin":
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil

	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			return dir, nil
		}
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "AppData", "Roaming"), nil
	}

	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// GetDatabaseDir returns the directory for storing the BadgerDB database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dbDir := filepath.Join(dataDir, "db")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return "", err
	}

	log.Printf("Database directory: %s", dbDir)
	return dbDir, nil
}

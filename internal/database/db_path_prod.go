//go:build prod

package database

import (
	"log"
	"os"
	"path/filepath"
)

const dbFileName = "braindrive-settings.db"

// GetDefaultDBPath stores the database under the user's config directory,
// falling back to the working directory when that is not writable.
func GetDefaultDBPath() string {
	dir, err := AppDataDir()
	if err != nil {
		log.Printf("Warning: %v. Using fallback database path.", err)
		return dbFileName
	}
	return filepath.Join(dir, dbFileName)
}

// AppDataDir returns (and creates) the per-user application directory.
func AppDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	appDir := filepath.Join(configDir, "braindrive-settings")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		return "", err
	}
	return appDir, nil
}

func IsDevelopment() bool {
	return false
}

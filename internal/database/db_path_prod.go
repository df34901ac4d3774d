//go:build prod

package database

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// GetDefaultDBPath returns the database path for production mode.
// In production, the database is stored in the user's config directory.
func GetDefaultDBPath() string {
	fallback := filepath.Join(".quickedit", "quickedit.db")
	configDir, err := os.UserConfigDir()
	if err != nil {
		logrus.WithError(err).Warn("failed to get user config dir, using fallback database path")
		return fallback
	}

	appDir := filepath.Join(configDir, "quickedit")
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		logrus.WithError(err).Warn("failed to create app config dir, using fallback database path")
		return fallback
	}

	return filepath.Join(appDir, "quickedit.db")
}

func IsDevelopment() bool {
	return false
}

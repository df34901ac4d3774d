//go:build !prod

package database

import "path/filepath"

// GetDefaultDBPath keeps the development database next to the project being
// edited so it is easy to inspect and throw away.
func GetDefaultDBPath() string {
	return filepath.Join(".quickedit", "quickedit.db")
}

func IsDevelopment() bool {
	return true
}

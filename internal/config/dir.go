// Package config provides the wasdoing configuration directory and the
// config.yaml settings file.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the wasdoing configuration directory.
//
// Resolution:
//   - $WASDOING_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/wasdoing if set (respects XDG on any platform)
//   - %AppData%/wasdoing on Windows
//   - ~/.config/wasdoing on macOS and Linux
func Dir() string {
	// Explicit override
	if dir := os.Getenv("WASDOING_CONFIG_HOME"); dir != "" {
		return dir
	}

	// XDG override (works on any platform)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wasdoing")
	}

	// Windows: use AppData
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "wasdoing")
		}
	}

	// macOS and Linux: ~/.config/wasdoing
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "wasdoing")
}

// ContextsDir returns the directory holding per-context stores.
func ContextsDir(configDir string) string {
	return filepath.Join(configDir, "contexts")
}

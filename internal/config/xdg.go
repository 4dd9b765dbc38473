package config

import (
	"log/slog"
	"path/filepath"

	"github.com/adrg/xdg"
)

// AppDir is the directory name used under every XDG base directory
const AppDir = "discord-forge"

// XDGDirs resolves forge's config and cache locations
type XDGDirs struct{}

func NewXDGDirs() *XDGDirs {
	return &XDGDirs{}
}

// GetCachePath returns $XDG_CACHE_HOME/discord-forge[/purpose]
func (x *XDGDirs) GetCachePath(purpose string) string {
	return filepath.Join(xdg.CacheHome, AppDir, purpose)
}

// GetConfigPaths returns candidate locations for filename, the user config
// dir first and then each system config dir
func (x *XDGDirs) GetConfigPaths(filename string) []string {
	dirs := append([]string{xdg.ConfigHome}, xdg.ConfigDirs...)
	paths := make([]string, len(dirs))
	for i, dir := range dirs {
		paths[i] = filepath.Join(dir, AppDir, filename)
	}
	slog.Debug("config search paths", "filename", filename, "paths", paths)
	return paths
}

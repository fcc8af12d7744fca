// Package where resolves the application's filesystem locations.
package where

import (
	"os"
	"path/filepath"

	"github.com/arsu-cli/arsu/constant"
	"github.com/arsu-cli/arsu/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath overrides the configuration directory.
const EnvConfigPath = "ARSU_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the configuration directory, honouring ARSU_CONFIG_PATH.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Arsu))
}

// Cache resolves the cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Arsu))
}

// Logs resolves the log directory.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// History resolves the watch history file.
func History() string {
	return filepath.Join(Config(), "history.json")
}

// Catalog resolves the cached video listing file.
func Catalog() string {
	return filepath.Join(Cache(), "catalog.json")
}

// Temp resolves the directory for transient artifacts such as player sockets.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Arsu))
}

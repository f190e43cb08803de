package pkg

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Environment variables that override the directories below. A relative
// value is taken relative to the working directory.
const (
	EnvConfigDir = "KLISP_CONFIG_DIR"
	EnvCacheDir  = "KLISP_CACHE_DIR"
)

// Prefix is the directory name klisp uses under the user's config and cache
// roots: the executable's base name without extension or leading dots, or
// [Name] when that is empty or a debugger build such as "__debug_bin123".
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(func() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}

	return prefixOf(exe)
})

func prefixOf(exe string) string {
	base := strings.TrimLeft(filepath.Base(exe), ".")
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if base == "" || strings.HasPrefix(base, "__debug_bin") {
		return Name
	}

	return base
}

// ConfigDir returns the directory holding config.kl and config.json.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(func() string {
	return userDir(EnvConfigDir, os.UserConfigDir, ".config")
})

// CacheDir returns the directory holding the REPL history and the default
// database.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(func() string {
	return userDir(EnvCacheDir, os.UserCacheDir, ".cache")
})

// userDir resolves a per-user directory: the override in env if set,
// otherwise root()/Prefix, falling back to $HOME/hidden/Prefix and finally
// the working directory.
func userDir(env string, root func() (string, error), hidden string) string {
	if dir := os.Getenv(env); dir != "" {
		if abs, err := filepath.Abs(dir); err == nil {
			return abs
		}

		return dir
	}

	dir, err := root()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}

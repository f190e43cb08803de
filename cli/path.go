package cli

import (
	"os"
	"path/filepath"

	"github.com/ardnew/klisp/pkg"
)

const (
	// baseConfig is the base name of the configuration files.
	baseConfig = "config"
	// configExt is the extension of the klisp configuration file.
	configExt = ".kl"
	// baseDB is the base name of the default database.
	baseDB = pkg.Name + ".db"
)

var defaultDirMode os.FileMode = 0o700

// configPath joins elem onto the configuration directory.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{pkg.ConfigDir()}, elem...)...)
}

// cachePath joins elem onto the cache directory.
func cachePath(elem ...string) string {
	return filepath.Join(append([]string{pkg.CacheDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{pkg.ConfigDir(), pkg.CacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}

package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DirMode is the permission mode for directories created by [MkdirAll].
const DirMode os.FileMode = 0o700

// Prefix returns the base name used for the configuration and cache
// directories.
//
// By default, Prefix is the base name of the executable file unless it matches
// one of the following substitution rules:
//   - "__debug_bin" (default output of the dlv debugger): replaced with [Name]
//   - "^\.+" (dot-prefixed names): remove the dot prefix
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		exe, err := os.Executable()
		if err == nil {
			id = exe
		}

		ext := filepath.Ext(filepath.Base(id))
		id = strings.TrimSuffix(filepath.Base(id), ext)

		for rex, rep := range map[*regexp.Regexp]string{
			regexp.MustCompile(`^__debug_bin\d+$`): Name, // default output from dlv
			regexp.MustCompile(`^\.+`):             "",   // remove leading dot(s)
		} {
			id = rex.ReplaceAllString(id, rep)
		}

		if id == "" {
			id = Name
		}

		return id
	},
)

// ConfigDir returns the configuration directory path.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string {
		return userDir(os.UserConfigDir, ".config")
	},
)

// CacheDir returns the cache directory path used for transient files such as
// REPL history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string {
		return userDir(os.UserCacheDir, ".cache")
	},
)

// userDir resolves a per-user directory, falling back to a dot-directory in
// the home directory and then the working directory.
func userDir(base func() (string, error), home string) string {
	dir, err := base()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(dir, home)
		} else {
			dir, err = os.Getwd()
			if err != nil {
				dir = "."
			}
		}
	}

	return filepath.Join(dir, Prefix())
}

// ConfigPath joins elem onto [ConfigDir].
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{ConfigDir()}, elem...)...)
}

// CachePath joins elem onto [CacheDir].
func CachePath(elem ...string) string {
	return filepath.Join(append([]string{CacheDir()}, elem...)...)
}

// MkdirAll creates the configuration and cache directories.
func MkdirAll() error {
	for _, dir := range []string{ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return MakeError(err).Wrapf("create directory %s", dir)
		}
	}

	return nil
}

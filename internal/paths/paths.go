package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const (
	// ListFileName is the record list kept in the install root
	ListFileName = "osu.Game.Rulesets.List.txt"

	velopackDir    = "current"
	squirrelPrefix = "app-"
)

// ErrNoVersionDir is returned when an install root holds no game version folder
var ErrNoVersionDir = errors.New("no osu!lazer version folder found")

// DefaultInstallRoot returns the usual osu!lazer install location, or "" when unknown
func DefaultInstallRoot() string {
	if runtime.GOOS != "windows" {
		return ""
	}
	local := os.Getenv("LOCALAPPDATA")
	if local == "" {
		return ""
	}
	return filepath.Join(local, "osulazer")
}

// IsDir reports whether path is an existing directory
func IsDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// VersionDirs lists the game version folders under root, newest first.
// Velopack installs use a single "current" folder; older Squirrel installs
// keep one "app-<version>" folder per release.
func VersionDirs(root string) ([]string, error) {
	if IsDir(filepath.Join(root, velopackDir)) {
		return []string{filepath.Join(root, velopackDir)}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read install root: %w", err)
	}

	type versioned struct {
		name string
		v    *semver.Version
	}
	var dirs []versioned
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(strings.ToLower(entry.Name()), squirrelPrefix) {
			continue
		}
		v, _ := semver.NewVersion(entry.Name()[len(squirrelPrefix):])
		dirs = append(dirs, versioned{name: entry.Name(), v: v})
	}

	// Parsable versions first, newest on top; the rest by name, reversed
	slices.SortFunc(dirs, func(a, b versioned) int {
		switch {
		case a.v != nil && b.v != nil:
			return b.v.Compare(a.v)
		case a.v != nil:
			return -1
		case b.v != nil:
			return 1
		}
		return strings.Compare(b.name, a.name)
	})

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		result = append(result, filepath.Join(root, d.name))
	}
	return result, nil
}

// SelectVersionDir returns override when set, otherwise the newest version folder under root
func SelectVersionDir(root, override string) (string, error) {
	if override != "" {
		if !IsDir(override) {
			return "", fmt.Errorf("version folder does not exist: %s", override)
		}
		return override, nil
	}

	dirs, err := VersionDirs(root)
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		return "", ErrNoVersionDir
	}
	return dirs[0], nil
}

// ListFile returns the path of the record list for an install root
func ListFile(root string) string {
	return filepath.Join(root, ListFileName)
}

// FindActual finds the actual case of a file on case-insensitive filesystems
func FindActual(targetPath string) (string, error) {
	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, nil
	}

	dir := filepath.Dir(targetPath)
	filename := filepath.Base(targetPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return targetPath, nil
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return targetPath, nil
}

// FileProbe returns a case-insensitive existence check for files inside dir.
// It returns nil when dir is not an existing directory.
func FileProbe(dir string) func(name string) bool {
	if !IsDir(dir) {
		return nil
	}
	return func(name string) bool {
		actual, _ := FindActual(filepath.Join(dir, name))
		info, err := os.Stat(actual)
		return err == nil && !info.IsDir()
	}
}

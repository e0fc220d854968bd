package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/distantorigin/mode-manager/internal/testutil"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MODEMGR_INSTALL_DIR", "MODEMGR_VERSION_DIR", "GITHUB_TOKEN",
		"MODEMGR_LOG_FORMAT", "MODEMGR_LOG_LEVEL", "MODEMGR_JOBS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	c, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Update.Jobs != 1 || c.Update.AssetExt != ".dll" || c.Update.Trash != "dir" {
		t.Errorf("update defaults = %+v", c.Update)
	}
	if c.Logging.Format != "text" || c.Logging.Level != "info" {
		t.Errorf("logging defaults = %+v", c.Logging)
	}
	if c.GitHub.CacheTTL != 10*time.Minute {
		t.Errorf("cache ttl = %v", c.GitHub.CacheTTL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, `
install:
  root: /games/osulazer
  version_dir: app-2024.1009.1
github:
  cache_ttl: 1m
update:
  jobs: 4
  trash: recycle
logging:
  level: debug
sound: true
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Install.Root != "/games/osulazer" || c.Install.VersionDir != "app-2024.1009.1" {
		t.Errorf("install = %+v", c.Install)
	}
	if c.Update.Jobs != 4 || c.Update.Trash != "recycle" {
		t.Errorf("update = %+v", c.Update)
	}
	if c.Update.AssetExt != ".dll" {
		t.Errorf("unset field lost its default: %q", c.Update.AssetExt)
	}
	if c.GitHub.CacheTTL != time.Minute || c.Logging.Level != "debug" || !c.Sound {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, "install:\n  root: /from/file\nupdate:\n  jobs: 2\n")

	t.Setenv("MODEMGR_INSTALL_DIR", "/from/env")
	t.Setenv("MODEMGR_VERSION_DIR", "current")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("MODEMGR_LOG_FORMAT", "json")
	t.Setenv("MODEMGR_LOG_LEVEL", "warn")
	t.Setenv("MODEMGR_JOBS", "6")

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if c.Install.Root != "/from/env" || c.Install.VersionDir != "current" {
		t.Errorf("install = %+v", c.Install)
	}
	if c.GitHub.Token != "ghp_test" || c.Logging.Format != "json" || c.Logging.Level != "warn" || c.Update.Jobs != 6 {
		t.Errorf("config = %+v", c)
	}
}

func TestReadFileIgnoresEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	testutil.WriteFile(t, path, "install:\n  root: /from/file\n")

	t.Setenv("MODEMGR_INSTALL_DIR", "/from/env")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("MODEMGR_JOBS", "6")

	c, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if c.Install.Root != "/from/file" || c.GitHub.Token != "" || c.Update.Jobs != 1 {
		t.Errorf("ReadFile() picked up environment: %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"malformed yaml", "update: [", "failed to parse"},
		{"zero jobs", "update:\n  jobs: 0\n", "jobs"},
		{"unknown trash", "update:\n  trash: shred\n", "trash"},
		{"negative ttl", "github:\n  cache_ttl: -1s\n", "cache_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			testutil.WriteFile(t, path, tt.content)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadConfig() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := DefaultConfig()
	c.Install.Root = "/games/osulazer"
	c.GitHub.Token = "secret"
	c.Update.Jobs = 3

	if err := Save(path, c); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Error("Save() wrote the token")
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Install.Root != "/games/osulazer" || loaded.Update.Jobs != 3 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(path) != "config.yaml" || filepath.Base(filepath.Dir(path)) != AppName {
		t.Errorf("DefaultPath() = %s", path)
	}
}

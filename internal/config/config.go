package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/distantorigin/mode-manager/internal/paths"
	"github.com/distantorigin/mode-manager/internal/trash"
)

// AppName names the config folder
const AppName = "mode-manager"

type Config struct {
	Install struct {
		Root       string `yaml:"root"`        // osu!lazer data folder holding the version folders
		VersionDir string `yaml:"version_dir"` // "" picks the newest automatically
	} `yaml:"install"`

	GitHub struct {
		Token    string        `yaml:"token"`
		BaseURL  string        `yaml:"base_url"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"github"`

	Update struct {
		Jobs     int    `yaml:"jobs"`
		AssetExt string `yaml:"asset_ext"`
		Trash    string `yaml:"trash"` // "dir"|"recycle"
	} `yaml:"update"`

	Logging struct {
		Format string `yaml:"format"` // "text"|"json"
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
	} `yaml:"logging"`

	Sound bool `yaml:"sound"`
}

func DefaultConfig() Config {
	var c Config
	c.Install.Root = paths.DefaultInstallRoot()
	c.GitHub.CacheTTL = 10 * time.Minute
	c.Update.Jobs = 1
	c.Update.AssetExt = ".dll"
	c.Update.Trash = trash.KindDir
	c.Logging.Format = "text"
	c.Logging.Level = "info"
	return c
}

// DefaultPath is $UserConfigDir/mode-manager/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to find config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file is not an error; a malformed one is.
func LoadConfig(path string) (Config, error) {
	c, err := ReadFile(path)
	if err != nil {
		return c, err
	}
	applyEnv(&c)
	return c, c.Validate()
}

// ReadFile reads path over the defaults without environment overrides.
// Use it to load a config that will be saved back.
func ReadFile(path string) (Config, error) {
	c := DefaultConfig()
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return c, fmt.Errorf("failed to read config: %w", err)
	}
	return c, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv("MODEMGR_INSTALL_DIR"); v != "" {
		c.Install.Root = v
	}
	if v := os.Getenv("MODEMGR_VERSION_DIR"); v != "" {
		c.Install.VersionDir = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv("MODEMGR_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("MODEMGR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MODEMGR_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Update.Jobs = n
		}
	}
}

// Validate checks values that would otherwise fail later
func (c Config) Validate() error {
	if c.Update.Jobs < 1 {
		return fmt.Errorf("update.jobs must be at least 1, got %d", c.Update.Jobs)
	}
	switch c.Update.Trash {
	case "", trash.KindDir, trash.KindRecycle:
	default:
		return fmt.Errorf("unknown update.trash %q (want %q or %q)", c.Update.Trash, trash.KindDir, trash.KindRecycle)
	}
	if c.GitHub.CacheTTL < 0 {
		return errors.New("github.cache_ttl must not be negative")
	}
	return nil
}

// Save writes c to path, creating its folder. The token is never written.
func Save(path string, c Config) error {
	c.GitHub.Token = ""
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

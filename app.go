package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/distantorigin/mode-manager/internal/audio"
	"github.com/distantorigin/mode-manager/internal/config"
	"github.com/distantorigin/mode-manager/internal/console"
	"github.com/distantorigin/mode-manager/internal/download"
	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/paths"
	"github.com/distantorigin/mode-manager/internal/prompt"
	"github.com/distantorigin/mode-manager/internal/resolver"
	"github.com/distantorigin/mode-manager/internal/ruleset"
	"github.com/distantorigin/mode-manager/internal/store"
	"github.com/distantorigin/mode-manager/internal/trash"
	"github.com/distantorigin/mode-manager/internal/updater"
	"github.com/distantorigin/mode-manager/internal/version"
)

// app carries the configured collaborators shared by every command
type app struct {
	cfg        config.Config
	configPath string
	log        *slog.Logger
	stdout     io.Writer

	gh     *github.Client
	dl     *download.Downloader
	sound  *audio.Player
	prompt prompt.Config
}

func newApp(opts options, flags *pflag.FlagSet, stdout, stderr io.Writer) (*app, error) {
	cfgPath := opts.configPath
	if cfgPath == "" {
		var err error
		if cfgPath, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	// Flags beat config and environment
	if opts.installDir != "" {
		cfg.Install.Root = opts.installDir
	}
	if opts.versionDir != "" {
		cfg.Install.VersionDir = opts.versionDir
	}
	if opts.token != "" {
		cfg.GitHub.Token = opts.token
	}
	if flags.Changed("jobs") {
		cfg.Update.Jobs = opts.jobs
	}
	if flags.Changed("sound") {
		cfg.Sound = opts.sound
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	console.SetQuiet(opts.quiet)
	console.SetOutput(stdout)
	if opts.noColor {
		console.DisableColor()
	}
	logger := console.InitLogger(stderr, cfg.Logging.Format, cfg.Logging.Level, opts.quiet, opts.verbose)

	userAgent := "mode-manager/" + version.Current
	gh := github.NewClient(nil)
	gh.SetUserAgent(userAgent)
	gh.SetToken(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		gh.SetBaseURL(cfg.GitHub.BaseURL)
	}
	if cfg.GitHub.CacheTTL > 0 {
		gh.EnableCache(cfg.GitHub.CacheTTL)
	}

	player := audio.NewPlayer(cfg.Sound && !opts.quiet, logger)

	return &app{
		cfg:        cfg,
		configPath: cfgPath,
		log:        logger,
		stdout:     stdout,
		gh:         gh,
		dl:         download.New(userAgent),
		sound:      player,
		prompt: prompt.Config{
			NonInteractive: opts.nonInteractive,
			Sound:          player,
		},
	}, nil
}

// root returns the configured install root, which must exist
func (a *app) root() (string, error) {
	root := a.cfg.Install.Root
	if root == "" {
		return "", errors.New("no osu!lazer install configured; run 'mode-manager setup <path>' or pass --install-dir")
	}
	if !paths.IsDir(root) {
		return "", fmt.Errorf("install folder does not exist: %s", root)
	}
	return root, nil
}

// versionDir picks the game folder plugins are installed into.
// A relative version_dir setting is taken as a folder name under the root.
func (a *app) versionDir(root string) (string, error) {
	override := a.cfg.Install.VersionDir
	if override != "" && !filepath.IsAbs(override) {
		override = filepath.Join(root, override)
	}
	return paths.SelectVersionDir(root, override)
}

func (a *app) listPath() (string, error) {
	root, err := a.root()
	if err != nil {
		return "", err
	}
	return paths.ListFile(root), nil
}

func (a *app) loadRecords() ([]ruleset.Record, string, error) {
	path, err := a.listPath()
	if err != nil {
		return nil, "", err
	}
	records, err := store.Load(path)
	if err != nil {
		return nil, "", err
	}
	return records, path, nil
}

// newSession builds an update session over records. A missing version
// folder is not fatal here: checks then skip the file probe and an update
// stops with updater.ErrInstallDir.
func (a *app) newSession(records []ruleset.Record) (*updater.Session, error) {
	root, err := a.root()
	if err != nil {
		return nil, err
	}

	dir, err := a.versionDir(root)
	if err != nil {
		a.log.Warn("no version folder", "root", root, "error", err)
		dir = ""
	}

	var bin trash.Bin
	if dir != "" {
		bin, err = trash.New(a.cfg.Update.Trash, dir)
		if errors.Is(err, trash.ErrUnsupported) {
			a.log.Warn("recycle bin unavailable, using .old folder", "error", err)
			bin, err = trash.New(trash.KindDir, dir)
		}
		if err != nil {
			return nil, err
		}
	}

	res := &resolver.Resolver{Lister: a.gh, Logger: a.log}
	batch := &updater.Batch{
		InstallDir: dir,
		Trash:      bin,
		Downloader: a.dl,
		AssetExt:   a.cfg.Update.AssetExt,
		Jobs:       a.cfg.Update.Jobs,
		Logger:     a.log,
	}
	return updater.NewSession(records, res, batch), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/distantorigin/mode-manager/internal/changelog"
	"github.com/distantorigin/mode-manager/internal/config"
	"github.com/distantorigin/mode-manager/internal/console"
	"github.com/distantorigin/mode-manager/internal/known"
	"github.com/distantorigin/mode-manager/internal/paths"
	"github.com/distantorigin/mode-manager/internal/process"
	"github.com/distantorigin/mode-manager/internal/prompt"
	"github.com/distantorigin/mode-manager/internal/ruleset"
	"github.com/distantorigin/mode-manager/internal/selfupdate"
	"github.com/distantorigin/mode-manager/internal/store"
	"github.com/distantorigin/mode-manager/internal/trash"
	"github.com/distantorigin/mode-manager/internal/updater"
	"github.com/distantorigin/mode-manager/internal/version"
)

func init() {
	register("setup", command{
		usage: "setup <install-root>",
		help:  "Remember the osu!lazer install folder",
		run:   runSetup,
	})
	register("list", command{
		usage: "list [--check]",
		help:  "Show tracked rulesets",
		run:   runList,
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("check", false, "Look up update status for every ruleset")
		},
	})
	register("add", command{
		usage: "add <url|owner/repo> [--tag T] [--file F]",
		help:  "Track a ruleset repository",
		run:   runAdd,
		flags: func(fs *pflag.FlagSet) {
			fs.String("tag", "", "Installed release tag (default: latest)")
			fs.String("file", "", "Ruleset file name (default: first matching asset of the latest release)")
		},
	})
	register("edit", command{
		usage: "edit <index> [--url U] [--tag T] [--file F]",
		help:  "Change a tracked ruleset",
		run:   runEdit,
		flags: func(fs *pflag.FlagSet) {
			fs.String("url", "", "Repository link or owner/repo")
			fs.String("tag", "", "Installed release tag")
			fs.String("file", "", "Ruleset file name")
		},
	})
	register("remove", command{
		usage: "remove <index>",
		help:  "Stop tracking a ruleset",
		run:   runRemove,
	})
	register("import", command{
		usage: "import <file>",
		help:  "Replace the ruleset list from a file (.json or list format)",
		run:   runImport,
	})
	register("export", command{
		usage: "export <file>",
		help:  "Write the ruleset list to a file (.json or list format)",
		run:   runExport,
	})
	register("check", command{
		usage: "check",
		help:  "Check every ruleset for updates",
		run:   runCheck,
	})
	register("update", command{
		usage: "update [--all] [--force] [--wait D] [index...]",
		help:  "Download and install available updates",
		run:   runUpdate,
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("all", false, "Install every available update without asking")
			fs.Bool("force", false, "Install even while osu! is running")
			fs.Duration("wait", 0, "Wait up to this long for osu! to close")
		},
	})
	register("clean", command{
		usage: "clean",
		help:  "Delete files moved aside by earlier updates",
		run:   runClean,
	})
	register("notes", command{
		usage: "notes",
		help:  "Show release notes for available updates",
		run:   runNotes,
	})
	register("known", command{
		usage: "known",
		help:  "List ruleset repositories known to the community",
		run:   runKnown,
	})
	register("installs", command{
		usage: "installs [--select]",
		help:  "List game version folders in the install root",
		run:   runInstalls,
		flags: func(fs *pflag.FlagSet) {
			fs.Bool("select", false, "Pick the folder to install into and remember it")
		},
	})
	register("self-update", command{
		usage: "self-update [--download DIR] [--extract DIR] [--force]",
		help:  "Check for a newer mode-manager release",
		run:   runSelfUpdate,
		flags: func(fs *pflag.FlagSet) {
			fs.String("download", "", "Save the release archive into DIR")
			fs.String("extract", "", "Unpack the release into DIR")
			fs.Bool("force", false, "Check even on a development build")
		},
	})
	register("version", command{
		usage: "version",
		help:  "Show the mode-manager version",
		run:   runVersion,
	})
}

// parseIndex turns a 1-based list position into a record index
func parseIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, usagef("invalid index %q", s)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("index %d out of range (1-%d)", i, n)
	}
	return i - 1, nil
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return usagef("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func runSetup(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	root, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	if !paths.IsDir(root) {
		return fmt.Errorf("install folder does not exist: %s", root)
	}

	dirs, err := paths.VersionDirs(root)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		console.Warn("No game version folder found in %s yet.", root)
	} else {
		console.Log("Rulesets will be installed into %s", dirs[0])
	}

	// Save only what the config file holds, not flag or environment overrides
	cfg, err := config.ReadFile(a.configPath)
	if err != nil {
		return err
	}
	cfg.Install.Root = root
	if err := config.Save(a.configPath, cfg); err != nil {
		return err
	}
	console.Success("Install folder set to %s", root)
	return nil
}

func runList(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	records, _, err := a.loadRecords()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		console.Log("No rulesets tracked. Use 'mode-manager add <repo>' to add one.")
		return nil
	}

	check, _ := fs.GetBool("check")
	if check {
		sess, err := a.newSession(records)
		if err != nil {
			return err
		}
		if _, err := sess.Check(ctx); err != nil {
			return err
		}
		records = sess.Records()
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for i, r := range records {
		tag := r.Tag
		if tag == "" {
			tag = "-"
		}
		line := fmt.Sprintf("%d\t%s\t%s\t%s", i+1, r.FileName, tag, r.Slug())
		if check {
			line += "\t" + console.Status(r.Status)
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// fillFromLatest completes a missing tag or file name from the newest release
func fillFromLatest(ctx context.Context, a *app, rec *ruleset.Record) error {
	releases, err := a.gh.ListReleases(ctx, rec.Owner, rec.Repo)
	if err != nil {
		return fmt.Errorf("failed to look up releases for %s: %w", rec.Slug(), err)
	}
	if len(releases) == 0 {
		return fmt.Errorf("%s has no releases", rec.Slug())
	}
	latest := releases[0]

	if rec.FileName == "" {
		asset, ok := latest.FindAsset("", a.cfg.Update.AssetExt)
		if !ok {
			return fmt.Errorf("release %s of %s has no %s asset; pass --file", latest.TagName, rec.Slug(), a.cfg.Update.AssetExt)
		}
		rec.FileName = asset.Name
	}
	if rec.Tag == "" {
		rec.Tag = latest.TagName
	}
	return nil
}

func runAdd(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	owner, repo, err := ruleset.ParseGitHubURL(args[0])
	if err != nil {
		return err
	}
	records, path, err := a.loadRecords()
	if err != nil {
		return err
	}

	rec := ruleset.Record{Owner: owner, Repo: repo}
	rec.Tag, _ = fs.GetString("tag")
	rec.FileName, _ = fs.GetString("file")
	if rec.Tag == "" || rec.FileName == "" {
		if err := fillFromLatest(ctx, a, &rec); err != nil {
			return err
		}
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	for _, r := range records {
		if strings.EqualFold(r.FileName, rec.FileName) {
			return fmt.Errorf("%s is already tracked (from %s)", rec.FileName, r.Slug())
		}
	}

	records = append(records, rec)
	if err := store.Save(path, records); err != nil {
		return err
	}
	console.Success("Added %s from %s", rec, rec.Slug())
	return nil
}

func runEdit(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	records, path, err := a.loadRecords()
	if err != nil {
		return err
	}
	i, err := parseIndex(args[0], len(records))
	if err != nil {
		return err
	}

	rec := records[i]
	changed := false
	if fs.Changed("url") {
		u, _ := fs.GetString("url")
		if rec.Owner, rec.Repo, err = ruleset.ParseGitHubURL(u); err != nil {
			return err
		}
		changed = true
	}
	if fs.Changed("tag") {
		rec.Tag, _ = fs.GetString("tag")
		changed = true
	}
	if fs.Changed("file") {
		rec.FileName, _ = fs.GetString("file")
		changed = true
	}
	if !changed {
		return usagef("nothing to change; pass --url, --tag or --file")
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	records[i] = rec
	if err := store.Save(path, records); err != nil {
		return err
	}
	console.Success("Updated %d: %s from %s", i+1, rec, rec.Slug())
	return nil
}

func runRemove(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	records, path, err := a.loadRecords()
	if err != nil {
		return err
	}
	i, err := parseIndex(args[0], len(records))
	if err != nil {
		return err
	}

	rec := records[i]
	if !prompt.Confirm(fmt.Sprintf("Stop tracking %s", rec), a.prompt) {
		console.Log("Cancelled.")
		return nil
	}

	records = slices.Delete(records, i, i+1)
	if err := store.Save(path, records); err != nil {
		return err
	}
	console.Success("Removed %s", rec)
	return nil
}

func runImport(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	path, err := a.listPath()
	if err != nil {
		return err
	}
	records, err := store.Import(args[0], path)
	if err != nil {
		return err
	}
	console.Success("Imported %d ruleset(s)", len(records))
	return nil
}

func runExport(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 1); err != nil {
		return err
	}
	records, _, err := a.loadRecords()
	if err != nil {
		return err
	}
	if err := store.Export(args[0], records); err != nil {
		return err
	}
	console.Success("Exported %d ruleset(s) to %s", len(records), args[0])
	return nil
}

// checkAll runs a resolver pass and prints one line per record
func checkAll(ctx context.Context, a *app) (*updater.Session, []ruleset.Record, string, error) {
	records, path, err := a.loadRecords()
	if err != nil {
		return nil, nil, "", err
	}
	sess, err := a.newSession(records)
	if err != nil {
		return nil, nil, "", err
	}

	console.Heading("Checking %d ruleset(s)...", len(records))
	if _, err := sess.Check(ctx); err != nil {
		return nil, nil, "", err
	}
	for _, r := range sess.Records() {
		console.Log("  %-32s %s", r, console.Status(r.Status))
	}
	return sess, records, path, nil
}

func runCheck(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	sess, _, _, err := checkAll(ctx, a)
	if err != nil {
		return err
	}
	if n := len(sess.Pending()); n > 0 {
		console.Warn("%d update(s) available. Run 'mode-manager update' to install.", n)
		return nil
	}
	console.Success("All rulesets are up to date.")
	a.sound.Play("up_to_date")
	return nil
}

func runUpdate(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	force, _ := fs.GetBool("force")
	all, _ := fs.GetBool("all")
	wait, _ := fs.GetDuration("wait")

	if !force && process.IsGameRunning() {
		if wait <= 0 {
			return errors.New("osu! is running; close it first or pass --force")
		}
		console.Log("Waiting for osu! to close...")
		if !process.WaitForTermination(wait, process.GameExecutables...) {
			return fmt.Errorf("osu! still running after %s", wait)
		}
	}

	a.sound.PlayAsync("start")
	sess, records, path, err := checkAll(ctx, a)
	if err != nil {
		return err
	}

	pending := sess.Pending()
	if len(pending) == 0 {
		console.Success("All rulesets are up to date.")
		a.sound.Play("up_to_date")
		return nil
	}

	var sel updater.Selection
	switch {
	case all:
		sel.All = true
	case len(args) > 0:
		for _, s := range args {
			i, err := parseIndex(s, len(records))
			if err != nil {
				return err
			}
			sel.Indices = append(sel.Indices, i)
		}
	default:
		sel, err = prompt.SelectUpdates(pending, a.prompt)
		if errors.Is(err, prompt.ErrCancelled) {
			console.Log("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	sess.Batch.OnDone = func(done, total int, o updater.Outcome) {
		console.Progress(done, total, "Updating")
	}
	res, err := sess.Apply(ctx, sel)
	if errors.Is(err, updater.ErrNotPending) {
		return fmt.Errorf("%w; run 'mode-manager check' to see what can be updated", err)
	}
	if res == nil {
		return err
	}

	if len(res.Succeeded()) > 0 {
		if serr := store.Save(path, sess.Records()); serr != nil {
			return serr
		}
	}
	for _, o := range res.Succeeded() {
		a.gh.Invalidate(o.Record.Owner, o.Record.Repo)
	}
	console.Log("%s", changelog.BuildSummary(res, time.Now()))

	if err != nil {
		return err
	}
	if n := len(res.Failed()); n > 0 {
		return fmt.Errorf("%d update(s) failed", n)
	}
	a.sound.Play("success")
	return nil
}

func runClean(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	root, err := a.root()
	if err != nil {
		return err
	}
	dir, err := a.versionDir(root)
	if err != nil {
		return err
	}
	bin := &trash.DirBin{Root: dir}
	if err := bin.Clean(); err != nil {
		return fmt.Errorf("failed to clean %s: %w", filepath.Join(dir, trash.OldDir), err)
	}
	console.Success("Removed old ruleset files from %s", dir)
	return nil
}

func runNotes(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	sess, _, _, err := checkAll(ctx, a)
	if err != nil {
		return err
	}
	pending := sess.Pending()
	if len(pending) == 0 {
		console.Success("All rulesets are up to date.")
		return nil
	}
	fmt.Fprint(a.stdout, changelog.ReleaseNotes(pending))
	return nil
}

func runKnown(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	repos, err := known.Fetch(ctx, a.gh, a.log)
	if err != nil {
		return fmt.Errorf("failed to fetch known rulesets: %w", err)
	}

	// Mark what is already tracked when an install is configured
	tracked := map[string]bool{}
	if records, _, err := a.loadRecords(); err == nil {
		for _, r := range records {
			tracked[strings.ToLower(r.Slug())] = true
		}
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	for _, r := range repos {
		mark := ""
		if tracked[strings.ToLower(r.String())] {
			mark = "tracked"
		}
		fmt.Fprintf(tw, "%s\thttps://github.com/%s\t%s\n", r, r, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	console.Log("%d known ruleset(s)", len(repos))
	return nil
}

func runInstalls(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	root, err := a.root()
	if err != nil {
		return err
	}
	dirs, err := paths.VersionDirs(root)
	if err != nil {
		return err
	}
	if len(dirs) == 0 {
		return paths.ErrNoVersionDir
	}

	if pick, _ := fs.GetBool("select"); pick {
		choice, err := prompt.Choose("Install rulesets into", dirs, a.prompt)
		if errors.Is(err, prompt.ErrCancelled) {
			console.Log("Cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
		cfg, err := config.ReadFile(a.configPath)
		if err != nil {
			return err
		}
		cfg.Install.VersionDir = filepath.Base(choice)
		if err := config.Save(a.configPath, cfg); err != nil {
			return err
		}
		a.cfg.Install.VersionDir = cfg.Install.VersionDir
		console.Success("Rulesets will be installed into %s", choice)
	}

	selected, _ := a.versionDir(root)
	for _, d := range dirs {
		mark := " "
		if d == selected {
			mark = "*"
		}
		fmt.Fprintf(a.stdout, "%s %s\n", mark, d)
	}
	return nil
}

func runSelfUpdate(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	if err := wantArgs(args, 0); err != nil {
		return err
	}
	downloadDir, _ := fs.GetString("download")
	extractDir, _ := fs.GetString("extract")
	force, _ := fs.GetBool("force")

	if version.IsDev() && !force {
		console.Log("Development build %s; skipping the update check (use --force).", version.String())
		return nil
	}

	u := &selfupdate.Updater{Source: a.gh, Downloader: a.dl}
	rel := u.Check(ctx)
	if rel == nil {
		console.Success("mode-manager %s is the latest version.", version.String())
		return nil
	}
	console.Log("mode-manager %s is available (running %s): %s", rel.TagName, version.Current, rel.HTMLURL)
	if downloadDir == "" && extractDir == "" {
		return nil
	}

	// Without --download the archive only lives long enough to be extracted
	archive, err := u.Download(ctx, rel, downloadDir)
	if err != nil {
		return err
	}
	if downloadDir == "" {
		defer os.Remove(archive)
	} else {
		console.Success("Downloaded %s", archive)
	}
	if extractDir == "" {
		return nil
	}

	err = selfupdate.Extract(archive, extractDir, func(current, total int, _ string) {
		console.Progress(current, total, "Extracting")
	})
	if err != nil {
		return err
	}
	console.Success("Extracted to %s", extractDir)
	return nil
}

func runVersion(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error {
	fmt.Fprintf(a.stdout, "mode-manager %s\n", version.String())
	return nil
}

// Package updater installs pending ruleset releases into the game folder.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/distantorigin/mode-manager/internal/download"
	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/paths"
	"github.com/distantorigin/mode-manager/internal/ruleset"
	"github.com/distantorigin/mode-manager/internal/trash"
)

// DefaultAssetExt is the plugin file extension looked for in release assets
const DefaultAssetExt = ".dll"

var (
	// ErrInstallDir means the install folder is missing; the batch stops there
	ErrInstallDir = errors.New("install directory does not exist")
	// ErrBusy is returned when a check or update is already running
	ErrBusy = errors.New("another check or update is already running")
)

// Fetcher downloads url to target, overwriting it
type Fetcher interface {
	File(ctx context.Context, url, target string) error
}

// Pending is a record flagged by a check together with the release to install
type Pending struct {
	Index   int
	Record  ruleset.Record
	Release github.Release
}

// State is what happened to one pending item
type State int

const (
	Updated State = iota
	Skipped
	Failed
)

func (s State) String() string {
	switch s {
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome reports one item. Record is the record after the attempt: on
// success its tag is bumped and its status is UpToDate, otherwise it is
// unchanged. Trashed is where the replaced file went, if there was one.
type Outcome struct {
	Pending Pending
	Record  ruleset.Record
	State   State
	Asset   string
	Err     error
	Trashed string
}

// Result lists outcomes in the order the items were given
type Result struct {
	Items []Outcome
}

func (r *Result) filter(state State) []Outcome {
	var out []Outcome
	for _, o := range r.Items {
		if o.State == state {
			out = append(out, o)
		}
	}
	return out
}

// Succeeded returns the updated items
func (r *Result) Succeeded() []Outcome { return r.filter(Updated) }

// Failed returns the items whose download or replacement failed
func (r *Result) Failed() []Outcome { return r.filter(Failed) }

// Skipped returns the items whose release had no matching asset
func (r *Result) Skipped() []Outcome { return r.filter(Skipped) }

// Batch installs a set of pending releases.
type Batch struct {
	InstallDir string
	// Trash receives replaced files. Defaults to a .old folder inside InstallDir.
	Trash      trash.Bin
	Downloader Fetcher
	AssetExt   string
	// Jobs > 1 downloads that many items at once
	Jobs   int
	Logger *slog.Logger

	// OnDone, if set, is called once per finished item. Calls never overlap.
	OnDone func(done, total int, o Outcome)
}

func (b *Batch) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Batch) assetExt() string {
	if b.AssetExt != "" {
		return b.AssetExt
	}
	return DefaultAssetExt
}

func (b *Batch) bin() trash.Bin {
	if b.Trash != nil {
		return b.Trash
	}
	return &trash.DirBin{Root: b.InstallDir}
}

// Run processes items and returns their outcomes in the same order.
// Per-item failures are reported in the result and never stop the batch.
// A missing install folder stops it with ErrInstallDir; items finished
// before that are still in the result. Items not yet started when ctx is
// cancelled are reported as failed with the context error.
func (b *Batch) Run(ctx context.Context, items []Pending) (*Result, error) {
	if b.Downloader == nil {
		return nil, errors.New("updater: no downloader configured")
	}
	if b.Jobs > 1 && len(items) > 1 {
		return b.runParallel(ctx, items)
	}

	res := &Result{Items: make([]Outcome, 0, len(items))}
	for _, p := range items {
		o, err := b.install(ctx, p)
		if err != nil {
			return res, err
		}
		res.Items = append(res.Items, o)
		b.report(len(res.Items), len(items), o)
	}
	return res, nil
}

func (b *Batch) runParallel(ctx context.Context, items []Pending) (*Result, error) {
	outcomes := make([]*Outcome, len(items))

	var mu sync.Mutex
	done := 0

	g, abort := errgroup.WithContext(ctx)
	g.SetLimit(b.Jobs)
	for i, p := range items {
		g.Go(func() error {
			// Stopped by a missing install folder, not by the caller
			if abort.Err() != nil && ctx.Err() == nil {
				return nil
			}
			o, err := b.install(ctx, p)
			if err != nil {
				return err
			}

			mu.Lock()
			outcomes[i] = &o
			done++
			b.report(done, len(items), o)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()

	res := &Result{Items: make([]Outcome, 0, len(items))}
	for _, o := range outcomes {
		if o != nil {
			res.Items = append(res.Items, *o)
		}
	}
	return res, err
}

func (b *Batch) report(done, total int, o Outcome) {
	if b.OnDone != nil {
		b.OnDone(done, total, o)
	}
}

// install handles one item. The only error it returns is ErrInstallDir.
func (b *Batch) install(ctx context.Context, p Pending) (Outcome, error) {
	o := Outcome{Pending: p, Record: p.Record}
	log := b.logger().With("ruleset", p.Record.Slug(), "tag", p.Release.TagName)

	if err := ctx.Err(); err != nil {
		o.State, o.Err = Failed, err
		return o, nil
	}

	if !paths.IsDir(b.InstallDir) {
		return o, fmt.Errorf("%w: %s", ErrInstallDir, b.InstallDir)
	}

	// An incomplete record must never resolve to the install folder itself
	if err := p.Record.Validate(); err != nil {
		return b.fail(log, o, fmt.Errorf("invalid record: %w", err)), nil
	}

	asset, ok := p.Release.FindAsset(p.Record.FileName, b.assetExt())
	if !ok {
		log.Info("no matching asset in release, skipping")
		o.State = Skipped
		return o, nil
	}
	o.Asset = asset.Name

	target, err := download.ValidatePath(b.InstallDir, filepath.Join(b.InstallDir, p.Record.FileName))
	if err != nil {
		return b.fail(log, o, fmt.Errorf("invalid file name %q: %w", p.Record.FileName, err)), nil
	}
	// Keep the on-disk spelling of the existing file
	target, _ = paths.FindActual(target)

	if _, err := os.Stat(target); err == nil {
		trashed, err := b.bin().Discard(target)
		if err != nil {
			return b.fail(log, o, fmt.Errorf("failed to move old file aside: %w", err)), nil
		}
		o.Trashed = trashed
		log.Debug("moved old file aside", "to", trashed)
	}

	if err := b.Downloader.File(ctx, asset.BrowserDownloadURL, target); err != nil {
		if rmErr := os.Remove(target); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warn("failed to remove partial download", "path", target, "error", rmErr)
		}
		return b.fail(log, o, fmt.Errorf("failed to download %s: %w", asset.Name, err)), nil
	}

	o.Record.Tag = p.Release.TagName
	o.Record.Status = ruleset.UpToDate
	o.State = Updated
	log.Info("updated", "file", filepath.Base(target))
	return o, nil
}

func (b *Batch) fail(log *slog.Logger, o Outcome, err error) Outcome {
	log.Warn("update failed", "error", err)
	o.State, o.Err = Failed, err
	return o
}

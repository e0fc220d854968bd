package selfupdate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/distantorigin/mode-manager/internal/download"
	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/version"
)

const (
	Owner     = "distantorigin"
	Repo      = "mode-manager"
	AssetName = "release.zip"

	checkTimeout = 5 * time.Second
)

// ReleaseSource returns the newest release of a repository
type ReleaseSource interface {
	LatestRelease(ctx context.Context, owner, repo string) (*github.Release, error)
}

// Fetcher downloads url to target, or to a temporary file
type Fetcher interface {
	File(ctx context.Context, url, target string) error
	ToTemp(ctx context.Context, url, prefix string) (string, error)
}

// Updater checks for and downloads newer releases of this tool
type Updater struct {
	Source     ReleaseSource
	Downloader Fetcher
	// Current defaults to version.Current
	Current string
}

func (u *Updater) current() string {
	if u.Current != "" {
		return u.Current
	}
	return version.Current
}

// Check returns the latest release when it is newer than the running version.
// It fails silently with a short timeout: any lookup problem means no update.
func (u *Updater) Check(ctx context.Context) *github.Release {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	rel, err := u.Source.LatestRelease(ctx, Owner, Repo)
	if err != nil || rel == nil {
		return nil
	}
	if !version.IsNewer(rel.TagName, u.current()) {
		return nil
	}
	return rel
}

// Download saves the release archive into dir and returns its path.
// An empty dir downloads to a temporary file the caller removes.
func (u *Updater) Download(ctx context.Context, rel *github.Release, dir string) (string, error) {
	asset, ok := rel.FindAsset(AssetName, ".zip")
	if !ok {
		return "", fmt.Errorf("release %s has no %s asset", rel.TagName, AssetName)
	}

	if dir == "" {
		return u.Downloader.ToTemp(ctx, asset.BrowserDownloadURL, Repo+"-"+rel.TagName+"-")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.zip", Repo, rel.TagName)
	target, err := download.ValidatePath(dir, filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("invalid release tag %q: %w", rel.TagName, err)
	}

	if err := u.Downloader.File(ctx, asset.BrowserDownloadURL, target); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}

package selfupdate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/distantorigin/mode-manager/internal/download"
	"github.com/distantorigin/mode-manager/internal/github"
	"github.com/distantorigin/mode-manager/internal/testutil"
)

type stubSource struct {
	rel *github.Release
	err error
}

func (s stubSource) LatestRelease(ctx context.Context, owner, repo string) (*github.Release, error) {
	if owner != Owner || repo != Repo {
		return nil, errors.New("unexpected repository " + owner + "/" + repo)
	}
	return s.rel, s.err
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		source  stubSource
		current string
		want    bool
	}{
		{"newer release", stubSource{rel: &github.Release{TagName: "v1.1.0"}}, "1.0.0", true},
		{"same version", stubSource{rel: &github.Release{TagName: "v1.0.0"}}, "1.0.0", false},
		{"older release", stubSource{rel: &github.Release{TagName: "v0.9.0"}}, "1.0.0", false},
		{"unparsable tag", stubSource{rel: &github.Release{TagName: "nightly"}}, "1.0.0", false},
		{"lookup error", stubSource{err: errors.New("HTTP 500")}, "1.0.0", false},
		{"no release", stubSource{}, "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &Updater{Source: tt.source, Current: tt.current}
			got := u.Check(context.Background())
			if (got != nil) != tt.want {
				t.Errorf("Check() = %v, want update %v", got, tt.want)
			}
		})
	}
}

func TestCheckServerError(t *testing.T) {
	mock := testutil.NewMockGitHubServer(t)
	mock.SetError(testutil.ReleasesPath(Owner, Repo), 500, "boom")

	u := &Updater{Source: mock.Client(), Current: "1.0.0"}
	if rel := u.Check(context.Background()); rel != nil {
		t.Errorf("Check() = %v, want nil on server error", rel)
	}
}

func TestCheckAndDownload(t *testing.T) {
	mock := testutil.NewMockGitHubServer(t)
	rel := mock.Release("v2.0.0", map[string][]byte{
		"checksums.txt": []byte("sums"),
		AssetName:       []byte("zip bytes"),
	})
	mock.SetReleases(Owner, Repo, []github.Release{rel})

	u := &Updater{
		Source:     mock.Client(),
		Downloader: download.New("mode-manager-test"),
		Current:    "1.0.0",
	}

	found := u.Check(context.Background())
	if found == nil {
		t.Fatal("Check() found no update")
	}

	dir := filepath.Join(t.TempDir(), "downloads")
	path, err := u.Download(context.Background(), found, dir)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if want := filepath.Join(dir, "mode-manager-v2.0.0.zip"); path != want {
		t.Errorf("Download() = %s, want %s", path, want)
	}
	testutil.AssertFileContent(t, path, "zip bytes")

	temp, err := u.Download(context.Background(), found, "")
	if err != nil {
		t.Fatalf("Download() to temp error = %v", err)
	}
	defer os.Remove(temp)
	if !strings.HasPrefix(filepath.Base(temp), "mode-manager-v2.0.0-") {
		t.Errorf("temp download = %s", temp)
	}
	testutil.AssertFileContent(t, temp, "zip bytes")
}

func TestDownloadNoAsset(t *testing.T) {
	u := &Updater{Downloader: download.New("test")}
	rel := &github.Release{TagName: "v2.0.0", Assets: []github.Asset{{Name: "notes.txt"}}}
	if _, err := u.Download(context.Background(), rel, t.TempDir()); err == nil {
		t.Error("Download() expected error without a zip asset")
	}
}

func TestDownloadFailureCleansUp(t *testing.T) {
	mock := testutil.NewMockGitHubServer(t)
	rel := &github.Release{TagName: "v2.0.0", Assets: []github.Asset{{
		Name:               AssetName,
		BrowserDownloadURL: mock.FailAsset(AssetName, 404),
	}}}

	dir := t.TempDir()
	u := &Updater{Downloader: download.New("test")}
	if _, err := u.Download(context.Background(), rel, dir); err == nil {
		t.Fatal("Download() expected error")
	}
	testutil.AssertFileNotExists(t, filepath.Join(dir, "mode-manager-v2.0.0.zip"))
}

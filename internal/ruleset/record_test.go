package ruleset

import (
	"errors"
	"testing"
)

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{Unchecked, "Unchecked"},
		{UpToDate, "UpToDate"},
		{UpdateRequired, "UpdateRequired"},
		{FileMissing, "FileMissing"},
		{Status(42), "Status(42)"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestStatusNeedsUpdate(t *testing.T) {
	if Unchecked.NeedsUpdate() || UpToDate.NeedsUpdate() {
		t.Error("Unchecked and UpToDate should not need an update")
	}
	if !UpdateRequired.NeedsUpdate() || !FileMissing.NeedsUpdate() {
		t.Error("UpdateRequired and FileMissing should need an update")
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{
			name:   "complete record",
			record: Record{Owner: "o", Repo: "r", FileName: "osu.Game.Rulesets.Foo.dll"},
		},
		{
			name:   "empty tag is allowed",
			record: Record{Owner: "o", Repo: "r", Tag: "", FileName: "f.dll"},
		},
		{
			name:    "missing owner",
			record:  Record{Repo: "r", FileName: "f.dll"},
			wantErr: ErrMissingOwner,
		},
		{
			name:    "blank repo",
			record:  Record{Owner: "o", Repo: "  ", FileName: "f.dll"},
			wantErr: ErrMissingRepo,
		},
		{
			name:    "missing file",
			record:  Record{Owner: "o", Repo: "r"},
			wantErr: ErrMissingFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordEqualIgnoresStatus(t *testing.T) {
	a := Record{Owner: "o", Repo: "r", Tag: "v1", FileName: "f.dll", Status: UpToDate}
	b := a
	b.Status = FileMissing

	if !a.Equal(b) {
		t.Error("Equal() should ignore status")
	}

	b.Tag = "v2"
	if a.Equal(b) {
		t.Error("Equal() should compare tags")
	}
}

func TestRecordString(t *testing.T) {
	r := Record{FileName: "osu.Game.Rulesets.Tau.dll", Tag: "2024.1"}
	if got, want := r.String(), "osu.Game.Rulesets.Tau.dll (2024.1)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		in        string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{in: "https://github.com/Altenhh/tau/", wantOwner: "Altenhh", wantRepo: "tau"},
		{in: "https://github.com/Altenhh/tau/releases/tag/2020.1", wantOwner: "Altenhh", wantRepo: "tau"},
		{in: "github.com/owner/repo", wantOwner: "owner", wantRepo: "repo"},
		{in: "owner/repo", wantOwner: "owner", wantRepo: "repo"},
		{in: "git@github.com:owner/repo.git", wantErr: true},
		{in: "https://github.com/owner/repo.git", wantOwner: "owner", wantRepo: "repo"},
		{in: "https://github.com/owner/repo?tab=readme", wantOwner: "owner", wantRepo: "repo"},
		{in: "owner/repo.name", wantOwner: "owner", wantRepo: "repo.name"},
		{in: "https://github.com/owner", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseGitHubURL(%q) expected error, got %s/%s", tt.in, owner, repo)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGitHubURL(%q) unexpected error: %v", tt.in, err)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("ParseGitHubURL(%q) = %s/%s, want %s/%s", tt.in, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}

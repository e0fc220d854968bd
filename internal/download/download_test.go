package download

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestValidatePath_PreventTraversal tests path traversal protection (SECURITY CRITICAL)
func TestValidatePath_PreventTraversal(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{
			name:   "file in base",
			target: filepath.Join(base, "osu.Game.Rulesets.Tau.dll"),
		},
		{
			name:   "file in subdirectory",
			target: filepath.Join(base, "sub", "file.dll"),
		},
		{
			name:    "base itself",
			target:  base,
			wantErr: true,
		},
		{
			name:    "empty name under base",
			target:  filepath.Join(base, ""),
			wantErr: true,
		},
		{
			name:    "name that collapses to base",
			target:  filepath.Join(base, "x", ".."),
			wantErr: true,
		},
		{
			name:    "relative traversal with ..",
			target:  filepath.Join(base, "..", "outside.dll"),
			wantErr: true,
		},
		{
			name:    "deep nesting then escape",
			target:  filepath.Join(base, "a", "b", "..", "..", "..", "outside.dll"),
			wantErr: true,
		},
		{
			name:    "sibling with shared prefix",
			target:  base + "2" + string(filepath.Separator) + "file.dll",
			wantErr: true,
		},
		{
			name:    "temp root",
			target:  filepath.Join(os.TempDir(), "outside.dll"),
			wantErr: true,
		},
		{
			name:   "dots inside name are fine",
			target: filepath.Join(base, "..file.dll"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidatePath(base, tt.target)

			if tt.wantErr {
				if !errors.Is(err, ErrPathTraversal) {
					t.Errorf("ValidatePath() error = %v, want ErrPathTraversal", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidatePath() unexpected error: %v", err)
			}
			if result == "" {
				t.Error("ValidatePath() returned empty path")
			}
		})
	}
}

func TestFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ruleset bytes"))
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "ruleset.dll")
	if err := os.WriteFile(target, []byte("old content that is longer"), 0644); err != nil {
		t.Fatal(err)
	}

	d := New("test-agent")
	if err := d.File(context.Background(), server.URL+"/ruleset.dll", target); err != nil {
		t.Fatalf("File() error = %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "ruleset bytes" {
		t.Errorf("downloaded content = %q, want overwrite with new content", data)
	}
}

func TestFile_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	target := filepath.Join(t.TempDir(), "ruleset.dll")
	err := New("").File(context.Background(), server.URL+"/missing.dll", target)
	if err == nil {
		t.Fatal("File() expected error for 404")
	}
	if !strings.Contains(err.Error(), "download failed") {
		t.Errorf("File() error = %v, want download failed", err)
	}
}

func TestFile_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := filepath.Join(t.TempDir(), "ruleset.dll")
	err := New("").File(ctx, server.URL+"/r.dll", target)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("File() error = %v, want context.Canceled", err)
	}
}

func TestFileWithProgress(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	var last int
	calls := 0
	target := filepath.Join(t.TempDir(), "ruleset.dll")
	err := New("").FileWithProgress(context.Background(), server.URL+"/r.dll", target, func(done, total int64, pct int) {
		calls++
		last = pct
	})
	if err != nil {
		t.Fatalf("FileWithProgress() error = %v", err)
	}
	if calls == 0 || last != 100 {
		t.Errorf("progress callback calls = %d, last = %d; want final 100", calls, last)
	}
}

func TestToTemp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip"))
	}))
	defer server.Close()

	path, err := New("").ToTemp(context.Background(), server.URL+"/release.zip", "mode-manager-")
	if err != nil {
		t.Fatalf("ToTemp() error = %v", err)
	}
	defer os.Remove(path)

	data, _ := os.ReadFile(path)
	if string(data) != "zip" {
		t.Errorf("ToTemp() content = %q", data)
	}
}

// TestToTemp_CleanupOnError tests that temp files are removed on error
func TestToTemp_CleanupOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	path, err := New("").ToTemp(context.Background(), server.URL+"/release.zip", "mode-manager-")
	if err == nil {
		os.Remove(path)
		t.Fatal("ToTemp() expected error")
	}
	if path != "" {
		t.Errorf("ToTemp() returned path %q on error", path)
	}
}

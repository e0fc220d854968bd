package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
)

// ErrPathTraversal is returned when a target path escapes its base directory
var ErrPathTraversal = errors.New("path traversal attempt detected")

// ProgressCallback is called during download with progress info
type ProgressCallback func(bytesComplete, totalBytes int64, percentage int)

// Downloader fetches release assets to disk
type Downloader struct {
	Client *grab.Client
}

// New creates a Downloader with its own grab client
func New(userAgent string) *Downloader {
	client := grab.NewClient()
	if userAgent != "" {
		client.UserAgent = userAgent
	}
	return &Downloader{Client: client}
}

func (d *Downloader) client() *grab.Client {
	if d == nil || d.Client == nil {
		return grab.DefaultClient
	}
	return d.Client
}

// File downloads a file from URL to the target path
func (d *Downloader) File(ctx context.Context, url, targetPath string) error {
	return d.FileWithProgress(ctx, url, targetPath, nil)
}

// FileWithProgress downloads a file with progress callback
func (d *Downloader) FileWithProgress(ctx context.Context, url, targetPath string, callback ProgressCallback) error {
	req, err := grab.NewRequest(targetPath, url)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true // Always overwrite, never resume

	resp := d.client().Do(req)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	lastPercentage := -1
	for done := false; !done; {
		select {
		case <-ticker.C:
			if callback != nil {
				var percentage int
				if resp.Size() > 0 {
					percentage = int(resp.Progress() * 100)
				}
				if percentage != lastPercentage {
					callback(resp.BytesComplete(), resp.Size(), percentage)
					lastPercentage = percentage
				}
			}
		case <-resp.Done:
			done = true
		}
	}

	if err := resp.Err(); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if callback != nil {
		callback(resp.BytesComplete(), resp.Size(), 100)
	}
	return nil
}

// ToTemp downloads a file to a temporary location and returns the path
func (d *Downloader) ToTemp(ctx context.Context, url, prefix string) (string, error) {
	tempFile, err := os.CreateTemp("", prefix+"*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	if err := tempFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := d.File(ctx, url, tempPath); err != nil {
		_ = os.Remove(tempPath) // Best effort cleanup
		return "", err
	}

	return tempPath, nil
}

// ValidatePath ensures a path names something strictly inside the base
// directory (path traversal protection). The base itself is rejected.
func ValidatePath(basePath, targetPath string) (string, error) {
	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve target path: %w", err)
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", ErrPathTraversal
	}

	return absTarget, nil
}

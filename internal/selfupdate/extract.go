package selfupdate

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/distantorigin/mode-manager/internal/download"
)

// ProgressFunc is called during extraction with current file index and total files.
type ProgressFunc func(current, total int, filename string)

// Extract unpacks a release archive into targetDir. A single top-level
// folder shared by every entry is stripped.
func Extract(zipPath, targetDir string, progress ProgressFunc) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	stripPrefix := commonPrefix(reader.File)
	total := len(reader.File)

	for i, f := range reader.File {
		relPath := strings.TrimPrefix(f.Name, stripPrefix)
		if relPath == "" || path.Clean(relPath) == "." {
			continue
		}
		if progress != nil {
			progress(i+1, total, relPath)
		}

		target, err := download.ValidatePath(targetDir, filepath.Join(targetDir, filepath.FromSlash(relPath)))
		if err != nil {
			return fmt.Errorf("%w: %s", err, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", relPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create parent dir for %s: %w", relPath, err)
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", relPath, err)
		}
	}
	return nil
}

// commonPrefix returns "dir/" when every entry lives under the same top-level dir
func commonPrefix(files []*zip.File) string {
	if len(files) == 0 {
		return ""
	}
	idx := strings.Index(files[0].Name, "/")
	if idx == -1 {
		return ""
	}
	prefix := files[0].Name[:idx+1]
	for _, f := range files {
		if !strings.HasPrefix(f.Name, prefix) {
			return ""
		}
	}
	return prefix
}

func extractFile(f *zip.File, targetPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

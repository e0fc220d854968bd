// Package trash moves replaced plugin files somewhere they can be recovered
// instead of deleting them.
package trash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// OldDir is the move-aside folder created inside the install directory
	OldDir = ".old"

	KindDir     = "dir"
	KindRecycle = "recycle"
)

// ErrUnsupported is returned when a trash backend is not available on this platform
var ErrUnsupported = errors.New("trash backend not supported on this platform")

// Bin takes a file out of the way and returns where it went
type Bin interface {
	Discard(path string) (string, error)
}

// New returns the backend named by kind. root is used by the dir backend.
func New(kind, root string) (Bin, error) {
	switch kind {
	case "", KindDir:
		return &DirBin{Root: root}, nil
	case KindRecycle:
		return NewRecycleBin()
	default:
		return nil, fmt.Errorf("unknown trash kind %q", kind)
	}
}

// DirBin moves files into <Root>/.old/<timestamp>/
type DirBin struct {
	Root string
	Now  func() time.Time
}

func (b *DirBin) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Discard moves path into the current batch folder
func (b *DirBin) Discard(path string) (string, error) {
	batchDir := filepath.Join(b.Root, OldDir, b.now().Format("20060102-150405"))
	if err := os.MkdirAll(batchDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create trash folder: %w", err)
	}

	name := filepath.Base(path)
	dst := filepath.Join(batchDir, name)
	for i := 1; ; i++ {
		if _, err := os.Lstat(dst); errors.Is(err, os.ErrNotExist) {
			break
		}
		dst = filepath.Join(batchDir, name+"."+strconv.Itoa(i))
	}

	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("failed to move %s to trash: %w", name, err)
	}
	return dst, nil
}

// Clean removes everything previously moved aside
func (b *DirBin) Clean() error {
	oldDir := filepath.Join(b.Root, OldDir)
	if _, err := os.Stat(oldDir); err == nil {
		return os.RemoveAll(oldDir)
	}
	return nil
}

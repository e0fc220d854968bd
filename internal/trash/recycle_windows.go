//go:build windows

package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

const (
	recycleBinNamespace = 10 // ssfBITBUCKET

	fofSilent         = 0x0004
	fofNoConfirmation = 0x0010
	fofAllowUndo      = 0x0040
	fofNoErrorUI      = 0x0400
)

// RecycleBin sends files to the Windows recycle bin through the shell
type RecycleBin struct{}

// NewRecycleBin returns the Windows recycle bin backend
func NewRecycleBin() (Bin, error) {
	return RecycleBin{}, nil
}

// Discard sends path to the recycle bin. The returned location is the bin itself.
func (RecycleBin) Discard(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	// COM state is per thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	ole.CoInitialize(0)
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return "", fmt.Errorf("failed to create Shell object: %w", err)
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return "", fmt.Errorf("failed to get IDispatch interface: %w", err)
	}
	defer shell.Release()

	nsVar, err := oleutil.CallMethod(shell, "Namespace", recycleBinNamespace)
	if err != nil {
		return "", fmt.Errorf("failed to open recycle bin: %w", err)
	}
	ns := nsVar.ToIDispatch()
	if ns == nil {
		return "", fmt.Errorf("failed to open recycle bin")
	}
	defer ns.Release()

	flags := fofSilent | fofNoConfirmation | fofAllowUndo | fofNoErrorUI
	if _, err := oleutil.CallMethod(ns, "MoveHere", absPath, flags); err != nil {
		return "", fmt.Errorf("failed to recycle %s: %w", filepath.Base(path), err)
	}

	// MoveHere reports no result; check the file is actually gone
	if _, err := os.Stat(absPath); err == nil {
		return "", fmt.Errorf("failed to recycle %s", filepath.Base(path))
	}
	return "Recycle Bin", nil
}

package process

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"
)

// GameExecutables are the process names of the osu!lazer client
var GameExecutables = []string{"osu!.exe", "osu!"}

// Info is a running process
type Info struct {
	PID  int
	Name string
}

// Find returns the first running process whose executable matches one of
// names, ignoring case.
func Find(names ...string) (Info, bool, error) {
	procs, err := ps.Processes()
	if err != nil {
		return Info{}, false, fmt.Errorf("failed to list processes: %w", err)
	}
	for _, p := range procs {
		exe := p.Executable()
		for _, name := range names {
			if strings.EqualFold(exe, name) {
				return Info{PID: p.Pid(), Name: exe}, true, nil
			}
		}
	}
	return Info{}, false, nil
}

// IsRunning reports whether a process with one of names is running.
// A failure to list processes counts as not running.
func IsRunning(names ...string) bool {
	_, found, err := Find(names...)
	return err == nil && found
}

// IsGameRunning checks for a running osu!lazer client
func IsGameRunning() bool {
	return IsRunning(GameExecutables...)
}

// WaitForTermination polls until no process with one of names is running.
// Returns true if they terminated, false if timeout occurred
func WaitForTermination(timeout time.Duration, names ...string) bool {
	deadline := time.Now().Add(timeout)
	for {
		if !IsRunning(names...) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}

package console

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/distantorigin/mode-manager/internal/ruleset"
)

var (
	quiet bool
	out   io.Writer = color.Output
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errColor     = color.New(color.FgRed)
	dimColor     = color.New(color.FgHiBlack)
)

// SetQuiet turns user-facing output off or on
func SetQuiet(q bool) {
	quiet = q
}

// SetOutput redirects user-facing output
func SetOutput(w io.Writer) {
	out = w
}

// DisableColor turns off colored output, e.g. when stdout is not a terminal
func DisableColor() {
	color.NoColor = true
}

// InitLogger builds the process logger and makes it the slog default.
// verbose forces debug level and quiet forces error level.
func InitLogger(w io.Writer, format, level string, quietMode, verbose bool) *slog.Logger {
	lvl := ParseLevel(level)
	switch {
	case verbose:
		lvl = slog.LevelDebug
	case quietMode:
		lvl = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level; unknown names mean info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Log prints a message if not in quiet mode
func Log(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// Heading prints a highlighted title line
func Heading(format string, args ...any) {
	if !quiet {
		headingColor.Fprintf(out, format+"\n", args...)
	}
}

// Success prints a green line
func Success(format string, args ...any) {
	if !quiet {
		okColor.Fprintf(out, format+"\n", args...)
	}
}

// Warn prints a yellow line
func Warn(format string, args ...any) {
	if !quiet {
		warnColor.Fprintf(out, format+"\n", args...)
	}
}

// Error prints a red line to stderr, even in quiet mode
func Error(format string, args ...any) {
	errColor.Fprintf(os.Stderr, format+"\n", args...)
}

// Status returns the display form of a record status
func Status(s ruleset.Status) string {
	switch s {
	case ruleset.UpToDate:
		return okColor.Sprint("up to date")
	case ruleset.UpdateRequired:
		return warnColor.Sprint("update available")
	case ruleset.FileMissing:
		return errColor.Sprint("file missing")
	}
	return dimColor.Sprint("unchecked")
}

// Progress prints a single-line progress counter, finishing the line at the end
func Progress(done, total int, label string) {
	if quiet || total == 0 {
		return
	}
	percentage := done * 100 / total
	fmt.Fprintf(out, "\r%s: %d/%d (%d%%)    ", label, done, total, percentage)
	if done == total {
		fmt.Fprintln(out)
	}
}

// WaitForKey prompts the user to press Enter. Does nothing in non-interactive mode.
func WaitForKey(prompt string, nonInteractive bool) {
	if nonInteractive {
		return
	}
	fmt.Fprint(out, prompt)
	_, _ = bufio.NewReader(os.Stdin).ReadBytes('\n')
}

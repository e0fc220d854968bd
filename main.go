package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/distantorigin/mode-manager/internal/audio"
	"github.com/distantorigin/mode-manager/internal/console"
)

// errUsage marks bad command lines; run exits with 2 for these
var errUsage = errors.New("usage error")

type options struct {
	configPath     string
	installDir     string
	versionDir     string
	token          string
	quiet          bool
	verbose        bool
	nonInteractive bool
	jobs           int
	sound          bool
	noColor        bool
	pause          bool
}

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, a *app, fs *pflag.FlagSet, args []string) error
	// flags registers command specific flags before parsing
	flags func(fs *pflag.FlagSet)
}

var commands = map[string]command{}

func register(name string, c command) {
	commands[name] = c
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\nOops, something broke: %v\n", r)
			fmt.Fprintln(os.Stderr, "Let the developers know what happened.")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], color.Output, os.Stderr)
	stop()
	os.Exit(code)
}

func globalFlags(opts *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("mode-manager", pflag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Config file (default $UserConfigDir/mode-manager/config.yaml)")
	fs.StringVar(&opts.installDir, "install-dir", "", "osu!lazer install root")
	fs.StringVar(&opts.versionDir, "version-dir", "", "Game version folder to install into (default: newest)")
	fs.StringVar(&opts.token, "token", "", "GitHub token for higher API rate limits")
	fs.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress output")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "Show debug logging")
	fs.BoolVar(&opts.nonInteractive, "non-interactive", false, "Never prompt; pick defaults")
	fs.IntVarP(&opts.jobs, "jobs", "j", 0, "Parallel downloads (default from config)")
	fs.BoolVar(&opts.sound, "sound", false, "Play sound cues")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&opts.pause, "pause", false, "Wait for Enter before exiting, for shortcuts that close the window")
	return fs
}

// run parses args, executes one command and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	global := globalFlags(&opts)
	global.SetOutput(stderr)
	global.SetInterspersed(false)
	global.Usage = func() { printUsage(stderr, global) }

	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(stderr, global)
		return 2
	}
	name, cmdArgs := rest[0], rest[1:]
	if name == "help" {
		printUsage(stdout, global)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		printUsage(stderr, global)
		return 2
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	fs.AddFlagSet(global)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: mode-manager %s\n\n%s\n\nFlags:\n%s", cmd.usage, cmd.help, fs.FlagUsages())
	}
	if err := fs.Parse(cmdArgs); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.pause {
		defer console.WaitForKey("\nPress Enter to exit...", opts.nonInteractive)
	}

	a, err := newApp(opts, global, stdout, stderr)
	if err != nil {
		console.Error("%v", err)
		return 1
	}

	// Cut off any cue still playing once the user interrupts
	stopSound := context.AfterFunc(ctx, audio.StopAll)
	defer stopSound()

	if err := cmd.run(ctx, a, fs, fs.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "%v\nUsage: mode-manager %s\n", err, cmd.usage)
			return 2
		}
		console.Error("%v", err)
		a.sound.Play("error")
		return 1
	}
	return 0
}

func printUsage(w io.Writer, global *pflag.FlagSet) {
	fmt.Fprintln(w, "mode-manager keeps osu!lazer custom rulesets up to date.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: mode-manager [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].help)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, global.FlagUsages())
}

// usagef wraps a message as a usage error
func usagef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}

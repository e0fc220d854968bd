package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/manifoldco/promptui"

	"github.com/distantorigin/mode-manager/internal/updater"
)

// ErrCancelled is returned when the user backs out of a prompt
var ErrCancelled = errors.New("operation cancelled by user")

// SoundPlayer defines the interface for playing sounds
type SoundPlayer interface {
	Play(name string)
	PlayAsync(name string)
}

// Config holds configuration for prompting
type Config struct {
	NonInteractive bool
	Sound          SoundPlayer
	// Stdin and Stdout default to the terminal
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

func (c Config) stdout() io.WriteCloser {
	if c.Stdout != nil {
		return c.Stdout
	}
	return &bellSkipper{}
}

func (c Config) play(name string) {
	if c.Sound != nil {
		c.Sound.Play(name)
	}
}

// bellSkipper drops the terminal bell promptui rings on every keypress
type bellSkipper struct{}

func (bellSkipper) Write(b []byte) (int, error) {
	if len(b) == 1 && b[0] == '\a' {
		return 0, nil
	}
	return os.Stderr.Write(b)
}

func (bellSkipper) Close() error {
	return os.Stderr.Close()
}

func mapErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return ErrCancelled
	}
	return err
}

// Confirm asks the user to confirm an action. Non-interactive mode always agrees.
func Confirm(label string, cfg Config) bool {
	if cfg.NonInteractive {
		return true
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     cfg.Stdin,
		Stdout:    cfg.stdout(),
	}
	_, err := p.Run()
	confirmed := err == nil

	cfg.play("select")
	if confirmed {
		cfg.play("success")
	}
	return confirmed
}

// Option labels shared by the selection menus
const (
	optionAll    = "Update all"
	optionCancel = "Cancel"
)

// UpdateItems builds the menu shown by SelectUpdates
func UpdateItems(pending []updater.Pending) []string {
	items := make([]string, 0, len(pending)+2)
	items = append(items, fmt.Sprintf("%s (%d)", optionAll, len(pending)))
	for _, p := range pending {
		from := p.Record.Tag
		if from == "" {
			from = "none"
		}
		items = append(items, fmt.Sprintf("%s  %s -> %s", p.Record.FileName, from, p.Release.TagName))
	}
	return append(items, optionCancel)
}

// SelectionFor maps a menu position from UpdateItems to a selection
func SelectionFor(choice int, pending []updater.Pending) (updater.Selection, error) {
	switch {
	case choice == 0:
		return updater.Selection{All: true}, nil
	case choice >= 1 && choice <= len(pending):
		return updater.Selection{Indices: []int{pending[choice-1].Index}}, nil
	}
	return updater.Selection{}, ErrCancelled
}

// SelectUpdates lets the user pick one pending update or all of them.
// Non-interactive mode selects everything.
func SelectUpdates(pending []updater.Pending, cfg Config) (updater.Selection, error) {
	if cfg.NonInteractive {
		return updater.Selection{All: true}, nil
	}

	s := promptui.Select{
		Label:    "Select rulesets to update",
		Items:    UpdateItems(pending),
		Size:     10,
		HideHelp: true,
		Stdin:    cfg.Stdin,
		Stdout:   cfg.stdout(),
	}
	idx, _, err := s.Run()
	if err != nil {
		return updater.Selection{}, mapErr(err)
	}
	cfg.play("select")
	return SelectionFor(idx, pending)
}

// Choose shows a menu over items and returns the picked one.
// Non-interactive mode takes the first item.
func Choose(label string, items []string, cfg Config) (string, error) {
	if len(items) == 0 {
		return "", errors.New("nothing to choose from")
	}
	if cfg.NonInteractive {
		return items[0], nil
	}

	s := promptui.Select{
		Label:    label,
		Items:    items,
		Size:     10,
		HideHelp: true,
		Stdin:    cfg.Stdin,
		Stdout:   cfg.stdout(),
	}
	_, result, err := s.Run()
	if err != nil {
		return "", mapErr(err)
	}
	cfg.play("select")
	return result, nil
}

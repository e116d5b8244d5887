// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Config says where prompts read and write.
type Config struct {
	// Accessible replaces the interactive form with plain line prompts.
	Accessible bool
	// Input defaults to stdin when nil.
	Input io.Reader
	// Output defaults to stdout when nil.
	Output io.Writer
}

// DefaultConfig falls back to accessible prompts on stderr when stdin is
// not a terminal or ACCESSIBLE is set, so a piped `tagscope tags remove`
// still shows its question.
func DefaultConfig() Config {
	if !stdinIsTerminal() || os.Getenv("ACCESSIBLE") != "" {
		return Config{Accessible: true, Output: os.Stderr}
	}
	return Config{Output: os.Stdout}
}

// IsInteractive reports whether stdin and stdout are both terminals, which
// `tagscope browse` requires.
func IsInteractive() bool {
	return stdinIsTerminal() && term.IsTerminal(int(os.Stdout.Fd()))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (c Config) apply(form *huh.Form) *huh.Form {
	form = form.WithTheme(huh.ThemeCharm()).WithAccessible(c.Accessible)
	if c.Input != nil {
		form = form.WithInput(c.Input)
	}
	if c.Output != nil {
		form = form.WithOutput(c.Output)
	}
	return form
}

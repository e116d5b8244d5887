// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"os"
	"testing"
)

func TestDefaultConfig_NonTerminal(t *testing.T) {
	t.Parallel()

	// Test binaries never run with a terminal on stdin.
	cfg := DefaultConfig()
	if !cfg.Accessible {
		t.Error("Accessible = false, want true without a terminal")
	}
	if cfg.Output != os.Stderr {
		t.Error("accessible prompts should write to stderr")
	}
	if cfg.Input != nil {
		t.Error("Input should default to nil (stdin)")
	}
}

func TestIsInteractive_NonTerminal(t *testing.T) {
	t.Parallel()

	if IsInteractive() {
		t.Error("IsInteractive() = true without a terminal")
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package tui provides the interactive terminal components of tagscope: the
// live tag tree browser and the confirmation prompt used before documents
// are rewritten.
//
// File organization:
//   - tui.go: shared configuration and accessible-mode detection
//   - confirm.go: yes/no prompt built on charmbracelet/huh
//   - keys.go: browser key bindings and help
//   - browser.go: the bubbletea browser model
//   - rows.go: flattening a snapshot into visible rows
package tui

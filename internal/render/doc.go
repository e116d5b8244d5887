// SPDX-License-Identifier: MPL-2.0

// Package render turns the tag tree into output.
//
// Every renderer works on a Snapshot, a detached copy of the tree taken
// while the session lock is held. Snapshots can be rendered, encoded or
// browsed after the lock is released.
//
// File organization:
//   - snapshot.go: Snapshot and Node, built from a tagtree.Model
//   - text.go: lipgloss tree rendering with themes
//   - export.go: output formats and the JSON, YAML and markdown encoders
//   - report.go: the markdown statistics report and its glamour rendering
package render

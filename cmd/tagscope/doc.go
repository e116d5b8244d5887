// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for tagscope.
//
// This package implements the Cobra command hierarchy for the tagscope CLI:
// one-shot views of the tag tree (tree, stats), long-running views with
// live updates (watch, browse, serve), tag maintenance (tags) and
// configuration management (config). Every command opens the project
// through the App composition root.
package cmd

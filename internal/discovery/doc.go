// SPDX-License-Identifier: MPL-2.0

// Package discovery locates tagged documents under a project root and
// resolves the content root each document belongs to.
//
// Content roots come from two places. Directories listed in the
// configuration are generic roots; the longest configured prefix wins.
// Otherwise the nearest ancestor directory holding a module marker file
// (go.mod, pom.xml, package.json, ...) is the document's module root.
// Documents matching neither are reported as unresolved and end up in the
// catch-all root of the grouped layout.
//
// File organization:
//   - workspace.go: Workspace, Config and document enumeration
//   - roots.go: content root resolution and the marker cache
//   - diagnostic.go: structured, non-fatal walk diagnostics
package discovery

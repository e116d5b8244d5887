// SPDX-License-Identifier: MPL-2.0

// Package doctest provides an in-memory workspace for tests of the tag tree
// and its update engine.
//
// This package is separate from testutil to avoid import cycles, since
// testutil is used by internal/document tests which cannot transitively
// import packages built on top of document.
package doctest

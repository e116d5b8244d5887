// SPDX-License-Identifier: MPL-2.0

// Package tagtree holds the aggregate tag tree:
//
//	Root → [ContentRoot →] Category → Tag → Document
//
// Nodes form a closed set of types sharing the Node interface. Which level
// sits directly under Root depends on the active Layout: the flat layout
// exposes categories, the grouped layout exposes content roots. Root keeps
// separate storage per layout so that switching back and forth does not
// require reparsing documents.
//
// The tree is mutated only by its owner (see package engine) and is not safe
// for concurrent use.
package tagtree

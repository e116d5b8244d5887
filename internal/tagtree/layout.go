// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"errors"
	"fmt"

	"github.com/tagscope/tagscope/internal/document"
)

const (
	// LayoutFlat shows categories directly under the root.
	LayoutFlat LayoutKind = "flat"
	// LayoutGrouped shows content roots under the root and categories below
	// each content root.
	LayoutGrouped LayoutKind = "grouped"
)

// ErrInvalidLayout is returned when a LayoutKind value is not recognized.
var ErrInvalidLayout = errors.New("invalid layout")

type (
	// LayoutKind names a layout.
	LayoutKind string

	// InvalidLayoutError is returned when a LayoutKind value is not recognized.
	// It wraps ErrInvalidLayout for errors.Is() compatibility.
	InvalidLayoutError struct {
		Value LayoutKind
	}

	// RootResolver returns the content root a document belongs to, or false
	// when it lies outside every known root.
	RootResolver func(id document.ID) (document.RootRef, bool)

	// Layout decides which Holder owns a document and what the root's
	// children are. Reconciliation is written once against this interface.
	Layout interface {
		Kind() LayoutKind
		// Initialized reports whether the root has storage for this layout.
		Initialized(r *Root) bool
		// Reset replaces the layout's storage with empty storage.
		Reset(r *Root)
		// HolderFor returns the holder of id. With create false it may
		// return nil; a deleted document is then looked up by content.
		HolderFor(r *Root, id document.ID, create bool) Holder
		// Holders returns every holder of this layout.
		Holders(r *Root) []Holder
		// Children returns the root's children.
		Children(r *Root) []Node
		// Prune removes h from the root when it only holds an empty Other
		// category, if the layout allows holders to be removed.
		Prune(r *Root, h Holder) bool
	}

	// FlatLayout makes the root the single holder.
	FlatLayout struct{}

	// GroupedLayout gives every content root its own holder.
	GroupedLayout struct {
		Resolve RootResolver
	}
)

// Error implements the error interface for InvalidLayoutError.
func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid layout %q (valid: flat, grouped)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidLayoutError) Unwrap() error {
	return ErrInvalidLayout
}

// Validate returns nil if the LayoutKind is recognized.
func (k LayoutKind) Validate() error {
	switch k {
	case LayoutFlat, LayoutGrouped:
		return nil
	default:
		return &InvalidLayoutError{Value: k}
	}
}

// String returns the layout name.
func (k LayoutKind) String() string { return string(k) }

// NewLayout returns the layout of the given kind. resolve is only used by
// the grouped layout.
func NewLayout(kind LayoutKind, resolve RootResolver) (Layout, error) {
	switch kind {
	case LayoutFlat:
		return FlatLayout{}, nil
	case LayoutGrouped:
		return GroupedLayout{Resolve: resolve}, nil
	default:
		return nil, &InvalidLayoutError{Value: kind}
	}
}

// Kind implements Layout.
func (FlatLayout) Kind() LayoutKind { return LayoutFlat }

// Initialized implements Layout.
func (FlatLayout) Initialized(r *Root) bool { return r.flat != nil }

// Reset implements Layout.
func (FlatLayout) Reset(r *Root) { r.flat = newCategorySet() }

// HolderFor implements Layout.
func (FlatLayout) HolderFor(r *Root, _ document.ID, _ bool) Holder { return r }

// Holders implements Layout.
func (FlatLayout) Holders(r *Root) []Holder { return []Holder{r} }

// Children implements Layout.
func (FlatLayout) Children(r *Root) []Node { return asNodes(r.Categories()) }

// Prune implements Layout. The root is never removed.
func (FlatLayout) Prune(*Root, Holder) bool { return false }

// Kind implements Layout.
func (GroupedLayout) Kind() LayoutKind { return LayoutGrouped }

// Initialized implements Layout.
func (GroupedLayout) Initialized(r *Root) bool { return r.grouped }

// Reset implements Layout.
func (GroupedLayout) Reset(r *Root) {
	r.contentRoots = nil
	r.grouped = true
}

func (l GroupedLayout) resolve(id document.ID) document.RootRef {
	if l.Resolve != nil {
		if ref, ok := l.Resolve(id); ok {
			return ref
		}
	}
	return document.RootRef{Name: RootlessName, Kind: document.RootGeneric}
}

// HolderFor implements Layout.
func (l GroupedLayout) HolderFor(r *Root, id document.ID, create bool) Holder {
	ref := l.resolve(id)
	if create {
		return r.EnsureContentRoot(ref)
	}

	if cr := r.ContentRoot(ref.Name); cr != nil && Contains(cr, id) {
		return cr
	}
	// The document may have been filed under another root before it moved
	// or before its module disappeared.
	for _, cr := range r.ContentRoots() {
		if Contains(cr, id) {
			return cr
		}
	}
	if cr := r.ContentRoot(ref.Name); cr != nil {
		return cr
	}
	return nil
}

// Holders implements Layout.
func (GroupedLayout) Holders(r *Root) []Holder {
	out := make([]Holder, len(r.contentRoots))
	for i, cr := range r.contentRoots {
		out[i] = cr
	}
	return out
}

// Children implements Layout.
func (GroupedLayout) Children(r *Root) []Node { return asNodes(r.contentRoots) }

// Prune implements Layout.
func (GroupedLayout) Prune(r *Root, h Holder) bool {
	cr, ok := h.(*ContentRoot)
	if !ok || !cr.isVacant() {
		return false
	}
	return r.RemoveContentRoot(cr.name)
}

func asNodes[T Node](items []T) []Node {
	out := make([]Node, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

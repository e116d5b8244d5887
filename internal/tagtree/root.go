// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"github.com/tagscope/tagscope/internal/document"
)

const (
	// RootName is the display name of the tree root.
	RootName = "Tags"
	// RootlessName names the content root of documents outside any known root.
	RootlessName = "Rootless"

	// IconModule is the icon hint of module content roots.
	IconModule = "module"
	// IconFolder is the icon hint of generic content roots.
	IconFolder = "folder"
)

type (
	// ContentRoot is a Holder for the documents of one module or root
	// directory. It only appears in the grouped layout.
	ContentRoot struct {
		*categorySet
		name string
		kind document.RootKind
	}

	// Root is the tree root. It keeps one storage per layout; a storage is
	// nil until its layout is first initialized.
	//
	// In the flat layout Root is itself the Holder of every document.
	Root struct {
		flat         *categorySet
		contentRoots []*ContentRoot
		grouped      bool
	}
)

// NewRoot returns a root with no initialized storage.
func NewRoot() *Root {
	return &Root{}
}

// DisplayName implements Node.
func (*Root) DisplayName() string { return RootName }

// Kind implements Node.
func (*Root) Kind() NodeKind { return KindRoot }

// Categories implements Holder over the flat storage. It is nil until the
// flat storage is initialized.
func (r *Root) Categories() []*Category {
	if r.flat == nil {
		return nil
	}
	return r.flat.Categories()
}

// Category implements Holder over the flat storage.
func (r *Root) Category(name string) *Category {
	if r.flat == nil {
		return nil
	}
	return r.flat.Category(name)
}

// EnsureCategory implements Holder over the flat storage.
func (r *Root) EnsureCategory(name string) *Category { return r.flatSet().EnsureCategory(name) }

// RemoveCategory implements Holder over the flat storage.
func (r *Root) RemoveCategory(name string) bool {
	if r.flat == nil {
		return false
	}
	return r.flat.RemoveCategory(name)
}

// Other implements Holder over the flat storage.
func (r *Root) Other() *Category { return r.flatSet().Other() }

func (r *Root) flatSet() *categorySet {
	if r.flat == nil {
		r.flat = newCategorySet()
	}
	return r.flat
}

// ContentRoots returns the grouped storage. The slice must not be modified.
func (r *Root) ContentRoots() []*ContentRoot { return r.contentRoots }

// ContentRoot returns the named content root, or nil.
func (r *Root) ContentRoot(name string) *ContentRoot {
	for _, cr := range r.ContentRoots() {
		if cr.name == name {
			return cr
		}
	}
	return nil
}

// EnsureContentRoot returns the content root for ref, creating it if needed.
func (r *Root) EnsureContentRoot(ref document.RootRef) *ContentRoot {
	if cr := r.ContentRoot(ref.Name); cr != nil {
		return cr
	}
	r.grouped = true
	cr := &ContentRoot{categorySet: newCategorySet(), name: ref.Name, kind: ref.Kind}
	r.contentRoots = append(r.contentRoots, cr)
	return cr
}

// RemoveContentRoot removes the named content root. It is a no-op when
// absent.
func (r *Root) RemoveContentRoot(name string) bool {
	for i, cr := range r.contentRoots {
		if cr.name == name {
			r.contentRoots = append(r.contentRoots[:i], r.contentRoots[i+1:]...)
			return true
		}
	}
	return false
}

// Dispose drops the storage of every layout.
func (r *Root) Dispose() {
	r.flat = nil
	r.contentRoots = nil
	r.grouped = false
}

func (r *Root) sortChildren() {
	if r.flat != nil {
		r.flat.sortChildren()
	}
	sortNodes(r.contentRoots)
	for _, cr := range r.contentRoots {
		cr.sortChildren()
	}
}

// Sort orders every level of every initialized storage by case-insensitive
// display name.
func (r *Root) Sort() {
	r.sortChildren()
}

// Name returns the content root name.
func (cr *ContentRoot) Name() string { return cr.name }

// DisplayName implements Node.
func (cr *ContentRoot) DisplayName() string { return cr.name }

// Kind implements Node.
func (*ContentRoot) Kind() NodeKind { return KindContentRoot }

// RootKind returns whether the content root is a module.
func (cr *ContentRoot) RootKind() document.RootKind { return cr.kind }

// Icon returns the icon hint for the content root.
func (cr *ContentRoot) Icon() string {
	if cr.kind == document.RootModule {
		return IconModule
	}
	return IconFolder
}

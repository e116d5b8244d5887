// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tagscope/tagscope/internal/category"
	"github.com/tagscope/tagscope/internal/document"
	"github.com/tagscope/tagscope/internal/occurrence"
	"github.com/tagscope/tagscope/internal/tagtree"
)

type (
	// Engine owns the aggregate tree of one indexing session together with
	// the category registry and occurrence index it is built from.
	Engine struct {
		workspace document.Workspace
		parser    document.Parser
		registry  *category.Registry
		index     *occurrence.Index
		root      *tagtree.Root
		layouts   map[tagtree.LayoutKind]tagtree.Layout
		layout    tagtree.Layout
		logger    *log.Logger
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithLayout selects the initial layout. Unknown kinds keep the default,
// flat.
func WithLayout(kind tagtree.LayoutKind) Option {
	return func(e *Engine) {
		if l, ok := e.layouts[kind]; ok {
			e.layout = l
		}
	}
}

// New returns an engine with an empty tree. The registry is used as is;
// populate it before the first BuildModel. A nil index is replaced by one
// reading through parser.
func New(ws document.Workspace, parser document.Parser, registry *category.Registry, index *occurrence.Index, opts ...Option) *Engine {
	if index == nil {
		index = occurrence.NewIndex(parser)
	}
	e := &Engine{
		workspace: ws,
		parser:    parser,
		registry:  registry,
		index:     index,
		root:      tagtree.NewRoot(),
		logger:    log.New(io.Discard),
	}
	e.layouts = map[tagtree.LayoutKind]tagtree.Layout{
		tagtree.LayoutFlat:    tagtree.FlatLayout{},
		tagtree.LayoutGrouped: tagtree.GroupedLayout{Resolve: ws.ContentRootOf},
	}
	e.layout = e.layouts[tagtree.LayoutFlat]
	e.index.Init(0)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Root returns the tree root.
func (e *Engine) Root() *tagtree.Root { return e.root }

// Layout returns the active layout.
func (e *Engine) Layout() tagtree.Layout { return e.layout }

// Model returns a traversal over the tree in the active layout.
func (e *Engine) Model() *tagtree.Model { return tagtree.NewModel(e.root, e.layout) }

// Registry returns the category registry.
func (e *Engine) Registry() *category.Registry { return e.registry }

// Index returns the occurrence index. It also serves as the tree's Counter.
func (e *Engine) Index() *occurrence.Index { return e.index }

// Workspace returns the workspace the engine scans.
func (e *Engine) Workspace() document.Workspace { return e.workspace }

// Holders returns the holders of the active layout.
func (e *Engine) Holders() []tagtree.Holder { return e.layout.Holders(e.root) }

// BuildModel rebuilds the active layout from a full scan of the workspace.
func (e *Engine) BuildModel() {
	e.Build(e.workspace.Documents())
}

// Build rebuilds the active layout from the given documents.
func (e *Engine) Build(ids []document.ID) {
	start := time.Now()
	e.index.Init(len(ids))
	e.layout.Reset(e.root)

	for _, id := range ids {
		occ, ok := e.parser.Occurrences(id)
		if !ok {
			continue
		}
		for _, tag := range document.TagNames(occ) {
			e.place(tag, id)
		}
	}
	e.root.Sort()

	e.logger.Debug("scan complete",
		"layout", e.layout.Kind(),
		"documents", len(ids),
		"duration", time.Since(start).Round(time.Millisecond))
}

// Place binds id under tagName in the category the registry resolves,
// creating the holder, category and tag as needed. It does not sort.
func (e *Engine) Place(tagName string, id document.ID) {
	e.place(tagName, id)
}

func (e *Engine) place(tagName string, id document.ID) {
	h := e.layout.HolderFor(e.root, id, true)
	categoryName, _ := e.registry.CategoryOf(tagName)
	c := h.EnsureCategory(categoryName)

	t := c.Tag(tagName)
	if t == nil {
		t = c.AddTag(tagtree.NewTag(tagName))
	}
	if _, created := t.Bind(id); created {
		e.index.EnsureComputed(id)
		e.disambiguate(t, id.Base())
	}
}

// NeedsScan reports whether switching to kind requires a full scan.
func (e *Engine) NeedsScan(kind tagtree.LayoutKind) bool {
	l, ok := e.layouts[kind]
	return ok && !l.Initialized(e.root)
}

// UseLayout makes kind the active layout without scanning. It reports
// false for unknown kinds.
func (e *Engine) UseLayout(kind tagtree.LayoutKind) bool {
	l, ok := e.layouts[kind]
	if ok {
		e.layout = l
	}
	return ok
}

// SwitchLayout activates kind. Storage that already exists for kind is
// reused as is; otherwise the workspace is scanned. It reports whether a
// scan happened.
func (e *Engine) SwitchLayout(kind tagtree.LayoutKind) bool {
	if kind == e.layout.Kind() {
		return false
	}
	needsScan := e.NeedsScan(kind)
	if !e.UseLayout(kind) {
		return false
	}
	if needsScan {
		e.BuildModel()
		return true
	}
	e.root.Sort()
	return false
}

// SetMappings replaces every registry mapping, inserting the scopes in order,
// and drops the storage of all layouts. The caller rebuilds afterwards.
func (e *Engine) SetMappings(scopes ...[]category.Mapping) {
	e.registry.Dispose()
	for _, scope := range scopes {
		e.registry.PutMappingsFrom(scope)
	}
	e.root.Dispose()
}

// ReloadMappings replaces the registry mappings and rebuilds the active
// layout with a full scan.
func (e *Engine) ReloadMappings(scopes ...[]category.Mapping) {
	e.SetMappings(scopes...)
	e.BuildModel()
}

// Dispose ends the session: the tree, the index and the registry are
// cleared.
func (e *Engine) Dispose() {
	e.root.Dispose()
	e.index.Dispose()
	e.registry.Dispose()
}

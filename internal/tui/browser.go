// SPDX-License-Identifier: MPL-2.0

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	// chromeLines is the header, blank line, status line and help line.
	chromeLines = 4
)

type (
	// Source is the tree a Browser displays. *engine.Session implements it.
	Source interface {
		View(fn func(e *engine.Engine))
		SwitchLayout(ctx context.Context, kind tagtree.LayoutKind) (bool, error)
	}

	// BrowserOptions configures a Browser.
	BrowserOptions struct {
		// Title is shown in the header (default: "tagscope").
		Title string
		// Statistics is the initial label mode.
		Statistics tagtree.Statistics
		// Updates delivers tree changes; nil disables live updates.
		Updates <-chan engine.Update
		// Context bounds layout switches. Defaults to context.Background.
		Context context.Context
		// Renderer styles the output. SSH sessions pass the renderer of the
		// remote terminal; nil uses the local one.
		Renderer *lipgloss.Renderer
		// Width and Height size the browser until the first WindowSizeMsg.
		Width  int
		Height int
	}

	// Browser is a bubbletea model that browses the tag tree with live
	// updates.
	Browser struct {
		src     Source
		ctx     context.Context
		updates <-chan engine.Update
		title   string

		mode     tagtree.Statistics
		snapshot *render.Snapshot
		rows     []row
		exp      expansion
		cursor   int

		keys     KeyMap
		help     help.Model
		viewport viewport.Model
		width    int
		height   int

		theme    render.Theme
		styles   browserStyles
		status   string
		switched bool
	}

	browserStyles struct {
		header   lipgloss.Style
		muted    lipgloss.Style
		selected lipgloss.Style
		errStyle lipgloss.Style
	}

	// updateMsg reports a tree change from the session.
	updateMsg struct {
		closed bool
	}

	// layoutMsg reports the end of a layout switch.
	layoutMsg struct {
		kind tagtree.LayoutKind
		err  error
	}
)

// NewBrowser returns a browser over src, already holding a snapshot.
func NewBrowser(src Source, opts BrowserOptions) *Browser {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	title := opts.Title
	if title == "" {
		title = "tagscope"
	}
	mode := opts.Statistics
	if mode.Validate() != nil {
		mode = tagtree.StatisticsSimplified
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	h := help.New()
	h.Styles.ShortKey = r.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	h.Styles.ShortDesc = r.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	h.Styles.FullKey = h.Styles.ShortKey
	h.Styles.FullDesc = h.Styles.ShortDesc

	b := &Browser{
		src:     src,
		ctx:     ctx,
		updates: opts.Updates,
		title:   title,
		mode:    mode,
		exp:     make(expansion),
		keys:    DefaultKeyMap(),
		help:    h,
		theme:   render.ThemeFor(r),
		styles: browserStyles{
			header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
			muted:    r.NewStyle().Foreground(lipgloss.Color("#6B7280")),
			selected: r.NewStyle().Reverse(true),
			errStyle: r.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		},
	}
	b.viewport = viewport.New(width, 1)
	b.resize(width, height)
	b.refresh()
	return b
}

// RunBrowser runs a browser on the local terminal until the user quits or
// ctx is done.
func RunBrowser(ctx context.Context, src Source, opts BrowserOptions) error {
	if opts.Context == nil {
		opts.Context = ctx
	}
	p := tea.NewProgram(NewBrowser(src, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return b.waitForUpdate()
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		b.render()
		return b, nil

	case updateMsg:
		if msg.closed {
			b.updates = nil
			return b, nil
		}
		b.refresh()
		return b, b.waitForUpdate()

	case layoutMsg:
		b.switched = false
		if msg.err != nil {
			b.status = "layout switch failed: " + msg.err.Error()
		} else {
			b.status = "layout: " + msg.kind.String()
		}
		b.refresh()
		return b, nil

	case tea.KeyMsg:
		return b.handleKey(msg)
	}
	return b, nil
}

func (b *Browser) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, b.keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, b.keys.Up):
		b.moveCursor(-1)
	case key.Matches(msg, b.keys.Down):
		b.moveCursor(1)
	case key.Matches(msg, b.keys.PageUp):
		b.moveCursor(-b.viewport.Height)
	case key.Matches(msg, b.keys.PageDown):
		b.moveCursor(b.viewport.Height)
	case key.Matches(msg, b.keys.Expand):
		b.setOpen(true)
	case key.Matches(msg, b.keys.Collapse):
		b.collapse()
	case key.Matches(msg, b.keys.Toggle):
		if r, ok := b.current(); ok && !r.node.IsLeaf() {
			b.setOpen(!r.open)
		}
	case key.Matches(msg, b.keys.ExpandAll):
		b.exp.setAll(b.snapshot.Root, true)
		b.reflow()
	case key.Matches(msg, b.keys.CollapseAll):
		b.exp.setAll(b.snapshot.Root, false)
		b.reflow()
	case key.Matches(msg, b.keys.Statistics):
		b.mode = nextStatistics(b.mode)
		b.status = "statistics: " + string(b.mode)
		b.refresh()
	case key.Matches(msg, b.keys.Layout):
		return b, b.switchLayout()
	case key.Matches(msg, b.keys.Help):
		b.help.ShowAll = !b.help.ShowAll
		b.resize(b.width, b.height)
		b.render()
	}
	return b, nil
}

// View implements tea.Model.
func (b *Browser) View() string {
	var sb strings.Builder
	sb.WriteString(b.headerView())
	sb.WriteString("\n\n")
	sb.WriteString(b.viewport.View())
	sb.WriteByte('\n')
	sb.WriteString(b.statusView())
	sb.WriteByte('\n')
	sb.WriteString(b.help.View(b.keys))
	return sb.String()
}

// Snapshot returns the snapshot currently displayed.
func (b *Browser) Snapshot() *render.Snapshot { return b.snapshot }

// Selected returns the node under the cursor, or nil for an empty tree.
func (b *Browser) Selected() *render.Node {
	if r, ok := b.current(); ok {
		return r.node
	}
	return nil
}

// Statistics returns the active label mode.
func (b *Browser) Statistics() tagtree.Statistics { return b.mode }

func (b *Browser) waitForUpdate() tea.Cmd {
	ch := b.updates
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return updateMsg{closed: true}
		}
		return updateMsg{}
	}
}

func (b *Browser) switchLayout() tea.Cmd {
	if b.switched || b.snapshot == nil {
		return nil
	}
	kind := tagtree.LayoutGrouped
	if b.snapshot.Layout == tagtree.LayoutGrouped {
		kind = tagtree.LayoutFlat
	}
	b.switched = true
	b.status = "switching to " + kind.String() + " layout…"
	src, ctx := b.src, b.ctx
	return func() tea.Msg {
		_, err := src.SwitchLayout(ctx, kind)
		return layoutMsg{kind: kind, err: err}
	}
}

// refresh takes a new snapshot and keeps the cursor on the same node when
// it still exists.
func (b *Browser) refresh() {
	var selected string
	if r, ok := b.current(); ok {
		selected = r.key
	}
	b.snapshot = captureFrom(b.src, b.mode)
	b.rows = flatten(b.snapshot.Root, b.exp)
	b.cursor = min(b.cursor, max(len(b.rows)-1, 0))
	for i, r := range b.rows {
		if r.key == selected {
			b.cursor = i
			break
		}
	}
	b.render()
}

func captureFrom(src Source, mode tagtree.Statistics) *render.Snapshot {
	var snap *render.Snapshot
	src.View(func(e *engine.Engine) {
		snap = render.Capture(e, mode)
	})
	return snap
}

func (b *Browser) current() (row, bool) {
	if b.cursor < 0 || b.cursor >= len(b.rows) {
		return row{}, false
	}
	return b.rows[b.cursor], true
}

func (b *Browser) moveCursor(delta int) {
	if len(b.rows) == 0 {
		return
	}
	b.cursor = max(0, min(len(b.rows)-1, b.cursor+delta))
	b.render()
}

func (b *Browser) setOpen(open bool) {
	r, ok := b.current()
	if !ok || r.node.IsLeaf() || r.open == open {
		return
	}
	b.exp[r.key] = open
	b.reflow()
}

// collapse closes the current node, or moves to its parent when it is
// already closed.
func (b *Browser) collapse() {
	r, ok := b.current()
	if !ok {
		return
	}
	if r.open {
		b.setOpen(false)
		return
	}
	for i := b.cursor - 1; i >= 0; i-- {
		if b.rows[i].depth < r.depth {
			b.cursor = i
			break
		}
	}
	b.render()
}

func (b *Browser) reflow() {
	selected, _ := b.current()
	b.rows = flatten(b.snapshot.Root, b.exp)
	for i, r := range b.rows {
		if r.key == selected.key {
			b.cursor = i
			break
		}
	}
	b.cursor = min(b.cursor, max(len(b.rows)-1, 0))
	b.render()
}

func (b *Browser) resize(width, height int) {
	b.width, b.height = width, height
	b.help.Width = width
	helpLines := 1
	if b.help.ShowAll {
		for _, col := range b.keys.FullHelp() {
			helpLines = max(helpLines, len(col))
		}
	}
	b.viewport.Width = width
	b.viewport.Height = max(1, height-chromeLines-helpLines+1)
}

// render refreshes the viewport content and scrolls the cursor into view.
func (b *Browser) render() {
	lines := make([]string, len(b.rows))
	for i, r := range b.rows {
		lines[i] = b.rowView(r, i == b.cursor)
	}
	b.viewport.SetContent(strings.Join(lines, "\n"))

	switch {
	case b.cursor < b.viewport.YOffset:
		b.viewport.SetYOffset(b.cursor)
	case b.cursor >= b.viewport.YOffset+b.viewport.Height:
		b.viewport.SetYOffset(b.cursor - b.viewport.Height + 1)
	}
}

func (b *Browser) rowView(r row, selected bool) string {
	marker := "  "
	if !r.node.IsLeaf() {
		marker = "▸ "
		if r.open {
			marker = "▾ "
		}
	}
	line := strings.Repeat("  ", r.depth) + marker
	if selected {
		return line + b.styles.selected.Render(r.node.Label)
	}
	return line + b.theme.Label(r.node)
}

func (b *Browser) headerView() string {
	if b.snapshot == nil {
		return b.styles.header.Render(b.title)
	}
	s := b.snapshot.Summary
	info := fmt.Sprintf("%s layout · %d tags · %d documents · %d occurrences",
		b.snapshot.Layout, s.Tags, s.Documents, s.Occurrences)
	return b.styles.header.Render(b.title) + "  " + b.styles.muted.Render(info)
}

func (b *Browser) statusView() string {
	if strings.HasPrefix(b.status, "layout switch failed") {
		return b.styles.errStyle.Render(b.status)
	}
	if r, ok := b.current(); ok && r.node.Kind == render.KindDocument {
		return b.styles.muted.Render(r.node.Path)
	}
	return b.styles.muted.Render(b.status)
}

func nextStatistics(s tagtree.Statistics) tagtree.Statistics {
	switch s {
	case tagtree.StatisticsDisabled:
		return tagtree.StatisticsSimplified
	case tagtree.StatisticsSimplified:
		return tagtree.StatisticsDetailed
	default:
		return tagtree.StatisticsDisabled
	}
}

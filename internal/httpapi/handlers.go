// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/tagscope/tagscope/internal/engine"
	"github.com/tagscope/tagscope/internal/metrics"
	"github.com/tagscope/tagscope/internal/render"
	"github.com/tagscope/tagscope/internal/tagtree"
)

const transport = "http"

var contentTypes = map[render.Format]string{
	render.FormatJSON:     "application/json; charset=utf-8",
	render.FormatYAML:     "application/yaml; charset=utf-8",
	render.FormatMarkdown: "text/markdown; charset=utf-8",
	render.FormatText:     "text/plain; charset=utf-8",
}

type (
	// Handlers serves the API of one indexing session.
	Handlers struct {
		session  *engine.Session
		recorder *metrics.Recorder
		logger   *log.Logger
	}

	// ErrorResponse is the body of every failed request.
	ErrorResponse struct {
		Error string `json:"error"`
	}

	// HealthResponse is the body of GET /healthz.
	HealthResponse struct {
		Status string `json:"status"`
	}

	// SessionResponse describes the indexing session.
	SessionResponse struct {
		ID         string             `json:"id"`
		Layout     tagtree.LayoutKind `json:"layout"`
		Summary    tagtree.Summary    `json:"summary"`
		Pending    int                `json:"pending"`
		LastUpdate *time.Time         `json:"last_update,omitempty"`
	}

	// TagLocation is one place a tag appears in the active layout.
	TagLocation struct {
		// Holder is the content root, or empty in the flat layout.
		Holder      string `json:"holder,omitempty"`
		Category    string `json:"category"`
		Documents   int    `json:"documents"`
		Occurrences int    `json:"occurrences"`
	}

	// TagResponse is the body of GET /v1/tags/:name.
	TagResponse struct {
		Name      string        `json:"name"`
		Locations []TagLocation `json:"locations"`
		// Documents are paths relative to the project root.
		Documents []string `json:"documents"`
	}

	// CategoryResponse is the body of GET /v1/categories/:tag.
	CategoryResponse struct {
		Tag      string `json:"tag"`
		Category string `json:"category"`
		// Mapped is false when no mapping matched and the tag falls into Other.
		Mapped bool `json:"mapped"`
	}

	// LayoutRequest is the body of PUT /v1/layout.
	LayoutRequest struct {
		Layout tagtree.LayoutKind `json:"layout" binding:"required"`
	}

	// LayoutResponse reports the outcome of a layout switch.
	LayoutResponse struct {
		Layout  tagtree.LayoutKind `json:"layout"`
		Changed bool               `json:"changed"`
	}

	// UpdateEvent is the payload of one server-sent update.
	UpdateEvent struct {
		Time      time.Time       `json:"time"`
		Rescan    bool            `json:"rescan"`
		Documents int             `json:"documents"`
		Summary   tagtree.Summary `json:"summary"`
	}
)

// NewHandlers returns the handlers of session. recorder may be nil.
func NewHandlers(session *engine.Session, recorder *metrics.Recorder, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handlers{session: session, recorder: recorder, logger: logger}
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleTree writes a snapshot of the active layout.
func (h *Handlers) HandleTree(c *gin.Context) {
	mode, ok := statisticsParam(c)
	if !ok {
		return
	}
	format := render.Format(c.DefaultQuery("format", string(render.FormatJSON)))
	if err := format.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if raw := c.Query("layout"); raw != "" {
		kind := tagtree.LayoutKind(raw)
		if err := kind.Validate(); err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}
		if _, err := h.session.SwitchLayout(c.Request.Context(), kind); err != nil {
			h.logger.Error("failed to switch layout", "layout", kind, "error", err)
			abort(c, http.StatusInternalServerError, err)
			return
		}
	}

	snap := render.FromSession(h.session, mode)
	var buf bytes.Buffer
	if err := render.Write(&buf, snap, format, render.TextOptions{Theme: render.PlainTheme()}); err != nil {
		h.logger.Error("failed to render tree", "format", format, "error", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, contentTypes[format], buf.Bytes())
}

// HandleStats reports per-category and per-tag statistics.
func (h *Handlers) HandleStats(c *gin.Context) {
	top := 0
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abort(c, http.StatusBadRequest, errors.New("top must be a non-negative integer"))
			return
		}
		top = n
	}

	st := render.Collect(render.FromSession(h.session, tagtree.StatisticsDetailed))
	if top > 0 && len(st.Tags) > top {
		st.Tags = st.Tags[:top]
	}
	c.JSON(http.StatusOK, st)
}

// HandleTag reports where a tag appears and which documents carry it.
func (h *Handlers) HandleTag(c *gin.Context) {
	name := c.Param("name")

	resp := TagResponse{Name: name, Locations: []TagLocation{}, Documents: []string{}}
	h.session.View(func(e *engine.Engine) {
		for _, loc := range e.FindTag(name) {
			l := TagLocation{
				Category:    loc.Category.Name(),
				Documents:   loc.Tag.Len(),
				Occurrences: loc.Tag.Count(e.Index()),
			}
			if loc.Holder.Kind() == tagtree.KindContentRoot {
				l.Holder = loc.Holder.DisplayName()
			}
			resp.Locations = append(resp.Locations, l)
		}
		root := e.Workspace().ProjectRoot()
		for _, id := range e.DocumentsWithTag(name) {
			resp.Documents = append(resp.Documents, render.RelativePath(id, root))
		}
	})

	if len(resp.Locations) == 0 {
		abort(c, http.StatusNotFound, errors.New("tag not found: "+name))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HandleCategory resolves the category a tag is placed in.
func (h *Handlers) HandleCategory(c *gin.Context) {
	resp := CategoryResponse{Tag: c.Param("tag"), Category: tagtree.OtherCategory}
	h.session.View(func(e *engine.Engine) {
		if name, ok := e.Registry().CategoryOf(resp.Tag); ok {
			resp.Category, resp.Mapped = name, true
		}
	})
	c.JSON(http.StatusOK, resp)
}

// HandleSession describes the indexing session.
func (h *Handlers) HandleSession(c *gin.Context) {
	resp := SessionResponse{ID: h.session.ID(), Pending: h.session.Pending()}
	h.session.View(func(e *engine.Engine) {
		resp.Layout = e.Layout().Kind()
		resp.Summary = e.Summary()
	})
	if t := h.session.LastUpdate(); !t.IsZero() {
		resp.LastUpdate = &t
	}
	c.JSON(http.StatusOK, resp)
}

// HandleLayout switches the active layout.
func (h *Handlers) HandleLayout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := req.Layout.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	changed, err := h.session.SwitchLayout(c.Request.Context(), req.Layout)
	if err != nil {
		h.logger.Error("failed to switch layout", "layout", req.Layout, "error", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, LayoutResponse{Layout: req.Layout, Changed: changed})
}

// HandleRescan rebuilds the active layout and returns the new summary.
func (h *Handlers) HandleRescan(c *gin.Context) {
	if err := h.session.Rescan(c.Request.Context()); err != nil {
		h.logger.Error("rescan failed", "error", err)
		abort(c, http.StatusInternalServerError, err)
		return
	}
	var summary tagtree.Summary
	h.session.View(func(e *engine.Engine) { summary = e.Summary() })
	c.JSON(http.StatusOK, summary)
}

// HandleEvents streams tree updates until the client goes away.
func (h *Handlers) HandleEvents(c *gin.Context) {
	updates, unsubscribe := h.session.Subscribe()
	defer unsubscribe()
	h.recorder.ClientConnected(transport)
	defer h.recorder.ClientDisconnected(transport)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case u, ok := <-updates:
			if !ok {
				return false
			}
			ev := UpdateEvent{Time: u.Time, Rescan: u.Rescan, Documents: len(u.Documents)}
			h.session.View(func(e *engine.Engine) { ev.Summary = e.Summary() })
			c.SSEvent("update", ev)
			return true
		}
	})
}

func statisticsParam(c *gin.Context) (tagtree.Statistics, bool) {
	mode := tagtree.Statistics(c.DefaultQuery("statistics", string(tagtree.StatisticsSimplified)))
	if err := mode.Validate(); err != nil {
		abort(c, http.StatusBadRequest, err)
		return "", false
	}
	return mode, true
}

func abort(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, ErrorResponse{Error: err.Error()})
}

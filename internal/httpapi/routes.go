// SPDX-License-Identifier: MPL-2.0

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tagscope/tagscope/internal/metrics"
)

// NewRouter returns a gin engine serving h. gatherer backs /metrics; nil
// leaves the endpoint out.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), observe(h.recorder))

	router.GET("/healthz", h.HandleHealth)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	RegisterRoutes(v1, h)
	return router
}

// RegisterRoutes registers the /v1 endpoints on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("/tree", h.HandleTree)
	rg.GET("/stats", h.HandleStats)
	rg.GET("/tags/:name", h.HandleTag)
	rg.GET("/categories/:tag", h.HandleCategory)
	rg.GET("/session", h.HandleSession)
	rg.GET("/events", h.HandleEvents)
	rg.PUT("/layout", h.HandleLayout)
	rg.POST("/rescan", h.HandleRescan)
}

// observe records the latency of every routed request.
func observe(r *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		if code == 0 {
			code = http.StatusOK
		}
		r.ObserveRequest(route, code, time.Since(start))
	}
}

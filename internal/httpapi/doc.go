// SPDX-License-Identifier: MPL-2.0

// Package httpapi serves the tag index as JSON over HTTP with gin.
//
// Endpoints:
//
//	GET  /healthz              - liveness
//	GET  /metrics              - Prometheus metrics
//	GET  /v1/tree              - tree snapshot (?layout=, ?statistics=, ?format=)
//	GET  /v1/stats             - per-category and per-tag statistics (?top=)
//	GET  /v1/tags/:name        - locations and documents of one tag
//	GET  /v1/categories/:tag   - category a tag resolves to
//	GET  /v1/session           - session identity and activity
//	GET  /v1/events            - tree updates as server-sent events
//	PUT  /v1/layout            - switch between flat and grouped
//	POST /v1/rescan            - rebuild the active layout from a full scan
//
// File organization:
//   - handlers.go: request handlers and response types
//   - routes.go: route registration and middleware
//   - server.go: the lifecycle-managed HTTP server
package httpapi

// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"fmt"
	"slices"
)

const (
	// SeverityWarning indicates a recoverable discovery warning.
	SeverityWarning Severity = "warning"
	// SeverityError indicates a non-fatal discovery error diagnostic.
	SeverityError Severity = "error"

	// CodeWalkFailed reports a directory that could not be read during the walk.
	CodeWalkFailed = "walk_failed"
	// CodeMarkerUnreadable reports a module marker that exists but could not be inspected.
	CodeMarkerUnreadable = "marker_unreadable"
	// CodeContentRootMissing reports a configured content root that does not exist.
	CodeContentRootMissing = "content_root_missing"
)

type (
	// Severity represents discovery diagnostic severity.
	Severity string

	// Diagnostic represents a structured discovery diagnostic that is returned
	// to callers (rather than written to stderr) for consistent rendering policy.
	Diagnostic struct {
		// Severity is the diagnostic level (warning or error).
		Severity Severity
		// Code is a machine-readable identifier (e.g., "walk_failed").
		Code string
		// Message is the human-readable description.
		Message string
		// Path is the file path associated with this diagnostic (optional).
		Path string
		// Cause is the underlying error (optional, for programmatic inspection).
		Cause error
	}
)

// String renders the diagnostic on a single line.
func (d Diagnostic) String() string {
	if d.Path == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Path, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	return slices.ContainsFunc(diags, func(d Diagnostic) bool {
		return d.Severity == SeverityError
	})
}

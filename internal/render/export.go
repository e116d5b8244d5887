// SPDX-License-Identifier: MPL-2.0

package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// FormatText is the indented lipgloss tree.
	FormatText Format = "text"
	// FormatJSON is the snapshot as indented JSON.
	FormatJSON Format = "json"
	// FormatYAML is the snapshot as YAML.
	FormatYAML Format = "yaml"
	// FormatMarkdown is the tree as a nested markdown list.
	FormatMarkdown Format = "markdown"
)

// ErrInvalidFormat is returned when a Format value is not recognized.
var ErrInvalidFormat = errors.New("invalid output format")

type (
	// Format selects how a snapshot is written.
	Format string

	// InvalidFormatError is returned when a Format value is not recognized.
	// It wraps ErrInvalidFormat for errors.Is() compatibility.
	InvalidFormatError struct {
		Value Format
	}
)

// Error implements the error interface for InvalidFormatError.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: %s)", e.Value, strings.Join(FormatNames(), ", "))
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error {
	return ErrInvalidFormat
}

// Validate returns nil if the Format value is recognized.
func (f Format) Validate() error {
	switch f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
		return nil
	default:
		return &InvalidFormatError{Value: f}
	}
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// FormatNames lists the recognized formats.
func FormatNames() []string {
	return []string{string(FormatText), string(FormatJSON), string(FormatYAML), string(FormatMarkdown)}
}

// Write encodes the snapshot in format f. opts only applies to FormatText.
func Write(w io.Writer, s *Snapshot, f Format, opts TextOptions) error {
	switch f {
	case FormatText:
		return Text(w, s, opts)
	case FormatJSON:
		return WriteJSON(w, s)
	case FormatYAML:
		return WriteYAML(w, s)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(s))
		return err
	default:
		return &InvalidFormatError{Value: f}
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteYAML writes v as YAML with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown renders the tree as a nested markdown list under a heading.
func Markdown(s *Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", s.Root.Label)
	for _, c := range s.Root.Children {
		c.Walk(func(n *Node, depth int) bool {
			sb.WriteString(strings.Repeat("  ", depth))
			sb.WriteString("- ")
			if n.Kind == KindDocument && n.Path != "" {
				fmt.Fprintf(&sb, "%s (`%s`)", escapeMarkdown(n.Label), n.Path)
			} else {
				sb.WriteString(escapeMarkdown(n.Label))
			}
			sb.WriteByte('\n')
			return true
		})
	}
	return sb.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"`", "\\`",
	"|", `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

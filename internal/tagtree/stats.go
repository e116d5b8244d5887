// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"errors"
	"fmt"

	"github.com/tagscope/tagscope/internal/document"
)

const (
	// StatisticsDisabled shows plain names.
	StatisticsDisabled Statistics = "disabled"
	// StatisticsSimplified adds counts to tags and categories.
	StatisticsSimplified Statistics = "simplified"
	// StatisticsDetailed adds counts to every node.
	StatisticsDetailed Statistics = "detailed"
)

// ErrInvalidStatistics is returned when a Statistics value is not recognized.
var ErrInvalidStatistics = errors.New("invalid statistics mode")

type (
	// Statistics selects how much counting detail node labels carry.
	Statistics string

	// InvalidStatisticsError is returned when a Statistics value is not
	// recognized. It wraps ErrInvalidStatistics for errors.Is() compatibility.
	InvalidStatisticsError struct {
		Value Statistics
	}

	// Summary aggregates the content of one or more holders.
	Summary struct {
		Tags        int `json:"tags"`
		Documents   int `json:"documents"`
		Occurrences int `json:"occurrences"`
	}
)

// Error implements the error interface for InvalidStatisticsError.
func (e *InvalidStatisticsError) Error() string {
	return fmt.Sprintf("invalid statistics mode %q (valid: disabled, simplified, detailed)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStatisticsError) Unwrap() error {
	return ErrInvalidStatistics
}

// Validate returns nil if the Statistics value is recognized.
func (s Statistics) Validate() error {
	switch s {
	case StatisticsDisabled, StatisticsSimplified, StatisticsDetailed:
		return nil
	default:
		return &InvalidStatisticsError{Value: s}
	}
}

// Summarize counts distinct tag names and documents across holders, plus
// the total number of occurrences.
func Summarize(c Counter, holders ...Holder) Summary {
	tags := make(map[string]struct{})
	docs := make(map[document.ID]struct{})
	var s Summary
	for _, h := range holders {
		for _, cat := range h.Categories() {
			for _, t := range cat.Tags() {
				tags[t.Name()] = struct{}{}
				for _, d := range t.Documents() {
					docs[d.ID()] = struct{}{}
					s.Occurrences += d.Count(c)
				}
			}
		}
	}
	s.Tags = len(tags)
	s.Documents = len(docs)
	return s
}

// Summary summarizes the holders under n.
func (m *Model) Summary(n Node, c Counter) Summary {
	switch n := n.(type) {
	case *Root:
		return Summarize(c, m.layout.Holders(n)...)
	case *ContentRoot:
		return Summarize(c, n)
	default:
		return Summary{}
	}
}

// Label returns the display name of n decorated per mode.
func (m *Model) Label(n Node, mode Statistics, c Counter) string {
	if mode == StatisticsDisabled || mode == "" {
		return n.DisplayName()
	}
	detailed := mode == StatisticsDetailed

	switch n := n.(type) {
	case *Root, *ContentRoot:
		if !detailed {
			return n.DisplayName()
		}
		s := m.Summary(n, c)
		return fmt.Sprintf("%s (%d distinct tags, %d documents)", n.DisplayName(), s.Tags, s.Documents)
	case *Category:
		if !detailed {
			return fmt.Sprintf("%s (%d)", n.Name(), n.Len())
		}
		return fmt.Sprintf("%s (%d tags, %d occurrences)", n.Name(), n.Len(), n.Count(c))
	case *Tag:
		return fmt.Sprintf("%s (%d)", n.Name(), n.Count(c))
	case *Document:
		if !detailed {
			return n.DisplayName()
		}
		return fmt.Sprintf("%s (%d)", n.DisplayName(), n.Count(c))
	default:
		return n.DisplayName()
	}
}

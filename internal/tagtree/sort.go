// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"slices"
	"strings"
)

// CompareNames orders display names case-insensitively. Names equal up to
// case are ordered byte-wise so the order never depends on insertion.
func CompareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func sortNodes[T Node](nodes []T) {
	if len(nodes) < 2 {
		return
	}
	slices.SortStableFunc(nodes, func(a, b T) int {
		return CompareNames(a.DisplayName(), b.DisplayName())
	})
}

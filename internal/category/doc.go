// SPDX-License-Identifier: MPL-2.0

// Package category resolves tag names to user-configured category names.
//
// Mappings come from an ordered list of (category, comma-separated tag tokens)
// pairs, one list per configuration scope. A token is either an exact tag name
// or, when it starts with RegexPrefix, a regular expression that must match
// the whole tag name. Exact matches always win over patterns; patterns are
// tried in insertion order and the first match wins.
package category

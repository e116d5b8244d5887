// SPDX-License-Identifier: MPL-2.0

package tagtree

import (
	"github.com/tagscope/tagscope/internal/document"
)

// OtherCategory is the name of the permanent catch-all category.
const OtherCategory = "Other"

type (
	// Category is a named group of tags, unique by tag name.
	Category struct {
		name  string
		other bool
		tags  []*Tag
	}

	// Holder owns categories and always contains exactly one Other category.
	// It is the Root in the flat layout and a ContentRoot in the grouped one.
	Holder interface {
		Node
		Categories() []*Category
		// Category returns the category with the given name, or nil.
		Category(name string) *Category
		// EnsureCategory returns the named category, creating it if needed.
		// The empty name and OtherCategory resolve to the Other category.
		EnsureCategory(name string) *Category
		// RemoveCategory removes a non-Other category. Removing Other or an
		// absent category is a no-op.
		RemoveCategory(name string) bool
		Other() *Category
	}

	// categorySet implements the category storage shared by holders.
	categorySet struct {
		categories []*Category
		other      *Category
	}
)

// Name returns the category name.
func (c *Category) Name() string { return c.name }

// DisplayName implements Node.
func (c *Category) DisplayName() string { return c.name }

// Kind implements Node.
func (*Category) Kind() NodeKind { return KindCategory }

// IsOther reports whether this is the holder's catch-all category.
func (c *Category) IsOther() bool { return c.other }

// Tags returns the tags. The slice must not be modified.
func (c *Category) Tags() []*Tag { return c.tags }

// Len returns the number of tags.
func (c *Category) Len() int { return len(c.tags) }

// IsEmpty reports whether the category has no tags.
func (c *Category) IsEmpty() bool { return len(c.tags) == 0 }

// Tag returns the tag with the given name, or nil.
func (c *Category) Tag(name string) *Tag {
	for _, t := range c.tags {
		if t.name == name {
			return t
		}
	}
	return nil
}

// AddTag adds t unless a tag with the same name exists, and returns the tag
// that is now in the category.
func (c *Category) AddTag(t *Tag) *Tag {
	if existing := c.Tag(t.name); existing != nil {
		return existing
	}
	c.tags = append(c.tags, t)
	return t
}

// RemoveTag removes the named tag. It is a no-op when absent.
func (c *Category) RemoveTag(name string) bool {
	for i, t := range c.tags {
		if t.name == name {
			c.tags = append(c.tags[:i], c.tags[i+1:]...)
			return true
		}
	}
	return false
}

// Count returns the sum of occurrence counts over all tags.
func (c *Category) Count(counter Counter) int {
	total := 0
	for _, t := range c.tags {
		total += t.Count(counter)
	}
	return total
}

func (c *Category) sortChildren() {
	sortNodes(c.tags)
	for _, t := range c.tags {
		t.sortChildren()
	}
}

func newCategorySet() *categorySet {
	other := &Category{name: OtherCategory, other: true}
	return &categorySet{categories: []*Category{other}, other: other}
}

func (s *categorySet) Categories() []*Category { return s.categories }

func (s *categorySet) Other() *Category { return s.other }

func (s *categorySet) Category(name string) *Category {
	for _, c := range s.categories {
		if c.name == name {
			return c
		}
	}
	return nil
}

func (s *categorySet) EnsureCategory(name string) *Category {
	if name == "" || name == OtherCategory {
		return s.other
	}
	if c := s.Category(name); c != nil {
		return c
	}
	c := &Category{name: name}
	s.categories = append(s.categories, c)
	return c
}

func (s *categorySet) RemoveCategory(name string) bool {
	for i, c := range s.categories {
		if c.name == name && !c.other {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return true
		}
	}
	return false
}

// isVacant reports whether only an empty Other category is left.
func (s *categorySet) isVacant() bool {
	return len(s.categories) == 1 && s.other.IsEmpty()
}

func (s *categorySet) sortChildren() {
	sortNodes(s.categories)
	for _, c := range s.categories {
		c.sortChildren()
	}
}

// TagsOf returns every tag in h bound to id, with its category.
func TagsOf(h Holder, id document.ID) []Placement {
	var out []Placement
	for _, c := range h.Categories() {
		for _, t := range c.Tags() {
			if t.Document(id) != nil {
				out = append(out, Placement{Category: c, Tag: t})
			}
		}
	}
	return out
}

// Contains reports whether any tag in h is bound to id.
func Contains(h Holder, id document.ID) bool {
	for _, c := range h.Categories() {
		for _, t := range c.Tags() {
			if t.Document(id) != nil {
				return true
			}
		}
	}
	return false
}

// FindTag returns the named tag in h and its category, or nils.
func FindTag(h Holder, name string) (*Category, *Tag) {
	for _, c := range h.Categories() {
		if t := c.Tag(name); t != nil {
			return c, t
		}
	}
	return nil, nil
}

// Placement is a tag together with the category holding it.
type Placement struct {
	Category *Category
	Tag      *Tag
}

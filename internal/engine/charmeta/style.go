// Package charmeta provides per-character formatting metadata.
//
// Each character of a block carries a CharacterMetadata value: the set of
// inline styles applied to it and an optional entity key. Values are
// immutable and interned, so equal metadata is represented by one pointer
// and lists of metadata share storage freely.
package charmeta

import (
	"slices"
	"strings"
)

// StyleSet is an immutable ordered set of inline style names.
// Iteration follows insertion order; equality ignores order.
type StyleSet struct {
	names []string
}

// EmptyStyle is the style set with no members.
var EmptyStyle = StyleSet{}

// NewStyleSet creates a style set from names, dropping duplicates.
func NewStyleSet(names ...string) StyleSet {
	var s StyleSet
	for _, n := range names {
		s = s.Add(n)
	}
	return s
}

// Len returns the number of styles.
func (s StyleSet) Len() int { return len(s.names) }

// IsEmpty reports whether the set has no styles.
func (s StyleSet) IsEmpty() bool { return len(s.names) == 0 }

// Has reports whether style is a member.
func (s StyleSet) Has(style string) bool {
	return slices.Contains(s.names, style)
}

// Add returns a set that also contains style.
func (s StyleSet) Add(style string) StyleSet {
	if s.Has(style) {
		return s
	}
	names := make([]string, len(s.names), len(s.names)+1)
	copy(names, s.names)
	return StyleSet{names: append(names, style)}
}

// Remove returns a set without style.
func (s StyleSet) Remove(style string) StyleSet {
	i := slices.Index(s.names, style)
	if i < 0 {
		return s
	}
	names := make([]string, 0, len(s.names)-1)
	names = append(names, s.names[:i]...)
	names = append(names, s.names[i+1:]...)
	return StyleSet{names: names}
}

// Names returns the styles in insertion order.
func (s StyleSet) Names() []string {
	return slices.Clone(s.names)
}

// Equal reports whether both sets have the same members.
func (s StyleSet) Equal(o StyleSet) bool {
	if len(s.names) != len(o.names) {
		return false
	}
	for _, n := range s.names {
		if !o.Has(n) {
			return false
		}
	}
	return true
}

// String returns the styles joined by commas.
func (s StyleSet) String() string {
	return strings.Join(s.names, ",")
}

// key is an order-independent identity for the set.
func (s StyleSet) key() string {
	sorted := slices.Clone(s.names)
	slices.Sort(sorted)
	return strings.Join(sorted, "\x00")
}

// Package entity defines annotations that span ranges of characters,
// such as links, mentions or embedded media.
package entity

import (
	"fmt"
	"maps"
)

// Mutability controls how an entity's text reacts to edits.
type Mutability string

const (
	// Mutable text may be edited freely; the entity stays attached.
	Mutable Mutability = "MUTABLE"
	// Immutable text is removed as a whole when any part is deleted.
	Immutable Mutability = "IMMUTABLE"
	// Segmented text is removed one space-separated segment at a time.
	Segmented Mutability = "SEGMENTED"
)

// ParseMutability converts a string into a Mutability.
func ParseMutability(s string) (Mutability, error) {
	switch m := Mutability(s); m {
	case Mutable, Immutable, Segmented:
		return m, nil
	}
	return "", fmt.Errorf("unknown mutability %q", s)
}

// Entity is an immutable annotation record.
type Entity struct {
	typ        string
	mutability Mutability
	data       map[string]any
}

// New creates an entity. data is copied.
func New(typ string, mutability Mutability, data map[string]any) *Entity {
	return &Entity{typ: typ, mutability: mutability, data: maps.Clone(data)}
}

// Type returns the entity type, e.g. "LINK".
func (e *Entity) Type() string { return e.typ }

// Mutability returns the entity's edit behavior.
func (e *Entity) Mutability() Mutability { return e.mutability }

// Data returns the entity payload. Callers must not modify it.
func (e *Entity) Data() map[string]any { return e.data }

// MergeData returns an entity whose data has patch merged over it.
func (e *Entity) MergeData(patch map[string]any) *Entity {
	data := maps.Clone(e.data)
	if data == nil {
		data = make(map[string]any, len(patch))
	}
	maps.Copy(data, patch)
	return &Entity{typ: e.typ, mutability: e.mutability, data: data}
}

// ReplaceData returns an entity with data replaced.
func (e *Entity) ReplaceData(data map[string]any) *Entity {
	return &Entity{typ: e.typ, mutability: e.mutability, data: maps.Clone(data)}
}

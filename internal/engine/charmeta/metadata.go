package charmeta

import "sync"

// CharacterMetadata is the formatting attached to a single character.
// Obtain values through Create or DefaultPool; never construct directly.
type CharacterMetadata struct {
	style  StyleSet
	entity string
}

// Style returns the inline styles of the character.
func (m *CharacterMetadata) Style() StyleSet { return m.style }

// Entity returns the entity key, or "" when the character has none.
func (m *CharacterMetadata) Entity() string { return m.entity }

// HasStyle reports whether the character carries style.
func (m *CharacterMetadata) HasStyle(style string) bool { return m.style.Has(style) }

// Equal compares by value. Interned values can also be compared by pointer.
func (m *CharacterMetadata) Equal(o *CharacterMetadata) bool {
	if m == o {
		return true
	}
	if m == nil || o == nil {
		return false
	}
	return m.entity == o.entity && m.style.Equal(o.style)
}

// Pool interns CharacterMetadata values so that equal metadata shares one
// allocation. It is safe for concurrent use.
type Pool struct {
	mu     sync.RWMutex
	values map[string]*CharacterMetadata
}

// DefaultPool is the process-wide pool used by Create.
var DefaultPool = NewPool()

// Empty is the metadata with no style and no entity.
var Empty = DefaultPool.Get(EmptyStyle, "")

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{values: make(map[string]*CharacterMetadata)}
}

// Get returns the interned metadata for style and entity.
func (p *Pool) Get(style StyleSet, entity string) *CharacterMetadata {
	k := style.key() + "\x01" + entity

	p.mu.RLock()
	m, ok := p.values[k]
	p.mu.RUnlock()
	if ok {
		return m
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := p.values[k]; ok {
		return m
	}
	m = &CharacterMetadata{style: style, entity: entity}
	p.values[k] = m
	return m
}

// Len returns the number of distinct interned values.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.values)
}

// Create returns interned metadata from DefaultPool.
func Create(style StyleSet, entity string) *CharacterMetadata {
	return DefaultPool.Get(style, entity)
}

// ApplyStyle returns m with style added.
func ApplyStyle(m *CharacterMetadata, style string) *CharacterMetadata {
	if m.style.Has(style) {
		return m
	}
	return Create(m.style.Add(style), m.entity)
}

// RemoveStyle returns m with style removed.
func RemoveStyle(m *CharacterMetadata, style string) *CharacterMetadata {
	if !m.style.Has(style) {
		return m
	}
	return Create(m.style.Remove(style), m.entity)
}

// ApplyEntity returns m with its entity replaced. An empty key clears it.
func ApplyEntity(m *CharacterMetadata, entity string) *CharacterMetadata {
	if m.entity == entity {
		return m
	}
	return Create(m.style, entity)
}

// Package block defines the unit of document structure.
//
// A Block is an immutable paragraph-level record: a key, a type, text with
// one CharacterMetadata per rune, a depth and free-form data. Tree blocks
// additionally carry parent, children and sibling links, expressed as keys
// into the owning block collection.
//
// All offsets are rune offsets into Text.
package block

import (
	"maps"
	"slices"
	"unicode/utf8"

	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/docerr"
)

// Common block types.
const (
	Unstyled          = "unstyled"
	Paragraph         = "paragraph"
	HeaderOne         = "header-one"
	HeaderTwo         = "header-two"
	HeaderThree       = "header-three"
	HeaderFour        = "header-four"
	HeaderFive        = "header-five"
	HeaderSix         = "header-six"
	UnorderedListItem = "unordered-list-item"
	OrderedListItem   = "ordered-list-item"
	Blockquote        = "blockquote"
	CodeBlock         = "code-block"
	Atomic            = "atomic"
)

// IsListItem reports whether typ is one of the list item types.
func IsListItem(typ string) bool {
	return typ == UnorderedListItem || typ == OrderedListItem
}

// Data is block-level metadata. Treat it as read-only.
type Data map[string]any

// Block is an immutable block of text.
type Block struct {
	key    string
	typ    string
	text   string
	length int
	chars  charmeta.List
	depth  int
	data   Data

	tree        bool
	parent      string
	children    []string
	prevSibling string
	nextSibling string
}

// Config describes a block for New.
type Config struct {
	Key   string
	Type  string // defaults to Unstyled
	Text  string
	Chars charmeta.List // nil means all characters have empty metadata
	Depth int
	Data  Data

	// Tree variant fields. Ignored unless Tree is set.
	Tree        bool
	Parent      string
	Children    []string
	PrevSibling string
	NextSibling string
}

// New validates cfg and creates a block.
func New(cfg Config) (*Block, error) {
	if cfg.Key == "" {
		return nil, docerr.Validation("key", "block key is required")
	}
	if cfg.Depth < 0 {
		return nil, docerr.Validationf(cfg.Key, "negative depth %d", cfg.Depth)
	}
	n := utf8.RuneCountInString(cfg.Text)
	chars := cfg.Chars
	if chars == nil {
		chars = charmeta.Repeat(charmeta.Empty, n)
	}
	if chars.Len() != n {
		return nil, docerr.Validationf(cfg.Key, "character list length %d does not match text length %d", chars.Len(), n)
	}
	typ := cfg.Type
	if typ == "" {
		typ = Unstyled
	}
	b := &Block{
		key:    cfg.Key,
		typ:    typ,
		text:   cfg.Text,
		length: n,
		chars:  chars,
		depth:  cfg.Depth,
		data:   cfg.Data,
		tree:   cfg.Tree,
	}
	if cfg.Tree {
		b.parent = cfg.Parent
		if len(cfg.Children) > 0 {
			b.children = slices.Clone(cfg.Children)
		}
		b.prevSibling = cfg.PrevSibling
		b.nextSibling = cfg.NextSibling
	}
	return b, nil
}

// Must is like New but panics on error. Intended for tests and literals.
func Must(cfg Config) *Block {
	b, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return b
}

// Key returns the block key.
func (b *Block) Key() string { return b.key }

// Type returns the block type.
func (b *Block) Type() string { return b.typ }

// Text returns the block text.
func (b *Block) Text() string { return b.text }

// Len returns the text length in runes.
func (b *Block) Len() int { return b.length }

// Chars returns the character metadata list.
func (b *Block) Chars() charmeta.List { return b.chars }

// Depth returns the nesting depth.
func (b *Block) Depth() int { return b.depth }

// Data returns the block data, never nil.
func (b *Block) Data() Data {
	if b.data == nil {
		return Data{}
	}
	return b.data
}

// IsTree reports whether this is a tree-variant block.
func (b *Block) IsTree() bool { return b.tree }

// Parent returns the parent key, "" for roots and flat blocks.
func (b *Block) Parent() string { return b.parent }

// Children returns the child keys in order. Callers must not modify it.
func (b *Block) Children() []string { return b.children }

// HasChildren reports whether the block is a container.
func (b *Block) HasChildren() bool { return len(b.children) > 0 }

// PrevSibling returns the previous sibling key or "".
func (b *Block) PrevSibling() string { return b.prevSibling }

// NextSibling returns the next sibling key or "".
func (b *Block) NextSibling() string { return b.nextSibling }

// InlineStyleAt returns the styles of the character at offset.
func (b *Block) InlineStyleAt(offset int) charmeta.StyleSet {
	if offset < 0 || offset >= b.length {
		return charmeta.EmptyStyle
	}
	return b.chars[offset].Style()
}

// EntityAt returns the entity key of the character at offset, or "".
func (b *Block) EntityAt(offset int) string {
	if offset < 0 || offset >= b.length {
		return ""
	}
	return b.chars[offset].Entity()
}

// CharAt returns the metadata of the character at offset.
func (b *Block) CharAt(offset int) *charmeta.CharacterMetadata {
	if offset < 0 || offset >= b.length {
		return charmeta.Empty
	}
	return b.chars[offset]
}

// Slice returns the text of runes [start, end).
func (b *Block) Slice(start, end int) string {
	return RuneSlice(b.text, start, end)
}

func (b *Block) clone() *Block {
	c := *b
	return &c
}

// WithKey returns a copy with a new key.
func (b *Block) WithKey(key string) *Block {
	c := b.clone()
	c.key = key
	return c
}

// WithType returns a copy with a new type.
func (b *Block) WithType(typ string) *Block {
	if b.typ == typ {
		return b
	}
	c := b.clone()
	c.typ = typ
	return c
}

// WithText returns a copy with new text and metadata. chars must have one
// entry per rune of text; nil fills with empty metadata.
func (b *Block) WithText(text string, chars charmeta.List) *Block {
	c := b.clone()
	c.text = text
	c.length = utf8.RuneCountInString(text)
	if chars == nil {
		chars = charmeta.Repeat(charmeta.Empty, c.length)
	}
	c.chars = chars
	return c
}

// WithChars returns a copy with new metadata for the same text.
func (b *Block) WithChars(chars charmeta.List) *Block {
	c := b.clone()
	c.chars = chars
	return c
}

// WithDepth returns a copy with a new depth.
func (b *Block) WithDepth(depth int) *Block {
	if b.depth == depth {
		return b
	}
	c := b.clone()
	c.depth = depth
	return c
}

// WithData returns a copy with data replaced.
func (b *Block) WithData(data Data) *Block {
	c := b.clone()
	c.data = data
	return c
}

// MergeData returns a copy with patch merged over the existing data.
func (b *Block) MergeData(patch Data) *Block {
	data := maps.Clone(b.data)
	if data == nil {
		data = make(Data, len(patch))
	}
	maps.Copy(data, patch)
	return b.WithData(data)
}

// WithParent returns a copy with a new parent key.
func (b *Block) WithParent(key string) *Block {
	if b.parent == key {
		return b
	}
	c := b.clone()
	c.parent = key
	return c
}

// WithChildren returns a copy with new child keys. The slice is retained.
func (b *Block) WithChildren(keys []string) *Block {
	c := b.clone()
	c.children = keys
	return c
}

// WithPrevSibling returns a copy with a new previous sibling key.
func (b *Block) WithPrevSibling(key string) *Block {
	if b.prevSibling == key {
		return b
	}
	c := b.clone()
	c.prevSibling = key
	return c
}

// WithNextSibling returns a copy with a new next sibling key.
func (b *Block) WithNextSibling(key string) *Block {
	if b.nextSibling == key {
		return b
	}
	c := b.clone()
	c.nextSibling = key
	return c
}

// WithLinks returns a copy with parent and sibling links replaced, or b
// itself when they already match.
func (b *Block) WithLinks(parent, prev, next string) *Block {
	if b.parent == parent && b.prevSibling == prev && b.nextSibling == next {
		return b
	}
	c := b.clone()
	c.parent = parent
	c.prevSibling = prev
	c.nextSibling = next
	return c
}

// AsTree returns a tree-variant copy with no links.
func (b *Block) AsTree() *Block {
	c := b.clone()
	c.tree = true
	c.parent, c.prevSibling, c.nextSibling = "", "", ""
	c.children = nil
	return c
}

// AsFlat returns a flat copy with all links dropped.
func (b *Block) AsFlat() *Block {
	c := b.clone()
	c.tree = false
	c.parent, c.prevSibling, c.nextSibling = "", "", ""
	c.children = nil
	return c
}

// RuneSlice returns runes [start, end) of s. Out of range bounds are clamped.
func RuneSlice(s string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end <= start {
		return ""
	}
	from, to := len(s), len(s)
	i := 0
	for pos := range s {
		if i == start {
			from = pos
		}
		if i == end {
			to = pos
			break
		}
		i++
	}
	return s[from:to]
}

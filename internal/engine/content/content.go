package content

import (
	"slices"
	"strconv"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// ContentState is an immutable document snapshot.
type ContentState struct {
	blocks    BlockMap
	entities  *iradix.Tree[*entity.Entity]
	entitySeq int    // last issued entity key
	lastKey   string // most recently created entity
	before    selection.Selection
	after     selection.Selection
}

// Option configures collection constructors.
type Option func(*options)

type options struct {
	tree      bool
	delimiter string
}

// AsTree builds tree-variant blocks.
func AsTree() Option {
	return func(o *options) { o.tree = true }
}

// WithDelimiter sets the line delimiter used by FromText.
func WithDelimiter(d string) Option {
	return func(o *options) { o.delimiter = d }
}

// FromBlocks creates a collection from blocks in document order.
// Blocks must be all flat or all tree, and the list must not be empty.
func FromBlocks(blocks []*block.Block) (*ContentState, error) {
	if len(blocks) == 0 {
		return nil, docerr.Validation("blocks", "at least one block is required")
	}
	tree := blocks[0].IsTree()
	for _, b := range blocks[1:] {
		if b.IsTree() != tree {
			return nil, docerr.Validationf(b.Key(), "cannot mix flat and tree blocks")
		}
	}
	bm, err := NewBlockMap(blocks)
	if err != nil {
		return nil, err
	}
	sel := selection.CreateEmpty(blocks[0].Key())
	return &ContentState{
		blocks:   bm,
		entities: iradix.New[*entity.Entity](),
		before:   sel,
		after:    sel,
	}, nil
}

// FromText creates a collection with one unstyled block per line.
func FromText(text string, opts ...Option) *ContentState {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	var lines []string
	if o.delimiter != "" {
		lines = strings.Split(text, o.delimiter)
	} else {
		lines = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	}
	blocks := make([]*block.Block, len(lines))
	for i, line := range lines {
		blocks[i] = block.Must(block.Config{Key: GenerateKey(), Text: line, Tree: o.tree})
	}
	if o.tree {
		for i := range blocks {
			var prev, next string
			if i > 0 {
				prev = blocks[i-1].Key()
			}
			if i < len(blocks)-1 {
				next = blocks[i+1].Key()
			}
			blocks[i] = blocks[i].WithLinks("", prev, next)
		}
	}
	c, _ := FromBlocks(blocks)
	return c
}

// Empty returns a collection with a single empty block.
func Empty(opts ...Option) *ContentState {
	return FromText("", opts...)
}

func (c *ContentState) clone() *ContentState {
	n := *c
	return &n
}

// BlockMap returns the block map.
func (c *ContentState) BlockMap() BlockMap { return c.blocks }

// IsTree reports whether the collection holds tree-variant blocks.
func (c *ContentState) IsTree() bool {
	f := c.blocks.First()
	return f != nil && f.IsTree()
}

// SelectionBefore returns the selection recorded before the edit.
func (c *ContentState) SelectionBefore() selection.Selection { return c.before }

// SelectionAfter returns the selection recorded after the edit.
func (c *ContentState) SelectionAfter() selection.Selection { return c.after }

// BlockForKey returns the block for key, or nil.
func (c *ContentState) BlockForKey(key string) *block.Block { return c.blocks.Get(key) }

// KeyBefore returns the key of the block preceding key, or "".
func (c *ContentState) KeyBefore(key string) string { return c.blocks.KeyBefore(key) }

// KeyAfter returns the key of the block following key, or "".
func (c *ContentState) KeyAfter(key string) string { return c.blocks.KeyAfter(key) }

// BlockBefore returns the block preceding key, or nil.
func (c *ContentState) BlockBefore(key string) *block.Block {
	return c.blocks.Get(c.blocks.KeyBefore(key))
}

// BlockAfter returns the block following key, or nil.
func (c *ContentState) BlockAfter(key string) *block.Block {
	return c.blocks.Get(c.blocks.KeyAfter(key))
}

// BlockChildren returns the children of key. Flat collections have none.
func (c *ContentState) BlockChildren(key string) []*block.Block {
	b := c.blocks.Get(key)
	if b == nil || !b.HasChildren() {
		return nil
	}
	out := make([]*block.Block, 0, len(b.Children()))
	for _, k := range b.Children() {
		out = append(out, c.blocks.Get(k))
	}
	return out
}

// FirstBlock returns the first block.
func (c *ContentState) FirstBlock() *block.Block { return c.blocks.First() }

// LastBlock returns the last block.
func (c *ContentState) LastBlock() *block.Block { return c.blocks.Last() }

// Blocks returns all blocks in document order.
func (c *ContentState) Blocks() []*block.Block { return c.blocks.Blocks() }

// PlainText joins the text of every block with delimiter ("\n" when empty).
// Container blocks of a tree contribute no line.
func (c *ContentState) PlainText(delimiter string) string {
	if delimiter == "" {
		delimiter = "\n"
	}
	var sb strings.Builder
	first := true
	c.blocks.Each(func(_ int, b *block.Block) bool {
		if b.HasChildren() {
			return true
		}
		if !first {
			sb.WriteString(delimiter)
		}
		first = false
		sb.WriteString(b.Text())
		return true
	})
	return sb.String()
}

// HasText reports whether the collection contains any text. A single block
// holding only zero-width spaces counts as empty.
func (c *ContentState) HasText() bool {
	if c.blocks.Len() > 1 {
		return true
	}
	f := c.blocks.First()
	return f != nil && strings.ReplaceAll(f.Text(), "\u200b", "") != ""
}

// WithBlockMap returns a collection holding bm.
func (c *ContentState) WithBlockMap(bm BlockMap) *ContentState {
	n := c.clone()
	n.blocks = bm
	return n
}

// WithSelectionBefore returns a collection with selectionBefore set.
func (c *ContentState) WithSelectionBefore(s selection.Selection) *ContentState {
	n := c.clone()
	n.before = s
	return n
}

// WithSelectionAfter returns a collection with selectionAfter set.
func (c *ContentState) WithSelectionAfter(s selection.Selection) *ContentState {
	n := c.clone()
	n.after = s
	return n
}

// Update returns a collection with a new block map and both selections.
func (c *ContentState) Update(bm BlockMap, before, after selection.Selection) *ContentState {
	n := c.clone()
	n.blocks = bm
	n.before = before
	n.after = after
	return n
}

// ============================================================================
// Entities
// ============================================================================

// Entity returns the entity for key, or nil.
func (c *ContentState) Entity(key string) *entity.Entity {
	if c.entities == nil || key == "" {
		return nil
	}
	e, _ := c.entities.Get([]byte(key))
	return e
}

// EntityCount returns the number of entities.
func (c *ContentState) EntityCount() int {
	if c.entities == nil {
		return 0
	}
	return c.entities.Len()
}

// EntityKeys returns all entity keys in ascending numeric order.
func (c *ContentState) EntityKeys() []string {
	var keys []string
	if c.entities == nil {
		return keys
	}
	c.entities.Root().Walk(func(k []byte, _ *entity.Entity) bool {
		keys = append(keys, string(k))
		return false
	})
	sortNumeric(keys)
	return keys
}

// CreateEntity stores a new entity under the next key.
// The key is available from LastCreatedEntityKey.
func (c *ContentState) CreateEntity(typ string, m entity.Mutability, data map[string]any) *ContentState {
	return c.AddEntity(entity.New(typ, m, data))
}

// AddEntity stores e under the next key.
func (c *ContentState) AddEntity(e *entity.Entity) *ContentState {
	n := c.clone()
	n.entitySeq++
	key := strconv.Itoa(n.entitySeq)
	n.entities = n.putEntity(key, e)
	n.lastKey = key
	return n
}

// PutEntity stores e under an explicit key. Numeric keys advance the counter
// so later CreateEntity calls never collide.
func (c *ContentState) PutEntity(key string, e *entity.Entity) *ContentState {
	n := c.clone()
	n.entities = n.putEntity(key, e)
	if v, err := strconv.Atoi(key); err == nil && v > n.entitySeq {
		n.entitySeq = v
	}
	n.lastKey = key
	return n
}

// LastCreatedEntityKey returns the key of the most recently added entity.
func (c *ContentState) LastCreatedEntityKey() string { return c.lastKey }

// MergeEntityData merges patch into the data of entity key.
func (c *ContentState) MergeEntityData(key string, patch map[string]any) (*ContentState, error) {
	e := c.Entity(key)
	if e == nil {
		return nil, docerr.Validationf(key, "unknown entity")
	}
	n := c.clone()
	n.entities = n.putEntity(key, e.MergeData(patch))
	return n, nil
}

// ReplaceEntityData replaces the data of entity key.
func (c *ContentState) ReplaceEntityData(key string, data map[string]any) (*ContentState, error) {
	e := c.Entity(key)
	if e == nil {
		return nil, docerr.Validationf(key, "unknown entity")
	}
	n := c.clone()
	n.entities = n.putEntity(key, e.ReplaceData(data))
	return n, nil
}

func (c *ContentState) putEntity(key string, e *entity.Entity) *iradix.Tree[*entity.Entity] {
	t := c.entities
	if t == nil {
		t = iradix.New[*entity.Entity]()
	}
	t, _, _ = t.Insert([]byte(key), e)
	return t
}

func sortNumeric(keys []string) {
	slices.SortFunc(keys, func(a, b string) int {
		x, errA := strconv.Atoi(a)
		y, errB := strconv.Atoi(b)
		if errA != nil || errB != nil {
			return strings.Compare(a, b)
		}
		return x - y
	})
}

package content

import (
	"slices"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/docerr"
)

// BlockMap is a persistent ordered map from key to block.
//
// Blocks live in an immutable radix tree; document order is an immutable
// key slice. Replacing the value of an existing key shares the order slice,
// so edits that do not add, remove or reorder blocks copy O(log n) nodes.
// The zero value is an empty map.
type BlockMap struct {
	tree  *iradix.Tree[*block.Block]
	order []string
}

// NewBlockMap builds a map from blocks in document order.
// Duplicate keys are a validation error.
func NewBlockMap(blocks []*block.Block) (BlockMap, error) {
	txn := iradix.New[*block.Block]().Txn()
	order := make([]string, 0, len(blocks))
	for i, b := range blocks {
		if _, dup := txn.Insert([]byte(b.Key()), b); dup {
			return BlockMap{}, docerr.Validationf(b.Key(), "duplicate block key at index %d", i)
		}
		order = append(order, b.Key())
	}
	return BlockMap{tree: txn.Commit(), order: order}, nil
}

// Len returns the number of blocks.
func (m BlockMap) Len() int { return len(m.order) }

// Get returns the block for key, or nil.
func (m BlockMap) Get(key string) *block.Block {
	if m.tree == nil {
		return nil
	}
	b, _ := m.tree.Get([]byte(key))
	return b
}

// Has reports whether key is present.
func (m BlockMap) Has(key string) bool {
	return m.Get(key) != nil
}

// Keys returns keys in document order. Callers must not modify it.
func (m BlockMap) Keys() []string { return m.order }

// Blocks returns blocks in document order.
func (m BlockMap) Blocks() []*block.Block {
	out := make([]*block.Block, len(m.order))
	for i, k := range m.order {
		out[i] = m.Get(k)
	}
	return out
}

// Each calls fn for each block in order until fn returns false.
func (m BlockMap) Each(fn func(i int, b *block.Block) bool) {
	for i, k := range m.order {
		if !fn(i, m.Get(k)) {
			return
		}
	}
}

// Index returns the position of key in document order, or -1.
func (m BlockMap) Index(key string) int {
	return slices.Index(m.order, key)
}

// First returns the first block, or nil.
func (m BlockMap) First() *block.Block {
	if len(m.order) == 0 {
		return nil
	}
	return m.Get(m.order[0])
}

// Last returns the last block, or nil.
func (m BlockMap) Last() *block.Block {
	if len(m.order) == 0 {
		return nil
	}
	return m.Get(m.order[len(m.order)-1])
}

// KeyBefore returns the key preceding key in document order, or "".
func (m BlockMap) KeyBefore(key string) string {
	i := m.Index(key)
	if i <= 0 {
		return ""
	}
	return m.order[i-1]
}

// KeyAfter returns the key following key in document order, or "".
func (m BlockMap) KeyAfter(key string) string {
	i := m.Index(key)
	if i < 0 || i == len(m.order)-1 {
		return ""
	}
	return m.order[i+1]
}

// Range returns keys from start through end inclusive, in order.
// It returns nil if either key is missing or end precedes start.
func (m BlockMap) Range(start, end string) []string {
	i, j := m.Index(start), m.Index(end)
	if i < 0 || j < i {
		return nil
	}
	return m.order[i : j+1 : j+1]
}

// Set stores b. An existing key keeps its position; a new key is appended.
func (m BlockMap) Set(b *block.Block) BlockMap {
	tx := m.Txn()
	tx.Set(b)
	return tx.Commit()
}

// Delete removes keys.
func (m BlockMap) Delete(keys ...string) BlockMap {
	tx := m.Txn()
	for _, k := range keys {
		tx.Delete(k)
	}
	return tx.Commit()
}

// InsertAfter inserts blocks after the block with key after.
// An empty after inserts at the beginning.
func (m BlockMap) InsertAfter(after string, blocks ...*block.Block) BlockMap {
	tx := m.Txn()
	tx.InsertAfter(after, blocks...)
	return tx.Commit()
}

// InsertBefore inserts blocks before the block with key before.
// An empty before appends at the end.
func (m BlockMap) InsertBefore(before string, blocks ...*block.Block) BlockMap {
	tx := m.Txn()
	tx.InsertBefore(before, blocks...)
	return tx.Commit()
}

// Txn starts a batch of updates against m.
func (m BlockMap) Txn() *Txn {
	tree := m.tree
	if tree == nil {
		tree = iradix.New[*block.Block]()
	}
	return &Txn{txn: tree.Txn(), order: m.order}
}

// Txn batches BlockMap updates. It is not safe for concurrent use.
type Txn struct {
	txn   *iradix.Txn[*block.Block]
	order []string
	owned bool // order is a private copy
}

// Get returns the current block for key, including pending writes.
func (t *Txn) Get(key string) *block.Block {
	b, _ := t.txn.Get([]byte(key))
	return b
}

// Keys returns the current order. Callers must not modify it.
func (t *Txn) Keys() []string { return t.order }

// Index returns the current position of key, or -1.
func (t *Txn) Index(key string) int { return slices.Index(t.order, key) }

func (t *Txn) own() {
	if !t.owned {
		t.order = slices.Clone(t.order)
		t.owned = true
	}
}

// Set stores b, appending its key when new.
func (t *Txn) Set(b *block.Block) {
	if _, existed := t.txn.Insert([]byte(b.Key()), b); !existed {
		t.own()
		t.order = append(t.order, b.Key())
	}
}

// Put stores b without touching order. The key must already exist or be
// placed with SetOrder before Commit.
func (t *Txn) Put(b *block.Block) {
	t.txn.Insert([]byte(b.Key()), b)
}

// Delete removes key.
func (t *Txn) Delete(key string) {
	if _, existed := t.txn.Delete([]byte(key)); !existed {
		return
	}
	if i := t.Index(key); i >= 0 {
		t.own()
		t.order = slices.Delete(t.order, i, i+1)
	}
}

// DeleteKeys removes keys with a single pass over the order.
func (t *Txn) DeleteKeys(keys []string) {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, existed := t.txn.Delete([]byte(k)); existed {
			drop[k] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return
	}
	order := make([]string, 0, len(t.order))
	for _, k := range t.order {
		if _, ok := drop[k]; !ok {
			order = append(order, k)
		}
	}
	t.order = order
	t.owned = true
}

// InsertAfter stores blocks directly after key; "" inserts at the start.
func (t *Txn) InsertAfter(after string, blocks ...*block.Block) {
	at := 0
	if after != "" {
		at = t.Index(after) + 1
	}
	t.insertAt(at, blocks)
}

// InsertBefore stores blocks directly before key; "" appends at the end.
func (t *Txn) InsertBefore(before string, blocks ...*block.Block) {
	at := len(t.order)
	if before != "" {
		if i := t.Index(before); i >= 0 {
			at = i
		}
	}
	t.insertAt(at, blocks)
}

func (t *Txn) insertAt(at int, blocks []*block.Block) {
	keys := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if _, existed := t.txn.Insert([]byte(b.Key()), b); existed {
			t.own()
			if i := t.Index(b.Key()); i >= 0 {
				t.order = slices.Delete(t.order, i, i+1)
				if i < at {
					at--
				}
			}
		}
		keys = append(keys, b.Key())
	}
	t.own()
	t.order = slices.Insert(t.order, at, keys...)
}

// SetOrder replaces the document order. order must list exactly the keys
// present at Commit.
func (t *Txn) SetOrder(order []string) {
	t.order = order
	t.owned = false
}

// Commit returns the resulting map.
func (t *Txn) Commit() BlockMap {
	return BlockMap{tree: t.txn.Commit(), order: t.order}
}

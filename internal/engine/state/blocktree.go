package state

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/decorator"
)

// LeafRange is a run of characters with one inline style.
type LeafRange struct {
	Start, End int
}

// DecoratorRange is a run of characters with one decoration key, split
// into leaves. Undecorated runs have an empty key.
type DecoratorRange struct {
	Start, End   int
	DecoratorKey string
	Leaves       []LeafRange
}

// GenerateLeaves computes the decorated leaf ranges of b. An empty block
// yields one empty range.
func GenerateLeaves(c *content.ContentState, b *block.Block, d decorator.Decorator) []DecoratorRange {
	n := b.Len()
	if n == 0 {
		return []DecoratorRange{{Leaves: []LeafRange{{}}}}
	}
	var decorations []string
	if d != nil {
		decorations = d.Decorations(b, c)
	}
	keyAt := func(i int) string {
		if i < len(decorations) {
			return decorations[i]
		}
		return ""
	}

	var out []DecoratorRange
	for start := 0; start < n; {
		key := keyAt(start)
		end := start + 1
		for end < n && keyAt(end) == key {
			end++
		}
		out = append(out, DecoratorRange{
			Start:        start,
			End:          end,
			DecoratorKey: key,
			Leaves:       styleLeaves(b, start, end),
		})
		start = end
	}
	return out
}

func styleLeaves(b *block.Block, start, end int) []LeafRange {
	var out []LeafRange
	for s := start; s < end; {
		style := b.InlineStyleAt(s)
		e := s + 1
		for e < end && b.InlineStyleAt(e).Equal(style) {
			e++
		}
		out = append(out, LeafRange{Start: s, End: e})
		s = e
	}
	return out
}

type leafCache = *iradix.Tree[[]DecoratorRange]

// regenerateLeaves updates prev for next. Only blocks that are not the
// same value as in prevContent are recomputed; keys that disappeared are
// dropped. A nil prevContent rebuilds everything.
func regenerateLeaves(prev leafCache, prevContent, next *content.ContentState, d decorator.Decorator) leafCache {
	if prev == nil {
		prev = iradix.New[[]DecoratorRange]()
	}
	txn := prev.Txn()
	var prevBlocks content.BlockMap
	if prevContent != nil {
		prevBlocks = prevContent.BlockMap()
	}
	nextBlocks := next.BlockMap()

	nextBlocks.Each(func(_ int, b *block.Block) bool {
		_, cached := prev.Get([]byte(b.Key()))
		if prevContent == nil || !cached || prevBlocks.Get(b.Key()) != b {
			txn.Insert([]byte(b.Key()), GenerateLeaves(next, b, d))
		}
		return true
	})
	prev.Root().Walk(func(k []byte, _ []DecoratorRange) bool {
		if !nextBlocks.Has(string(k)) {
			txn.Delete(k)
		}
		return false
	})
	return txn.Commit()
}

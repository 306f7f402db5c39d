package decorator

import (
	"strconv"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/content"
)

// Decorator labels each character of a block with a decoration key.
type Decorator interface {
	// Decorations returns one key per character of b. Undecorated
	// characters have the empty key.
	Decorations(b *block.Block, c *content.ContentState) []string
}

// Strategy reports the ranges of b it wants to decorate.
type Strategy interface {
	Find(b *block.Block, c *content.ContentState, cb block.RangeFunc)
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(b *block.Block, c *content.ContentState, cb block.RangeFunc)

// Find calls f.
func (f StrategyFunc) Find(b *block.Block, c *content.ContentState, cb block.RangeFunc) {
	f(b, c, cb)
}

// Composite applies strategies in order, giving each slice of text to the
// first strategy that claims it.
type Composite struct {
	strategies []Strategy
}

// NewComposite returns a decorator over strategies.
func NewComposite(strategies ...Strategy) *Composite {
	return &Composite{strategies: strategies}
}

// Len returns the number of strategies.
func (d *Composite) Len() int { return len(d.strategies) }

// Decorations implements Decorator.
func (d *Composite) Decorations(b *block.Block, c *content.ContentState) []string {
	keys := make([]string, b.Len())
	counter := 0
	for i, s := range d.strategies {
		s.Find(b, c, func(start, end int) {
			if !canOccupy(keys, start, end) {
				return
			}
			key := strconv.Itoa(i) + "." + strconv.Itoa(counter)
			for j := start; j < end; j++ {
				keys[j] = key
			}
			counter++
		})
	}
	return keys
}

func canOccupy(keys []string, start, end int) bool {
	if start < 0 || end > len(keys) || start >= end {
		return false
	}
	for _, k := range keys[start:end] {
		if k != "" {
			return false
		}
	}
	return true
}

// StrategyIndex returns the index of the strategy that produced key, or -1
// for an empty or malformed key.
func StrategyIndex(key string) int {
	for i := 0; i < len(key); i++ {
		if key[i] == '.' {
			n, err := strconv.Atoi(key[:i])
			if err != nil {
				return -1
			}
			return n
		}
	}
	return -1
}

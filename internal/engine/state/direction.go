package state

import (
	iradix "github.com/hashicorp/go-immutable-radix/v2"
	"golang.org/x/text/unicode/bidi"

	"github.com/dshills/inkblock/internal/engine/content"
)

type directionMap = *iradix.Tree[bidi.Direction]

// textDirection returns the direction of the first strong character of
// text, or fallback when there is none.
func textDirection(text string, fallback bidi.Direction) bidi.Direction {
	for _, r := range text {
		p, _ := bidi.LookupRune(r)
		switch p.Class() {
		case bidi.L:
			return bidi.LeftToRight
		case bidi.R, bidi.AL:
			return bidi.RightToLeft
		}
	}
	return fallback
}

// computeDirections maps every block to its text direction. Blocks without
// strong characters take the direction of the block before them. prev is
// returned when nothing changed.
func computeDirections(c *content.ContentState, prev directionMap) directionMap {
	txn := iradix.New[bidi.Direction]().Txn()
	last := bidi.LeftToRight
	for _, b := range c.Blocks() {
		last = textDirection(b.Text(), last)
		txn.Insert([]byte(b.Key()), last)
	}
	next := txn.Commit()
	if prev != nil && sameDirections(prev, next) {
		return prev
	}
	return next
}

func sameDirections(a, b directionMap) bool {
	if a.Len() != b.Len() {
		return false
	}
	same := true
	a.Root().Walk(func(k []byte, d bidi.Direction) bool {
		if v, ok := b.Get(k); !ok || v != d {
			same = false
		}
		return !same
	})
	return same
}

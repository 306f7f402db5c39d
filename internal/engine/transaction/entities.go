package transaction

import (
	"strings"
	"unicode/utf8"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
	"github.com/dshills/inkblock/internal/engine/docerr"
	"github.com/dshills/inkblock/internal/engine/entity"
	"github.com/dshills/inkblock/internal/engine/selection"
)

// RemovalDirection tells entity-aware removal which way the user deleted.
type RemovalDirection int

const (
	// Backward removal, as with the backspace key.
	Backward RemovalDirection = iota
	// Forward removal, as with the delete key.
	Forward
)

// RemoveRangeWithEntities removes the selected range honoring entity
// mutability. Removing part of an immutable entity removes all of it; a
// segmented entity loses whole space-separated segments. Non-mutable
// entities cut at the range edges are unlinked from their remaining text.
func RemoveRangeWithEntities(c *content.ContentState, sel selection.Selection, dir RemovalDirection) (*content.ContentState, error) {
	const op = "removeRange"
	if sel.IsBackward {
		sel = selection.Selection{
			AnchorKey: sel.FocusKey, AnchorOffset: sel.FocusOffset,
			FocusKey: sel.AnchorKey, FocusOffset: sel.AnchorOffset,
			HasFocus: sel.HasFocus,
		}
	}
	s, err := getBlock(c, op, sel.AnchorKey)
	if err != nil {
		return nil, err
	}
	e, err := getBlock(c, op, sel.FocusKey)
	if err != nil {
		return nil, err
	}

	if s.Key() == e.Key() {
		startEntity := s.EntityAt(sel.AnchorOffset)
		if startEntity != "" && startEntity == e.EntityAt(sel.FocusOffset-1) {
			adjusted, err := characterRemovalRange(c, s, e, sel, dir)
			if err != nil {
				return nil, err
			}
			return RemoveRange(c, adjusted)
		}
	}

	stripped, err := removeEntitiesAtEdges(c, sel)
	if err != nil {
		return nil, err
	}
	return RemoveRange(stripped, sel)
}

// characterRemovalRange widens sel to cover the entity text that must go
// with it.
func characterRemovalRange(c *content.ContentState, s, e *block.Block, sel selection.Selection, dir RemovalDirection) (selection.Selection, error) {
	start, end := sel.StartOffset(), sel.EndOffset()
	startEntity := s.EntityAt(start)
	endEntity := e.EntityAt(end - 1)
	if startEntity == "" && endEntity == "" {
		return sel, nil
	}

	switch {
	case startEntity != "" && startEntity == endEntity:
		return entityRemovalRange(c, s, sel, dir, startEntity, true, true)
	case startEntity != "" && endEntity != "":
		startSel, err := entityRemovalRange(c, s, sel, dir, startEntity, false, true)
		if err != nil {
			return sel, err
		}
		endSel, err := entityRemovalRange(c, e, sel, dir, endEntity, false, false)
		if err != nil {
			return sel, err
		}
		sel.AnchorOffset, sel.FocusOffset, sel.IsBackward = startSel.AnchorOffset, endSel.FocusOffset, false
	case startEntity != "":
		startSel, err := entityRemovalRange(c, s, sel, dir, startEntity, false, true)
		if err != nil {
			return sel, err
		}
		sel.AnchorOffset, sel.IsBackward = startSel.StartOffset(), false
	default:
		endSel, err := entityRemovalRange(c, e, sel, dir, endEntity, false, false)
		if err != nil {
			return sel, err
		}
		sel.FocusOffset, sel.IsBackward = endSel.EndOffset(), false
	}
	return sel, nil
}

func entityRemovalRange(
	c *content.ContentState,
	b *block.Block,
	sel selection.Selection,
	dir RemovalDirection,
	entityKey string,
	entireSelectionWithin, atStart bool,
) (selection.Selection, error) {
	start, end := sel.StartOffset(), sel.EndOffset()
	ent := c.Entity(entityKey)
	if ent == nil || ent.Mutability() == entity.Mutable {
		return sel, nil
	}

	side := end
	if atStart {
		side = start
	}
	var ranges [][2]int
	b.FindEntityRanges(func(m *charmeta.CharacterMetadata) bool {
		return m.Entity() == entityKey
	}, func(s, e int) {
		if side <= e && side >= s {
			ranges = append(ranges, [2]int{s, e})
		}
	})
	if len(ranges) != 1 {
		return sel, docerr.Invariantf("removeRange", b.Key(), "expected one range of entity %s at %d, found %d", entityKey, side, len(ranges))
	}
	r := ranges[0]

	if ent.Mutability() == entity.Immutable {
		sel.AnchorOffset, sel.FocusOffset, sel.IsBackward = r[0], r[1], false
		return sel, nil
	}

	if !entireSelectionWithin {
		if atStart {
			end = r[1]
		} else {
			start = r[0]
		}
	}
	rs, re := segmentRemovalRange(start, end, b.Slice(r[0], r[1]), r[0], dir)
	sel.AnchorOffset, sel.FocusOffset, sel.IsBackward = rs, re, false
	return sel, nil
}

// segmentRemovalRange returns the span of whole space-separated segments
// of a segmented entity that overlap [selStart, selEnd).
func segmentRemovalRange(selStart, selEnd int, text string, entityStart int, dir RemovalDirection) (int, int) {
	segments := strings.Split(text, " ")
	for i := range segments {
		if dir == Forward {
			if i > 0 {
				segments[i] = " " + segments[i]
			}
		} else if i < len(segments)-1 {
			segments[i] += " "
		}
	}

	segStart := entityStart
	removalStart, removalEnd := -1, -1
	for _, seg := range segments {
		segEnd := segStart + utf8.RuneCountInString(seg)
		if selStart < segEnd && segStart < selEnd {
			if removalStart < 0 {
				removalStart = segStart
			}
			removalEnd = segEnd
		} else if removalStart >= 0 {
			break
		}
		segStart = segEnd
	}
	if removalStart < 0 {
		return selStart, selEnd
	}

	entityEnd := entityStart + utf8.RuneCountInString(text)
	atStart := removalStart == entityStart
	atEnd := removalEnd == entityEnd
	if atStart != atEnd {
		if dir == Forward {
			if removalEnd != entityEnd {
				removalEnd++
			}
		} else if removalStart != entityStart {
			removalStart--
		}
	}
	return removalStart, removalEnd
}

// removeEntitiesAtEdges unlinks non-mutable entities that span an edge of
// sel, so no partial entity survives the edit.
func removeEntitiesAtEdges(c *content.ContentState, sel selection.Selection) (*content.ContentState, error) {
	bm := c.BlockMap()
	tx := bm.Txn()
	changed := false

	startKey := sel.StartKey()
	s := bm.Get(startKey)
	if s == nil {
		return nil, docerr.Invariant("removeEntitiesAtEdges", startKey, "block does not exist")
	}
	ns := removeEntityAtOffset(c, s, sel.StartOffset())
	if ns != s {
		tx.Put(ns)
		changed = true
	}

	endKey := sel.EndKey()
	e := bm.Get(endKey)
	if endKey == startKey {
		e = ns
	}
	if e == nil {
		return nil, docerr.Invariant("removeEntitiesAtEdges", endKey, "block does not exist")
	}
	if ne := removeEntityAtOffset(c, e, sel.EndOffset()); ne != e {
		tx.Put(ne)
		changed = true
	}

	if !changed {
		return c.WithSelectionAfter(sel), nil
	}
	return c.WithBlockMap(tx.Commit()).WithSelectionAfter(sel), nil
}

func removeEntityAtOffset(c *content.ContentState, b *block.Block, offset int) *block.Block {
	before := b.EntityAt(offset - 1)
	after := b.EntityAt(offset)
	if after == "" || after != before {
		return b
	}
	ent := c.Entity(after)
	if ent == nil || ent.Mutability() == entity.Mutable {
		return b
	}
	start, end := -1, -1
	b.FindEntityRanges(func(m *charmeta.CharacterMetadata) bool {
		return m.Entity() == after
	}, func(s, e int) {
		if s <= offset && e >= offset {
			start, end = s, e
		}
	})
	if start < 0 {
		return b
	}
	return b.WithChars(b.Chars().Map(start, end, func(m *charmeta.CharacterMetadata) *charmeta.CharacterMetadata {
		return charmeta.ApplyEntity(m, "")
	}))
}

// ApplyEntity links the selected characters to entityKey, or unlinks them
// when entityKey is empty.
func ApplyEntity(c *content.ContentState, sel selection.Selection, entityKey string) (*content.ContentState, error) {
	if entityKey != "" && c.Entity(entityKey) == nil {
		return nil, docerr.Invariant("applyEntity", entityKey, "entity does not exist")
	}
	stripped, err := removeEntitiesAtEdges(c, sel)
	if err != nil {
		return nil, err
	}
	return mapChars(stripped, sel, func(m *charmeta.CharacterMetadata) *charmeta.CharacterMetadata {
		return charmeta.ApplyEntity(m, entityKey)
	})
}

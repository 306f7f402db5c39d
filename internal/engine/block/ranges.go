package block

import "github.com/dshills/inkblock/internal/engine/charmeta"

// RangeFunc receives a half-open range [start, end).
type RangeFunc func(start, end int)

// FindStyleRanges calls cb for each maximal run of characters with equal
// style whose first character satisfies filter.
func (b *Block) FindStyleRanges(filter func(*charmeta.CharacterMetadata) bool, cb RangeFunc) {
	findRanges(b.chars, func(x, y *charmeta.CharacterMetadata) bool {
		return x.Style().Equal(y.Style())
	}, filter, cb)
}

// FindEntityRanges calls cb for each maximal run of characters with equal
// entity whose first character satisfies filter.
func (b *Block) FindEntityRanges(filter func(*charmeta.CharacterMetadata) bool, cb RangeFunc) {
	findRanges(b.chars, func(x, y *charmeta.CharacterMetadata) bool {
		return x.Entity() == y.Entity()
	}, filter, cb)
}

// HasEntity is a filter accepting characters with any entity.
func HasEntity(m *charmeta.CharacterMetadata) bool { return m.Entity() != "" }

// HasStyle returns a filter accepting characters carrying style.
func HasStyle(style string) func(*charmeta.CharacterMetadata) bool {
	return func(m *charmeta.CharacterMetadata) bool { return m.HasStyle(style) }
}

func findRanges(
	list charmeta.List,
	same func(x, y *charmeta.CharacterMetadata) bool,
	filter func(*charmeta.CharacterMetadata) bool,
	cb RangeFunc,
) {
	n := list.Len()
	if n == 0 {
		return
	}
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && same(list[start], list[i]) {
			continue
		}
		if filter == nil || filter(list[start]) {
			cb(start, i)
		}
		start = i
	}
}

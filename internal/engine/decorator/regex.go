package decorator

import (
	"regexp"
	"unicode/utf8"

	"github.com/dshills/inkblock/internal/engine/block"
	"github.com/dshills/inkblock/internal/engine/charmeta"
	"github.com/dshills/inkblock/internal/engine/content"
)

// RegexStrategy decorates every non-empty match of re in the block text.
func RegexStrategy(re *regexp.Regexp) Strategy {
	return StrategyFunc(func(b *block.Block, _ *content.ContentState, cb block.RangeFunc) {
		text := b.Text()
		pos, runes := 0, 0
		for _, m := range re.FindAllStringIndex(text, -1) {
			if m[0] == m[1] {
				continue
			}
			runes += utf8.RuneCountInString(text[pos:m[0]])
			start := runes
			runes += utf8.RuneCountInString(text[m[0]:m[1]])
			pos = m[1]
			cb(start, runes)
		}
	})
}

// EntityStrategy decorates runs of characters linked to entities of the
// given type.
func EntityStrategy(entityType string) Strategy {
	return StrategyFunc(func(b *block.Block, c *content.ContentState, cb block.RangeFunc) {
		b.FindEntityRanges(func(m *charmeta.CharacterMetadata) bool {
			if m.Entity() == "" {
				return false
			}
			e := c.Entity(m.Entity())
			return e != nil && e.Type() == entityType
		}, cb)
	})
}

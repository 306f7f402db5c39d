package raw

import (
	"encoding/json"
	"strconv"
)

// Document is the interchange representation of a ContentState.
type Document struct {
	Blocks    []Block           `json:"blocks"`
	EntityMap map[string]Entity `json:"entityMap"`
}

// Block is one interchange block. Children is only set for tree
// documents.
type Block struct {
	Key               string             `json:"key"`
	Type              string             `json:"type"`
	Text              string             `json:"text"`
	Depth             int                `json:"depth"`
	InlineStyleRanges []InlineStyleRange `json:"inlineStyleRanges"`
	EntityRanges      []EntityRange      `json:"entityRanges"`
	Data              map[string]any     `json:"data"`
	Children          []Block            `json:"children,omitempty"`
}

// InlineStyleRange marks Length runes from Offset with Style.
type InlineStyleRange struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Style  string `json:"style"`
}

// EntityRange links Length runes from Offset to the entity Key.
type EntityRange struct {
	Offset int
	Length int
	Key    string
}

// MarshalJSON writes numeric keys as JSON numbers.
func (r EntityRange) MarshalJSON() ([]byte, error) {
	var key any = r.Key
	if _, err := strconv.Atoi(r.Key); err == nil {
		key = json.Number(r.Key)
	}
	return json.Marshal(struct {
		Offset int `json:"offset"`
		Length int `json:"length"`
		Key    any `json:"key"`
	}{r.Offset, r.Length, key})
}

// Entity is one entity map value.
type Entity struct {
	Type       string         `json:"type"`
	Mutability string         `json:"mutability"`
	Data       map[string]any `json:"data"`
}

// Options controls decoding.
type Options struct {
	// Tree decodes into tree-variant blocks.
	Tree bool
}

// IsTree reports whether any block of doc nests children.
func (doc *Document) IsTree() bool {
	for _, b := range doc.Blocks {
		if len(b.Children) > 0 {
			return true
		}
	}
	return false
}

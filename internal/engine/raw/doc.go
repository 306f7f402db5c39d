// Package raw converts documents to and from the JSON interchange format.
//
// A raw document is a list of blocks plus an entity map:
//
//	{
//	  "blocks": [
//	    {"key": "a1b2c", "type": "unstyled", "text": "Hello", "depth": 0,
//	     "inlineStyleRanges": [{"offset": 0, "length": 5, "style": "BOLD"}],
//	     "entityRanges": [{"offset": 0, "length": 5, "key": 1}],
//	     "data": {}, "children": []}
//	  ],
//	  "entityMap": {"1": {"type": "LINK", "mutability": "MUTABLE", "data": {}}}
//	}
//
// Style and entity ranges are run-length encodings of the per-character
// metadata, so a decode of an encode yields identical metadata. Offsets and
// lengths count runes.
//
// Tree documents nest blocks through "children". Decode adapts a flat
// document to the tree variant, and a tree document to the flat variant,
// when the requested variant differs from the shape of the input. List
// item depth maps to nesting under container blocks.
//
// Decoding is strict: malformed input returns a *docerr.ValidationError
// and no document. Entity ranges that name an entity missing from the
// entity map are dropped.
package raw

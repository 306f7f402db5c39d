// Package content provides the block collection of a document.
//
// A ContentState is an immutable snapshot: an ordered BlockMap, the entity
// map owned by this snapshot, and the selections recorded immediately before
// and after the edit that produced it. Every mutator returns a new
// ContentState; unchanged blocks and entities are shared by pointer.
//
// # Variants
//
// A collection is either flat (every block is a root, nesting expressed by
// depth) or a tree (blocks link to parent, children and siblings by key).
// The variant is fixed by the blocks it is built from and reported by IsTree.
//
// # Entities
//
// Entity keys are decimal strings issued by a per-collection counter. Keys
// are never reused within the lineage of one collection, and there is no
// process-wide entity registry.
package content

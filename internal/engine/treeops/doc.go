// Package treeops implements structural edits on tree-variant block maps.
//
// A tree block map links blocks by key: each block names its parent, its
// ordered children and its previous and next siblings. The operations in
// this package take a content.BlockMap and return a new one in which the
// following hold:
//
//   - parent and children links agree in both directions
//   - every sibling group forms a doubly linked list whose ends are unlinked
//   - blocks with children carry no text
//   - every block is reachable from the root sibling list, with no cycles
//   - map order equals the pre-order traversal of the tree
//
// # Primitives
//
// UpdateParentChild, UpdateSibling and ReplaceParentChild rewrite a single
// relationship and do not restore the invariants on their own. They are the
// building blocks for the composite operations.
//
// # Composite operations
//
// CreateNewParent, UpdateAsSiblingsChild, MoveChildUp and MergeBlocks each
// take a valid tree to a valid tree, and verify the result with Validate.
//
// # Errors
//
// Precondition failures are reported as *docerr.InvariantError. They signal
// a caller bug and must not be retried.
package treeops

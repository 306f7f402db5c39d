// Package state provides EditorState, the top-level immutable editor
// value: the current document, the live selection and the undo/redo log.
//
// Every transition returns a new EditorState and leaves the receiver
// untouched, so a host can keep old states around (for example to compare
// renders) at no cost beyond the blocks that changed.
//
// # Pushing Edits
//
// Edits are computed with the transaction package and recorded with Push,
// which decides whether the edit starts a new undo entry:
//
//	c, err := transaction.InsertText(s.CurrentContent(), s.Selection(), "x", style, "")
//	if err != nil {
//	    return err
//	}
//	s = state.Push(s, c, history.InsertCharacters, true)
//
// Consecutive typing, backspacing or forward deletion with a continuous
// selection share one undo entry.
//
// # Block Trees
//
// Each EditorState keeps a cache of decorated leaf ranges per block. It is
// rebuilt only for blocks whose value changed since the previous state, so
// an edit costs time proportional to the blocks it touched rather than the
// document size. Changing the decorator rebuilds every entry.
//
// # Rich Utilities
//
// The rich utilities (ToggleInlineStyle, Backspace, OnTab and friends)
// combine transactions and Push the way a keyboard-driven editor needs
// them. They return the input state unchanged when the edit does not
// apply.
package state

// Package history provides the undo/redo building blocks for the editor
// state.
//
// # Change Types
//
// Every edit pushed onto an editor state is tagged with a ChangeType. The
// tag decides whether the edit starts a new undo entry or extends the
// previous one:
//
//	if history.Boundary(last, change, selectionChanged) {
//	    undo = undo.Push(current)
//	}
//
// Consecutive insert-characters, backspace-character and delete-character
// edits with a continuous selection coalesce into one entry, so typing a
// word undoes in one step.
//
// # Stacks
//
// Stack is a persistent LIFO of content snapshots. Push and Pop return new
// stacks and never modify the receiver, so editor states that share a stack
// stay valid after either one is changed:
//
//	s := history.NewStack(1000) // keep at most 1000 entries
//	s = s.Push(content)
//	top, s, ok := s.Pop()
//
// When a bound is set, the oldest entries are dropped once the stack grows
// past it.
package history

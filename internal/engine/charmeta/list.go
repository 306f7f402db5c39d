package charmeta

// List is an immutable sequence of metadata, one entry per character.
// Methods never modify the receiver.
type List []*CharacterMetadata

// Repeat returns a list of n copies of m.
func Repeat(m *CharacterMetadata, n int) List {
	if n <= 0 {
		return nil
	}
	l := make(List, n)
	for i := range l {
		l[i] = m
	}
	return l
}

// Len returns the number of entries.
func (l List) Len() int { return len(l) }

// At returns the entry at i.
func (l List) At(i int) *CharacterMetadata { return l[i] }

// Slice returns entries [start, end). The result shares storage but cannot
// be appended into the receiver.
func (l List) Slice(start, end int) List {
	if start >= end {
		return nil
	}
	return l[start:end:end]
}

// Concat returns the receiver followed by others.
func (l List) Concat(others ...List) List {
	n := len(l)
	for _, o := range others {
		n += len(o)
	}
	if n == 0 {
		return nil
	}
	out := make(List, 0, n)
	out = append(out, l...)
	for _, o := range others {
		out = append(out, o...)
	}
	return out
}

// Splice returns the list with [start, end) replaced by ins.
func (l List) Splice(start, end int, ins List) List {
	return l.Slice(0, start).Concat(ins, l.Slice(end, len(l)))
}

// Map returns a list with fn applied to entries in [start, end).
// The receiver is returned unchanged when fn changes nothing.
func (l List) Map(start, end int, fn func(*CharacterMetadata) *CharacterMetadata) List {
	var out List
	for i := start; i < end; i++ {
		m := fn(l[i])
		if m == l[i] {
			continue
		}
		if out == nil {
			out = make(List, len(l))
			copy(out, l)
		}
		out[i] = m
	}
	if out == nil {
		return l
	}
	return out
}

// Equal reports whether both lists hold equal metadata at every index.
func (l List) Equal(o List) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Identical reports whether both lists share the same storage.
func (l List) Identical(o List) bool {
	if len(l) != len(o) {
		return false
	}
	return len(l) == 0 || &l[0] == &o[0]
}

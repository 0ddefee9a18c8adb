package engine

// tracker is the per-file set of names whose declarations were pruned.
// Insertion-ordered and insertion-only: a name enters at most once and never
// leaves for the lifetime of the file's pass. Style-table members use a
// composite "table.entry" key so consumers can test removal without
// re-resolving the table.
type tracker struct {
	names []string
	seen  map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]struct{})}
}

// Add records a removed name. Re-adding is a no-op. Protected names are
// refused here rather than at every call site, so no caller can bypass the
// guarantee.
func (t *tracker) Add(name string) bool {
	if name == "" || protectedIdent(name) {
		return false
	}
	if _, ok := t.seen[name]; ok {
		return false
	}
	t.seen[name] = struct{}{}
	t.names = append(t.names, name)
	return true
}

// Has reports membership.
func (t *tracker) Has(name string) bool {
	_, ok := t.seen[name]
	return ok
}

// Empty reports whether nothing was tracked.
func (t *tracker) Empty() bool {
	return len(t.names) == 0
}

// Names returns the tracked names in insertion order.
func (t *tracker) Names() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

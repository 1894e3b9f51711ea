// Package intern implements deduplicated immutable byte-string storage keyed
// by hash: every identifier, macro name, and
// string-literal payload that survives the length of a preprocessing session
// is interned once here.
package intern

// ID identifies an interned string. Intern returns the zero value only for
// the empty string, so callers can use ID(0) as a "no string" sentinel.
type ID uint32

// Table deduplicates strings by content. Lookups and insertions are O(1)
// amortized; Table is not safe for concurrent use without external locking,
// matching the rest of this module's single-threaded-per-session model.
type Table struct {
	strings []string
	byValue map[string]ID
}

// New creates an empty interning table.
func New() *Table {
	return &Table{
		strings: []string{""}, // index 0 reserved so ID(0) means "unset"
		byValue: map[string]ID{"": 0},
	}
}

// Intern returns the ID for s, assigning a fresh one on first sight.
func (t *Table) Intern(s string) ID {
	if id, ok := t.byValue[s]; ok {
		return id
	}
	id := ID(len(t.strings))
	t.strings = append(t.strings, s)
	t.byValue[s] = id
	return id
}

// Lookup returns the interned string for id. Panics on an out-of-range id,
// since that indicates a bug (an ID minted by a different table).
func (t *Table) Lookup(id ID) string {
	return t.strings[id]
}

// Len reports how many distinct non-empty strings have been interned.
func (t *Table) Len() int {
	return len(t.strings) - 1
}

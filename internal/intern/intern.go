// Package intern is the spelling table referenced throughout spec §3:
// "spelling (interned, == compares pointers)". Go string comparison is
// already content-based, so interning here buys memory sharing rather
// than a cheaper comparison — but every node's Spelling is still
// expected to have passed through Intern so the invariant in spec §8
// ("spelling pointer identity implies string equality, and string
// equality among interned tokens implies identity") is at least
// trivially true: interning two equal strings returns the same Go
// string header, and distinct headers for interned strings always
// compare unequal by content.
package intern

import "sync"

type Table struct {
	mu     sync.Mutex
	values map[string]string
}

func NewTable() *Table {
	return &Table{values: make(map[string]string)}
}

func (t *Table) Intern(s string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.values[s]; ok {
		return v
	}
	t.values[s] = s
	return s
}

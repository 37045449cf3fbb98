package domain

import (
	"strings"
	"sync"
)

// AliasEntry maps a canonical contributor name to its known aliases (names and emails)
type AliasEntry struct {
	Aliases   []string
	Canonical string
}

// matches reports whether identity equals the canonical name or an alias, ignoring case
func (e AliasEntry) matches(identity string) bool {
	if strings.EqualFold(e.Canonical, identity) {
		return true
	}
	for _, alias := range e.Aliases {
		if strings.EqualFold(alias, identity) {
			return true
		}
	}
	return false
}

// AliasTable is the ordered contributor alias table.
// Lookups are safe for concurrent use; mutations should come from a single caller.
type AliasTable struct {
	entries []AliasEntry
	mu      sync.RWMutex
}

// NewAliasTable creates an alias table from entries, preserving their order
func NewAliasTable(entries ...AliasEntry) *AliasTable {
	t := &AliasTable{}
	for _, entry := range entries {
		t.Add(entry.Canonical, entry.Aliases...)
	}
	return t
}

// Add appends aliases to a canonical entry, creating the entry when missing
func (t *AliasTable) Add(canonical string, aliases ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.entries {
		if t.entries[i].Canonical == canonical {
			t.entries[i].Aliases = append(t.entries[i].Aliases, aliases...)
			return
		}
	}
	t.entries = append(t.entries, AliasEntry{
		Aliases:   append([]string{}, aliases...),
		Canonical: canonical,
	})
}

// Entries returns a copy of the table in iteration order
func (t *AliasTable) Entries() []AliasEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entries := make([]AliasEntry, len(t.entries))
	for i, entry := range t.entries {
		entries[i] = AliasEntry{
			Aliases:   append([]string{}, entry.Aliases...),
			Canonical: entry.Canonical,
		}
	}
	return entries
}

// Len returns the number of canonical entries
func (t *AliasTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Normalize maps a raw author name or email to its canonical contributor name.
// The first entry (in table order) whose canonical name or alias matches wins.
// Unknown identities are returned unchanged.
func (t *AliasTable) Normalize(identity string) string {
	if t == nil {
		return identity
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	for _, entry := range t.entries {
		if entry.matches(identity) {
			return entry.Canonical
		}
	}
	return identity
}

// RecordUnmappedIdentity folds a freshly observed (name, email) pair into the table.
// When the name or the email already belongs to an entry, whichever of the two is
// not yet known anywhere in the table is appended to that entry as an alias.
// Otherwise a new entry keyed by name with the email as its only alias is created.
// Returns whether the table changed.
func (t *AliasTable) RecordUnmappedIdentity(name, email string) bool {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	nameIdx := t.indexOf(name)
	emailIdx := -1
	if email != "" {
		emailIdx = t.indexOf(email)
	}

	if nameIdx < 0 && emailIdx < 0 {
		entry := AliasEntry{Aliases: []string{}, Canonical: name}
		if email != "" {
			entry.Aliases = append(entry.Aliases, email)
		}
		t.entries = append(t.entries, entry)
		return true
	}

	target := nameIdx
	if target < 0 {
		target = emailIdx
	}

	added := false
	if nameIdx < 0 {
		t.entries[target].Aliases = append(t.entries[target].Aliases, name)
		added = true
	}
	if email != "" && emailIdx < 0 {
		t.entries[target].Aliases = append(t.entries[target].Aliases, email)
		added = true
	}
	return added
}

func (t *AliasTable) indexOf(identity string) int {
	for i, entry := range t.entries {
		if entry.matches(identity) {
			return i
		}
	}
	return -1
}

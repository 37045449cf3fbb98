package domain

import (
	"sort"
	"strings"
	"time"
)

// CommitInfo is the metadata of one visited commit
type CommitInfo struct {
	AuthorEmail string
	AuthorName  string
	SHA         string
	When        time.Time
}

// Branch is a local branch and the fingerprint of its tip commit
type Branch struct {
	Name string
	Tip  string
}

// AuthorIdentity is a (name, email) pair taken from commit metadata.
// Two identities are equal when both fields match ignoring case.
type AuthorIdentity struct {
	Email string
	Name  string
}

// Key returns the case-insensitive identity key
func (a AuthorIdentity) Key() string {
	return strings.ToLower(a.Name) + "\x00" + strings.ToLower(a.Email)
}

// Equal compares two identities ignoring case
func (a AuthorIdentity) Equal(other AuthorIdentity) bool {
	return strings.EqualFold(a.Name, other.Name) && strings.EqualFold(a.Email, other.Email)
}

// IdentitySet deduplicates author identities case-insensitively.
// The first spelling seen is kept.
type IdentitySet map[string]AuthorIdentity

// Add inserts an identity unless an equal one is present
func (s IdentitySet) Add(identity AuthorIdentity) {
	key := identity.Key()
	if _, exists := s[key]; !exists {
		s[key] = identity
	}
}

// Merge adds every identity of other
func (s IdentitySet) Merge(other IdentitySet) {
	for _, identity := range other {
		s.Add(identity)
	}
}

// Sorted returns the identities ordered by name, then email
func (s IdentitySet) Sorted() []AuthorIdentity {
	identities := make([]AuthorIdentity, 0, len(s))
	for _, identity := range s {
		identities = append(identities, identity)
	}
	sort.Slice(identities, func(i, j int) bool {
		if identities[i].Name != identities[j].Name {
			return identities[i].Name < identities[j].Name
		}
		return identities[i].Email < identities[j].Email
	})
	return identities
}

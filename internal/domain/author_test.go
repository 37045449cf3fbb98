package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentitySet(t *testing.T) {
	set := IdentitySet{}
	set.Add(AuthorIdentity{Name: "Bob", Email: "bob@x"})
	set.Add(AuthorIdentity{Name: "BOB", Email: "Bob@X"})
	set.Add(AuthorIdentity{Name: "Alice", Email: "z@x"})

	other := IdentitySet{}
	other.Add(AuthorIdentity{Name: "Alice", Email: "a@x"})
	other.Add(AuthorIdentity{Name: "bob", Email: "bob@x"})
	set.Merge(other)

	assert.Equal(t, []AuthorIdentity{
		{Name: "Alice", Email: "a@x"},
		{Name: "Alice", Email: "z@x"},
		{Name: "Bob", Email: "bob@x"},
	}, set.Sorted(), "first spelling is kept")
}

func TestAuthorIdentity_Equal(t *testing.T) {
	a := AuthorIdentity{Name: "Alice", Email: "alice@x"}

	assert.True(t, a.Equal(AuthorIdentity{Name: "alice", Email: "ALICE@x"}))
	assert.False(t, a.Equal(AuthorIdentity{Name: "Alice", Email: "other@x"}))
	assert.Equal(t, a.Key(), AuthorIdentity{Name: "ALICE", Email: "Alice@X"}.Key())
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateOwner(t *testing.T) {
	tests := []struct {
		name      string
		stats     map[string]int
		wantOwner string
		wantCount int
	}{
		{name: "nil stats", stats: nil, wantOwner: UnknownOwner, wantCount: 0},
		{name: "only zero counts", stats: map[string]int{"Alice": 0}, wantOwner: UnknownOwner, wantCount: 0},
		{name: "single author", stats: map[string]int{"Alice": 3}, wantOwner: "Alice", wantCount: 3},
		{name: "tie goes to smallest name", stats: map[string]int{"Bob": 2, "Alice": 2}, wantOwner: "Alice et al", wantCount: 2},
		{name: "co-author above threshold", stats: map[string]int{"Alice": 2, "Bob": 1}, wantOwner: "Alice et al", wantCount: 2},
		{name: "twenty commits needs one", stats: map[string]int{"Alice": 19, "Bob": 1}, wantOwner: "Alice et al", wantCount: 19},
		{name: "exactly five percent", stats: map[string]int{"Alice": 95, "Bob": 5}, wantOwner: "Alice et al", wantCount: 95},
		{name: "below five percent", stats: map[string]int{"Alice": 96, "Bob": 4}, wantOwner: "Alice", wantCount: 96},
		{name: "many small co-authors", stats: map[string]int{"Alice": 97, "Bob": 1, "Carol": 1, "Dan": 1}, wantOwner: "Alice", wantCount: 97},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantOwner, CalculateOwner(tt.stats))
			assert.Equal(t, tt.wantCount, OwnerCommitCount(tt.stats))
		})
	}
}

func TestOwnerThreshold(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{total: 1, want: 1},
		{total: 20, want: 1},
		{total: 21, want: 2},
		{total: 100, want: 5},
		{total: 101, want: 6},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ownerThreshold(tt.total), "total=%d", tt.total)
	}
}

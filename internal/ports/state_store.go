package ports

import (
	"context"

	"github.com/metagit/mgit/internal/domain"
)

// StateReader reads cached repository states
type StateReader interface {
	// Get returns nil without error when nothing usable is cached under name
	Get(ctx context.Context, name string) (*domain.RepositoryState, error)
	ListAll(ctx context.Context) ([]domain.RepositoryState, error)
}

// StateWriter persists repository states
type StateWriter interface {
	// Save upserts the state under its name and is durable on return
	Save(ctx context.Context, state domain.RepositoryState) error
}

// StateStore is the composite interface
type StateStore interface {
	StateReader
	StateWriter
	Close() error
}

package ports

import (
	"context"

	"github.com/metagit/mgit/internal/domain"
)

// Repairer detects and discards known on-disk corruption in a repository
type Repairer interface {
	Repair(ctx context.Context, repoPath string) (*domain.RepairResult, error)
}

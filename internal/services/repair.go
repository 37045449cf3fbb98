package services

import (
	"context"
	"fmt"
	"os"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// RepairOutcome is the repair result for one repository
type RepairOutcome struct {
	Err    error
	Name   string
	Result *domain.RepairResult
}

// RepairService runs the repair step on demand, outside of synchronization
type RepairService struct {
	repairer ports.Repairer
}

// NewRepairService creates a new RepairService
func NewRepairService(repairer ports.Repairer) *RepairService {
	return &RepairService{repairer: repairer}
}

// RepairAll repairs every repository sequentially, in input order
func (s *RepairService) RepairAll(ctx context.Context, repos []domain.TrackedRepository) []RepairOutcome {
	outcomes := make([]RepairOutcome, 0, len(repos))
	for _, tracked := range repos {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, RepairOutcome{Err: err, Name: tracked.Name})
			continue
		}

		if _, err := os.Stat(tracked.Path); err != nil {
			outcomes = append(outcomes, RepairOutcome{
				Err:  fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, tracked.Path),
				Name: tracked.Name,
			})
			continue
		}

		result, err := s.repairer.Repair(ctx, tracked.Path)
		if err != nil {
			logging.Logger.Error("Repair failed", "repository", tracked.Name, "error", err)
		}
		outcomes = append(outcomes, RepairOutcome{Err: err, Name: tracked.Name, Result: result})
	}
	return outcomes
}

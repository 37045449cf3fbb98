package storage

import (
	"encoding/json"
	"fmt"

	"github.com/metagit/mgit/internal/domain"
)

// repositoryStateModelToDomain converts a RepositoryStateModel (GORM) to domain.RepositoryState.
// Branch order follows Position.
func repositoryStateModelToDomain(m RepositoryStateModel) (*domain.RepositoryState, error) {
	branches := make([]domain.BranchInfo, 0, len(m.Branches))
	for _, b := range m.Branches {
		branch, err := branchInfoModelToDomain(b)
		if err != nil {
			return nil, err
		}
		branches = append(branches, branch)
	}

	return &domain.RepositoryState{
		Branches:      branches,
		CurrentBranch: m.CurrentBranch,
		LastUpdated:   m.LastUpdated.UTC(),
		Name:          m.Name,
	}, nil
}

func branchInfoModelToDomain(m BranchInfoModel) (domain.BranchInfo, error) {
	stats := map[string]int{}
	if m.CommitStats != "" {
		if err := json.Unmarshal([]byte(m.CommitStats), &stats); err != nil {
			return domain.BranchInfo{}, fmt.Errorf("failed to decode commit stats of branch %s: %w", m.Name, err)
		}
		if stats == nil {
			stats = map[string]int{}
		}
	}

	return domain.BranchInfo{
		CommitStats:   stats,
		LastCommitSHA: m.LastCommitSHA,
		LastUpdated:   m.LastUpdated.UTC(),
		Name:          m.Name,
		Owner:         m.Owner,
	}, nil
}

// domainToRepositoryStateModel converts a domain.RepositoryState to its models.
// The branches are returned separately so they can be replaced as a set.
func domainToRepositoryStateModel(s domain.RepositoryState) (RepositoryStateModel, []BranchInfoModel, error) {
	branches := make([]BranchInfoModel, 0, len(s.Branches))
	for i, b := range s.Branches {
		stats := b.CommitStats
		if stats == nil {
			stats = map[string]int{}
		}
		encoded, err := json.Marshal(stats)
		if err != nil {
			return RepositoryStateModel{}, nil, fmt.Errorf("failed to encode commit stats of branch %s: %w", b.Name, err)
		}

		branches = append(branches, BranchInfoModel{
			CommitStats:    string(encoded),
			LastCommitSHA:  b.LastCommitSHA,
			LastUpdated:    b.LastUpdated.UTC(),
			Name:           b.Name,
			Owner:          b.Owner,
			Position:       i,
			RepositoryName: s.Name,
		})
	}

	return RepositoryStateModel{
		CurrentBranch: s.CurrentBranch,
		LastUpdated:   s.LastUpdated.UTC(),
		Name:          s.Name,
	}, branches, nil
}

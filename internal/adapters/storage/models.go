package storage

import "time"

// RepositoryStateModel is the GORM model for repository_states table
type RepositoryStateModel struct {
	Branches      []BranchInfoModel `gorm:"foreignKey:RepositoryName;references:Name;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time
	CurrentBranch string    `gorm:"not null;default:''"`
	LastUpdated   time.Time `gorm:"not null;index:idx_repository_last_updated"`
	Name          string    `gorm:"primaryKey"`
	UpdatedAt     time.Time
}

// TableName specifies the table name for GORM
func (RepositoryStateModel) TableName() string { return "repository_states" }

// BranchInfoModel is the GORM model for branch_infos table
type BranchInfoModel struct {
	CommitStats    string    `gorm:"not null;default:'{}'"` // JSON object: contributor -> count
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	LastCommitSHA  string    `gorm:"not null;default:''"`
	LastUpdated    time.Time `gorm:"not null"`
	Name           string    `gorm:"not null"`
	Owner          string    `gorm:"not null;default:''"`
	Position       int       `gorm:"not null;default:0"`
	RepositoryName string    `gorm:"not null;index:idx_branch_repository"`
}

// TableName specifies the table name for GORM
func (BranchInfoModel) TableName() string { return "branch_infos" }

package domain

// SyncAction describes what a synchronization pass did to a repository's cached state
type SyncAction string

const (
	SyncActionBranchRefresh SyncAction = "branch_refresh" // Only the current branch was recomputed
	SyncActionFullRefresh   SyncAction = "full_refresh"   // Base branch moved or no cache: every branch recomputed
	SyncActionHeadless      SyncAction = "headless"       // Detached/unborn HEAD: only the current branch was recorded
	SyncActionSkipped       SyncAction = "skipped"        // Repository could not be read
	SyncActionSwitched      SyncAction = "switched"       // Checked out branch changed, cached stats reused
	SyncActionUnchanged     SyncAction = "unchanged"      // Cache still valid, nothing written
)

// RepoSyncResult is the outcome of one repository pass
type RepoSyncResult struct {
	Action   SyncAction
	Branches int
	Commits  int
	Err      error
	Name     string
	Repair   *RepairResult
}

// SyncReport summarizes a synchronization run over the fleet
type SyncReport struct {
	AliasesAdded int
	ErrorCount   int
	RepairCount  int
	Results      []RepoSyncResult
	SuccessCount int
}

package domain

// RepairResult reports what the pre-flight repair step found and fixed
type RepairResult struct {
	FixedFetchHead       bool
	FsckErrors           []string // Advisory only, never auto-fixed
	NeedsAttention       bool
	RemovedCorruptedRefs []string // Paths relative to the repository root
	Warnings             []string // Fixes that could not be applied
}

// HasFixes reports whether anything on disk was changed
func (r *RepairResult) HasFixes() bool {
	if r == nil {
		return false
	}
	return r.FixedFetchHead || len(r.RemovedCorruptedRefs) > 0
}

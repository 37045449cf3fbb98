package domain

import "sort"

// UnknownOwner is the owner label used when no commits can be attributed
const UnknownOwner = "unknown"

// UnknownUser is the provisional owner of a new branch when no git user is configured
const UnknownUser = "Unknown"

// ownerThresholdPercent is the share of commits a co-author needs to be listed as "et al"
const ownerThresholdPercent = 5

// CalculateOwner derives a display label from per-contributor commit counts.
// The primary author is the contributor with the most commits; ties go to the
// lexically smallest name. "et al" is appended when any other contributor has
// at least ceil(total * 5%) commits.
func CalculateOwner(stats map[string]int) string {
	primary, _, total := primaryAuthor(stats)
	if total == 0 {
		return UnknownOwner
	}

	threshold := ownerThreshold(total)
	for name, count := range stats {
		if name != primary && count >= threshold {
			return primary + " et al"
		}
	}
	return primary
}

// OwnerCommitCount returns the primary author's raw commit count
func OwnerCommitCount(stats map[string]int) int {
	_, count, _ := primaryAuthor(stats)
	return count
}

// ownerThreshold computes ceil(total * 5 / 100) in integer arithmetic
func ownerThreshold(total int) int {
	return (total*ownerThresholdPercent + 99) / 100
}

func primaryAuthor(stats map[string]int) (string, int, int) {
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	primary := ""
	primaryCount := 0
	total := 0
	for _, name := range names {
		count := stats[name]
		total += count
		if primary == "" || count > primaryCount {
			primary = name
			primaryCount = count
		}
	}
	return primary, primaryCount, total
}

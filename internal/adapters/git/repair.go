package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/metagit/mgit/internal/domain"
	"github.com/metagit/mgit/internal/logging"
	"github.com/metagit/mgit/internal/ports"
)

// fsckFunc runs the consistency checker and returns its combined output
type fsckFunc func(ctx context.Context, repoPath string) ([]byte, error)

// Repairer implements ports.Repairer. It removes FETCH_HEAD and loose refs that
// are known to be corrupt and reports (never fixes) fsck findings.
type Repairer struct {
	fsck fsckFunc
}

// Verify interface compliance at compile time
var _ ports.Repairer = (*Repairer)(nil)

// NewRepairer creates a Repairer that shells out to git fsck
func NewRepairer() *Repairer {
	return &Repairer{fsck: runFsck}
}

// Repair implements ports.Repairer.Repair
func (r *Repairer) Repair(ctx context.Context, repoPath string) (*domain.RepairResult, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrRepositoryNotFound, repoPath)
	}

	gitDir, err := resolveGitDir(repoPath)
	if err != nil {
		return nil, err
	}

	result := &domain.RepairResult{}
	repairFetchHead(gitDir, result)

	refsDir := filepath.Join(gitDir, "refs")
	if _, err := os.Stat(refsDir); err == nil {
		if err := repairRefs(repoPath, refsDir, result); err != nil {
			result.Warnings = append(result.Warnings, err.Error())
		}
	}

	if r.fsck != nil {
		r.checkConsistency(ctx, repoPath, result)
	}

	logging.Logger.Debug("Repair finished",
		"path", repoPath,
		"fixed_fetch_head", result.FixedFetchHead,
		"removed_refs", len(result.RemovedCorruptedRefs),
		"fsck_errors", len(result.FsckErrors))

	return result, nil
}

func (r *Repairer) checkConsistency(ctx context.Context, repoPath string, result *domain.RepairResult) {
	output, err := r.fsck(ctx, repoPath)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			logging.Logger.Debug("git binary not found, skipping fsck")
			return
		}
		// fsck exits non-zero when it finds problems; the output still applies
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			logging.Logger.Warn("fsck failed to run", "path", repoPath, "error", err)
			return
		}
	}

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "error:") || strings.Contains(line, "fatal:") {
			result.FsckErrors = append(result.FsckErrors, line)
			result.NeedsAttention = true
		}
	}
}

func runFsck(ctx context.Context, repoPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "fsck", "--no-progress")
	return cmd.CombinedOutput()
}

// resolveGitDir returns the git directory, following a "gitdir:" pointer file
func resolveGitDir(repoPath string) (string, error) {
	dotGit := filepath.Join(repoPath, ".git")
	info, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrNotGitRepository, repoPath)
	}
	if info.IsDir() {
		return dotGit, nil
	}

	data, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", dotGit, err)
	}
	content := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(content, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%w: invalid .git file in %s", domain.ErrNotGitRepository, repoPath)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(repoPath, target)
	}
	return target, nil
}

// repairFetchHead removes FETCH_HEAD when it is unreadable, empty or binary
func repairFetchHead(gitDir string, result *domain.RepairResult) {
	fetchHead := filepath.Join(gitDir, "FETCH_HEAD")
	if _, err := os.Lstat(fetchHead); err != nil {
		return
	}

	data, err := os.ReadFile(fetchHead)
	if err == nil && len(data) > 0 && bytes.IndexByte(data, 0) < 0 {
		return
	}

	if err := os.Remove(fetchHead); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("failed to remove corrupted FETCH_HEAD: %v", err))
		return
	}
	logging.Logger.Info("Removed corrupted FETCH_HEAD", "path", fetchHead)
	result.FixedFetchHead = true
}

// repairRefs removes loose refs whose content is neither symbolic nor an object id
func repairRefs(repoPath, refsDir string, result *domain.RepairResult) error {
	return filepath.WalkDir(refsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to scan %s: %v", path, err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr == nil && isValidRefContent(strings.TrimSpace(string(data))) {
			return nil
		}

		rel := path
		if r, err := filepath.Rel(repoPath, path); err == nil {
			rel = filepath.ToSlash(r)
		}
		if err := os.Remove(path); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("failed to remove corrupted ref %s: %v", rel, err))
			return nil
		}
		logging.Logger.Info("Removed corrupted ref", "ref", rel)
		result.RemovedCorruptedRefs = append(result.RemovedCorruptedRefs, rel)
		return nil
	})
}

// isValidRefContent accepts symbolic refs and SHA-1 or SHA-256 object ids
func isValidRefContent(content string) bool {
	if strings.HasPrefix(content, "ref:") {
		return true
	}
	if len(content) != 40 && len(content) != 64 {
		return false
	}
	for _, c := range content {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

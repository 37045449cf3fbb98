package domain

import "errors"

var (
	ErrBranchNotFound     = errors.New("branch not found")
	ErrConfigNotFound     = errors.New("project configuration not found")
	ErrNotGitRepository   = errors.New("not a git repository")
	ErrRemoteNotFound     = errors.New("remote not found")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrStopWalk           = errors.New("stop commit walk")
	ErrStoreClosed        = errors.New("state store is closed")
	ErrUserNotConfigured  = errors.New("git user.name is not configured")
)

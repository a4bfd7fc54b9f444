// Package shared defines the collaborator interfaces used across forkward services.
package shared

import (
	"context"
	"time"

	"github.com/forkward/forkward/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the default push remote for forks.
	OriginRemoteNameConstant = "origin"
	// UpstreamRemoteNameConstant identifies the default remote tracking the source repository.
	UpstreamRemoteNameConstant = "upstream"
)

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// GitExecutor exposes the subset of shell execution used by forkward services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitRepositoryManager exposes repository-level git operations.
type GitRepositoryManager interface {
	CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error)
	GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error)
	GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error)
	SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error
	IsShallowRepository(executionContext context.Context, repositoryPath string) (bool, error)
	CountCommitsBetween(executionContext context.Context, repositoryPath string, fromReference string, toReference string) (int, error)
	ResolveHeadCommit(executionContext context.Context, repositoryPath string) (string, error)
	LastCommitTime(executionContext context.Context, repositoryPath string) (time.Time, error)
}

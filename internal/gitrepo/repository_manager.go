package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/forkward/forkward/internal/execshell"
)

const (
	executorNotConfiguredMessageConstant      = "git executor not configured"
	revParseSubcommandConstant                = "rev-parse"
	revListSubcommandConstant                 = "rev-list"
	logSubcommandConstant                     = "log"
	statusSubcommandConstant                  = "status"
	remoteSubcommandConstant                  = "remote"
	remoteGetURLSubcommandConstant            = "get-url"
	remoteSetURLSubcommandConstant            = "set-url"
	remoteAddSubcommandConstant               = "add"
	statusPorcelainFlagConstant               = "--porcelain"
	abbreviatedReferenceFlagConstant          = "--abbrev-ref"
	shallowRepositoryFlagConstant             = "--is-shallow-repository"
	countFlagConstant                         = "--count"
	lastEntryFlagConstant                     = "-1"
	commitTimestampFormatFlagConstant         = "--format=%ct"
	headReferenceConstant                     = "HEAD"
	referenceRangeSeparatorConstant           = ".."
	booleanTrueOutputConstant                 = "true"
	commitCountParseErrorTemplateConstant     = "unexpected rev-list output %q"
	commitTimestampParseErrorTemplateConstant = "unexpected log timestamp output %q"
)

// ErrExecutorNotConfigured indicates the repository manager was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// GitCommandExecutor is the minimal interface the repository manager needs from execshell.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager performs repository-level git operations through an executor.
type RepositoryManager struct {
	executor GitCommandExecutor
}

// NewRepositoryManager constructs a RepositoryManager after validating the executor.
func NewRepositoryManager(executor GitCommandExecutor) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &RepositoryManager{executor: executor}, nil
}

// CheckCleanWorktree reports whether the repository has no staged or unstaged changes.
func (manager *RepositoryManager) CheckCleanWorktree(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{statusSubcommandConstant, statusPorcelainFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) == 0, nil
}

// GetCurrentBranch returns the abbreviated name of the checked-out branch.
func (manager *RepositoryManager) GetCurrentBranch(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{revParseSubcommandConstant, abbreviatedReferenceFlagConstant, headReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// GetRemoteURL returns the configured URL for the named remote.
func (manager *RepositoryManager) GetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, remoteGetURLSubcommandConstant, remoteName},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// SetRemoteURL updates the URL for the named remote.
func (manager *RepositoryManager) SetRemoteURL(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, remoteSetURLSubcommandConstant, remoteName, remoteURL},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// AddRemote registers a new named remote pointing at the provided URL.
func (manager *RepositoryManager) AddRemote(executionContext context.Context, repositoryPath string, remoteName string, remoteURL string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{remoteSubcommandConstant, remoteAddSubcommandConstant, remoteName, remoteURL},
		WorkingDirectory: repositoryPath,
	})
	return executionError
}

// IsShallowRepository reports whether the repository clone has truncated history.
func (manager *RepositoryManager) IsShallowRepository(executionContext context.Context, repositoryPath string) (bool, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{revParseSubcommandConstant, shallowRepositoryFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return false, executionError
	}
	return strings.EqualFold(strings.TrimSpace(executionResult.StandardOutput), booleanTrueOutputConstant), nil
}

// CountCommitsBetween returns the number of commits reachable from toReference but not fromReference.
func (manager *RepositoryManager) CountCommitsBetween(executionContext context.Context, repositoryPath string, fromReference string, toReference string) (int, error) {
	referenceRange := fromReference + referenceRangeSeparatorConstant + toReference
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{revListSubcommandConstant, countFlagConstant, referenceRange},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return 0, executionError
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	commitCount, parseError := strconv.Atoi(trimmedOutput)
	if parseError != nil {
		return 0, &OutputParseError{Subcommand: revListSubcommandConstant, Output: trimmedOutput, Cause: parseError}
	}
	return commitCount, nil
}

// ResolveHeadCommit returns the commit hash the repository HEAD points at.
func (manager *RepositoryManager) ResolveHeadCommit(executionContext context.Context, repositoryPath string) (string, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{revParseSubcommandConstant, headReferenceConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return "", executionError
	}
	return strings.TrimSpace(executionResult.StandardOutput), nil
}

// LastCommitTime returns the committer timestamp of the most recent commit.
func (manager *RepositoryManager) LastCommitTime(executionContext context.Context, repositoryPath string) (time.Time, error) {
	executionResult, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{logSubcommandConstant, lastEntryFlagConstant, commitTimestampFormatFlagConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		return time.Time{}, executionError
	}

	trimmedOutput := strings.TrimSpace(executionResult.StandardOutput)
	unixSeconds, parseError := strconv.ParseInt(trimmedOutput, 10, 64)
	if parseError != nil {
		return time.Time{}, &OutputParseError{Subcommand: logSubcommandConstant, Output: trimmedOutput, Cause: parseError}
	}
	return time.Unix(unixSeconds, 0).UTC(), nil
}

// OutputParseError reports git output that could not be interpreted.
type OutputParseError struct {
	Subcommand string
	Output     string
	Cause      error
}

// Error describes the unparseable output.
func (parseError *OutputParseError) Error() string {
	if parseError.Subcommand == logSubcommandConstant {
		return fmt.Sprintf(commitTimestampParseErrorTemplateConstant, parseError.Output)
	}
	return fmt.Sprintf(commitCountParseErrorTemplateConstant, parseError.Output)
}

// Unwrap exposes the underlying parse failure.
func (parseError *OutputParseError) Unwrap() error {
	return parseError.Cause
}

package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/shared"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	upstreamURLRequiredMessageConstant          = "upstream repository URL must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	worktreeNotCleanMessageConstant             = "repository worktree is not clean"
	rebaseConflictMessageConstant               = "rebase stopped on conflicts and was aborted"
	remoteVerificationErrorTemplateConstant     = "failed to verify %s remote: %w"
	remoteAdditionErrorTemplateConstant         = "failed to add %s remote: %w"
	remoteUpdateErrorTemplateConstant           = "failed to update %s remote: %w"
	cleanVerificationErrorTemplateConstant      = "failed to verify clean worktree: %w"
	shallowDetectionErrorTemplateConstant       = "failed to detect shallow clone: %w"
	gitFetchFailureTemplateConstant             = "failed to fetch from %s: %w"
	gitCheckoutFailureTemplateConstant          = "failed to checkout branch %q: %w"
	behindCountErrorTemplateConstant            = "failed to count upstream commits: %w"
	aheadCountErrorTemplateConstant             = "failed to count local commits: %w"
	gitPushFailureTemplateConstant              = "failed to push %s to %s: %w"
	rebaseAbortFailureTemplateConstant          = "failed to abort conflicted rebase: %w"
	gitFetchSubcommandConstant                  = "fetch"
	gitFetchPruneFlagConstant                   = "--prune"
	gitFetchUnshallowFlagConstant               = "--unshallow"
	gitCheckoutSubcommandConstant               = "checkout"
	gitRebaseSubcommandConstant                 = "rebase"
	gitRebaseAbortFlagConstant                  = "--abort"
	gitPushSubcommandConstant                   = "push"
	gitForceFlagConstant                        = "--force"
	gitForceWithLeaseFlagConstant               = "--force-with-lease"
	upstreamReferenceSeparatorConstant          = "/"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	gitAuthorNameEnvironmentConstant            = "GIT_AUTHOR_NAME"
	gitAuthorEmailEnvironmentConstant           = "GIT_AUTHOR_EMAIL"
	gitCommitterNameEnvironmentConstant         = "GIT_COMMITTER_NAME"
	gitCommitterEmailEnvironmentConstant        = "GIT_COMMITTER_EMAIL"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name option was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// ErrUpstreamURLRequired indicates the upstream URL option was empty.
var ErrUpstreamURLRequired = errors.New(upstreamURLRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// ErrWorktreeNotClean indicates the repository contains uncommitted changes.
var ErrWorktreeNotClean = errors.New(worktreeNotCleanMessageConstant)

// ErrRebaseConflict indicates the rebase could not replay local commits cleanly.
// The branch is left at its pre-rebase state before this error is returned.
var ErrRebaseConflict = errors.New(rebaseConflictMessageConstant)

// Dependencies enumerates external collaborators required for sync operations.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
}

// Identity carries the synthetic commit identity applied to replayed commits.
type Identity struct {
	Name  string
	Email string
}

// Options configures a fork synchronization run.
type Options struct {
	RepositoryPath     string
	BranchName         string
	UpstreamURL        string
	RemoteName         string
	UpstreamRemoteName string
	RequireClean       bool
	ForceWithLease     bool
	DryRun             bool
	Committer          Identity
}

// Result captures the observable outcomes of a synchronization run.
type Result struct {
	RepositoryPath string
	BranchName     string
	BehindCount    int
	AheadCount     int
	Rebased        bool
	Pushed         bool
}

// Service coordinates fork synchronization through git.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: dependencies.RepositoryManager}, nil
}

// Sync rebases the configured branch onto the upstream branch and force-pushes the result.
//
// A branch that is not behind upstream produces a no-op result with no rebase
// and no push. A conflicted rebase is aborted before ErrRebaseConflict is
// surfaced, so the branch never remains mid-rebase and the push step is never
// reached.
func (service *Service) Sync(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedBranchName := strings.TrimSpace(options.BranchName)
	if len(trimmedBranchName) == 0 {
		return Result{}, ErrBranchNameRequired
	}

	trimmedUpstreamURL := strings.TrimSpace(options.UpstreamURL)
	if len(trimmedUpstreamURL) == 0 {
		return Result{}, ErrUpstreamURLRequired
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = shared.OriginRemoteNameConstant
	}
	upstreamRemoteName := strings.TrimSpace(options.UpstreamRemoteName)
	if len(upstreamRemoteName) == 0 {
		upstreamRemoteName = shared.UpstreamRemoteNameConstant
	}

	if remoteError := service.ensureUpstreamRemote(executionContext, trimmedRepositoryPath, upstreamRemoteName, trimmedUpstreamURL); remoteError != nil {
		return Result{}, remoteError
	}

	if options.RequireClean {
		clean, cleanError := service.repositoryManager.CheckCleanWorktree(executionContext, trimmedRepositoryPath)
		if cleanError != nil {
			return Result{}, fmt.Errorf(cleanVerificationErrorTemplateConstant, cleanError)
		}
		if !clean {
			return Result{}, ErrWorktreeNotClean
		}
	}

	shallow, shallowError := service.repositoryManager.IsShallowRepository(executionContext, trimmedRepositoryPath)
	if shallowError != nil {
		return Result{}, fmt.Errorf(shallowDetectionErrorTemplateConstant, shallowError)
	}

	fetchArguments := []string{gitFetchSubcommandConstant, gitFetchPruneFlagConstant}
	if shallow {
		fetchArguments = append(fetchArguments, gitFetchUnshallowFlagConstant)
	}
	fetchArguments = append(fetchArguments, upstreamRemoteName)
	if fetchError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        fetchArguments,
		WorkingDirectory: trimmedRepositoryPath,
	}, Identity{}); fetchError != nil {
		return Result{}, fmt.Errorf(gitFetchFailureTemplateConstant, upstreamRemoteName, fetchError)
	}

	if checkoutError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, trimmedBranchName},
		WorkingDirectory: trimmedRepositoryPath,
	}, Identity{}); checkoutError != nil {
		return Result{}, fmt.Errorf(gitCheckoutFailureTemplateConstant, trimmedBranchName, checkoutError)
	}

	upstreamReference := upstreamRemoteName + upstreamReferenceSeparatorConstant + trimmedBranchName
	behindCount, behindError := service.repositoryManager.CountCommitsBetween(executionContext, trimmedRepositoryPath, trimmedBranchName, upstreamReference)
	if behindError != nil {
		return Result{}, fmt.Errorf(behindCountErrorTemplateConstant, behindError)
	}
	aheadCount, aheadError := service.repositoryManager.CountCommitsBetween(executionContext, trimmedRepositoryPath, upstreamReference, trimmedBranchName)
	if aheadError != nil {
		return Result{}, fmt.Errorf(aheadCountErrorTemplateConstant, aheadError)
	}

	result := Result{
		RepositoryPath: trimmedRepositoryPath,
		BranchName:     trimmedBranchName,
		BehindCount:    behindCount,
		AheadCount:     aheadCount,
	}

	if behindCount == 0 || options.DryRun {
		return result, nil
	}

	if rebaseError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRebaseSubcommandConstant, upstreamReference},
		WorkingDirectory: trimmedRepositoryPath,
	}, options.Committer); rebaseError != nil {
		if abortError := service.executeGit(executionContext, execshell.CommandDetails{
			Arguments:        []string{gitRebaseSubcommandConstant, gitRebaseAbortFlagConstant},
			WorkingDirectory: trimmedRepositoryPath,
		}, Identity{}); abortError != nil {
			return Result{}, errors.Join(ErrRebaseConflict, fmt.Errorf(rebaseAbortFailureTemplateConstant, abortError))
		}
		return Result{}, fmt.Errorf("%w: %s", ErrRebaseConflict, rebaseError)
	}
	result.Rebased = true

	forceFlag := gitForceFlagConstant
	if options.ForceWithLease {
		forceFlag = gitForceWithLeaseFlagConstant
	}
	if pushError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitPushSubcommandConstant, forceFlag, remoteName, trimmedBranchName},
		WorkingDirectory: trimmedRepositoryPath,
	}, Identity{}); pushError != nil {
		return Result{}, fmt.Errorf(gitPushFailureTemplateConstant, trimmedBranchName, remoteName, pushError)
	}
	result.Pushed = true

	return result, nil
}

func (service *Service) ensureUpstreamRemote(executionContext context.Context, repositoryPath string, remoteName string, upstreamURL string) error {
	configuredURL, lookupError := service.repositoryManager.GetRemoteURL(executionContext, repositoryPath, remoteName)
	if lookupError != nil {
		commandFailure := execshell.CommandFailedError{}
		if !errors.As(lookupError, &commandFailure) {
			return fmt.Errorf(remoteVerificationErrorTemplateConstant, remoteName, lookupError)
		}
		if addError := service.repositoryManager.AddRemote(executionContext, repositoryPath, remoteName, upstreamURL); addError != nil {
			return fmt.Errorf(remoteAdditionErrorTemplateConstant, remoteName, addError)
		}
		return nil
	}

	if strings.TrimSpace(configuredURL) != upstreamURL {
		if updateError := service.repositoryManager.SetRemoteURL(executionContext, repositoryPath, remoteName, upstreamURL); updateError != nil {
			return fmt.Errorf(remoteUpdateErrorTemplateConstant, remoteName, updateError)
		}
	}
	return nil
}

func (service *Service) executeGit(executionContext context.Context, details execshell.CommandDetails, identity Identity) error {
	if details.EnvironmentVariables == nil {
		details.EnvironmentVariables = map[string]string{}
	}
	details.EnvironmentVariables[gitTerminalPromptEnvironmentNameConstant] = gitTerminalPromptEnvironmentDisableConstant

	trimmedName := strings.TrimSpace(identity.Name)
	trimmedEmail := strings.TrimSpace(identity.Email)
	if len(trimmedName) > 0 {
		details.EnvironmentVariables[gitAuthorNameEnvironmentConstant] = trimmedName
		details.EnvironmentVariables[gitCommitterNameEnvironmentConstant] = trimmedName
	}
	if len(trimmedEmail) > 0 {
		details.EnvironmentVariables[gitAuthorEmailEnvironmentConstant] = trimmedEmail
		details.EnvironmentVariables[gitCommitterEmailEnvironmentConstant] = trimmedEmail
	}

	_, executionError := service.executor.ExecuteGit(executionContext, details)
	return executionError
}

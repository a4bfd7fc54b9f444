package keepalive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/shared"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	lastCommitLookupErrorTemplateConstant       = "failed to determine last commit time: %w"
	gitCheckoutFailureTemplateConstant          = "failed to checkout branch %q: %w"
	emptyCommitFailureTemplateConstant          = "failed to record keepalive commit: %w"
	gitPushFailureTemplateConstant              = "failed to push %s to %s: %w"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCommitSubcommandConstant                 = "commit"
	gitCommitAllowEmptyFlagConstant             = "--allow-empty"
	gitCommitMessageFlagConstant                = "-m"
	gitPushSubcommandConstant                   = "push"
	defaultCommitMessageConstant                = "chore: keepalive"
	defaultIdleThresholdConstant                = 50 * 24 * time.Hour
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

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// Dependencies enumerates external collaborators required for keepalive operations.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	Clock             shared.Clock
}

// Identity carries the commit identity for keepalive commits.
type Identity struct {
	Name  string
	Email string
}

// Options configures a keepalive run.
type Options struct {
	RepositoryPath string
	BranchName     string
	RemoteName     string
	IdleThreshold  time.Duration
	CommitMessage  string
	Force          bool
	DryRun         bool
	Committer      Identity
}

// Result captures the observable outcomes of a keepalive run.
type Result struct {
	RepositoryPath string
	BranchName     string
	LastActivity   time.Time
	IdleDuration   time.Duration
	Committed      bool
	Pushed         bool
}

// Service records keepalive commits on repositories that have gone idle.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
	clock             shared.Clock
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{executor: dependencies.GitExecutor, repositoryManager: dependencies.RepositoryManager, clock: clock}, nil
}

// Keepalive records and pushes an empty commit when the branch has been idle
// longer than the configured threshold. Repositories with recent activity
// produce a no-op result. The push is not forced unless Options.Force is set.
func (service *Service) Keepalive(executionContext context.Context, options Options) (Result, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Result{}, ErrRepositoryPathRequired
	}

	trimmedBranchName := strings.TrimSpace(options.BranchName)
	if len(trimmedBranchName) == 0 {
		return Result{}, ErrBranchNameRequired
	}

	remoteName := strings.TrimSpace(options.RemoteName)
	if len(remoteName) == 0 {
		remoteName = shared.OriginRemoteNameConstant
	}

	idleThreshold := options.IdleThreshold
	if idleThreshold <= 0 {
		idleThreshold = defaultIdleThresholdConstant
	}

	commitMessage := strings.TrimSpace(options.CommitMessage)
	if len(commitMessage) == 0 {
		commitMessage = defaultCommitMessageConstant
	}

	lastCommitTime, lookupError := service.repositoryManager.LastCommitTime(executionContext, trimmedRepositoryPath)
	if lookupError != nil {
		return Result{}, fmt.Errorf(lastCommitLookupErrorTemplateConstant, lookupError)
	}

	idleDuration := service.clock.Now().Sub(lastCommitTime)
	result := Result{
		RepositoryPath: trimmedRepositoryPath,
		BranchName:     trimmedBranchName,
		LastActivity:   lastCommitTime,
		IdleDuration:   idleDuration,
	}

	if idleDuration < idleThreshold || options.DryRun {
		return result, nil
	}

	if checkoutError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCheckoutSubcommandConstant, trimmedBranchName},
		WorkingDirectory: trimmedRepositoryPath,
	}, Identity{}); checkoutError != nil {
		return Result{}, fmt.Errorf(gitCheckoutFailureTemplateConstant, trimmedBranchName, checkoutError)
	}

	if commitError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitCommitSubcommandConstant, gitCommitAllowEmptyFlagConstant, gitCommitMessageFlagConstant, commitMessage},
		WorkingDirectory: trimmedRepositoryPath,
	}, options.Committer); commitError != nil {
		return Result{}, fmt.Errorf(emptyCommitFailureTemplateConstant, commitError)
	}
	result.Committed = true

	pushArguments := []string{gitPushSubcommandConstant}
	if options.Force {
		pushArguments = append(pushArguments, "--force")
	}
	pushArguments = append(pushArguments, remoteName, trimmedBranchName)
	if pushError := service.executeGit(executionContext, execshell.CommandDetails{
		Arguments:        pushArguments,
		WorkingDirectory: trimmedRepositoryPath,
	}, Identity{}); pushError != nil {
		return Result{}, fmt.Errorf(gitPushFailureTemplateConstant, trimmedBranchName, remoteName, pushError)
	}
	result.Pushed = true

	return result, nil
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

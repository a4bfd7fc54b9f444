package status

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/githubcli"
	"github.com/forkward/forkward/internal/gitrepo"
	"github.com/forkward/forkward/internal/shared"
)

const (
	repositoryPathRequiredMessageConstant       = "repository path must be provided"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	repositoryManagerMissingMessageConstant     = "repository manager not configured"
	branchResolutionErrorTemplateConstant       = "failed to resolve current branch: %w"
	remoteLookupErrorTemplateConstant           = "failed to resolve %s remote: %w"
	gitFetchFailureTemplateConstant             = "failed to fetch from %s: %w"
	behindCountErrorTemplateConstant            = "failed to count upstream commits: %w"
	aheadCountErrorTemplateConstant             = "failed to count local commits: %w"
	headResolutionErrorTemplateConstant         = "failed to resolve head commit: %w"
	lastCommitErrorTemplateConstant             = "failed to determine last commit time: %w"
	gitFetchSubcommandConstant                  = "fetch"
	gitFetchPruneFlagConstant                   = "--prune"
	upstreamReferenceSeparatorConstant          = "/"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	metadataUnavailableLogMessageConstant       = "upstream metadata unavailable"
	logFieldRemoteURLConstant                   = "remote_url"
)

// ErrRepositoryPathRequired indicates the repository path option was empty.
var ErrRepositoryPathRequired = errors.New(repositoryPathRequiredMessageConstant)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(repositoryManagerMissingMessageConstant)

// MetadataResolver resolves repository metadata through the GitHub CLI.
type MetadataResolver interface {
	ResolveRepoMetadata(executionContext context.Context, repository string) (githubcli.RepositoryMetadata, error)
}

// Dependencies enumerates external collaborators required for status reporting.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	MetadataResolver  MetadataResolver
	Logger            *zap.Logger
}

// Options configures a status report.
type Options struct {
	RepositoryPath     string
	BranchName         string
	UpstreamRemoteName string
	SkipFetch          bool
}

// Report captures the drift between the fork branch and its upstream counterpart.
type Report struct {
	RepositoryPath  string
	BranchName      string
	HeadCommit      string
	BehindCount     int
	AheadCount      int
	LastCommitTime  time.Time
	UpstreamMissing bool
	Upstream        *githubcli.RepositoryMetadata
}

// Service assembles fork drift reports.
type Service struct {
	executor          shared.GitExecutor
	repositoryManager shared.GitRepositoryManager
	metadataResolver  MetadataResolver
	logger            *zap.Logger
}

// NewService constructs a Service from the provided dependencies. The metadata
// resolver is optional; without it reports omit GitHub details.
func NewService(dependencies Dependencies) (*Service, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		executor:          dependencies.GitExecutor,
		repositoryManager: dependencies.RepositoryManager,
		metadataResolver:  dependencies.MetadataResolver,
		logger:            logger,
	}, nil
}

// Status reports the branch's drift from upstream. Metadata lookup failures
// degrade to a report without GitHub details instead of failing the run.
func (service *Service) Status(executionContext context.Context, options Options) (Report, error) {
	trimmedRepositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(trimmedRepositoryPath) == 0 {
		return Report{}, ErrRepositoryPathRequired
	}

	upstreamRemoteName := strings.TrimSpace(options.UpstreamRemoteName)
	if len(upstreamRemoteName) == 0 {
		upstreamRemoteName = shared.UpstreamRemoteNameConstant
	}

	branchName := strings.TrimSpace(options.BranchName)
	if len(branchName) == 0 {
		currentBranch, branchError := service.repositoryManager.GetCurrentBranch(executionContext, trimmedRepositoryPath)
		if branchError != nil {
			return Report{}, fmt.Errorf(branchResolutionErrorTemplateConstant, branchError)
		}
		branchName = currentBranch
	}

	upstreamURL, remoteLookupError := service.repositoryManager.GetRemoteURL(executionContext, trimmedRepositoryPath, upstreamRemoteName)
	if remoteLookupError != nil {
		commandFailure := execshell.CommandFailedError{}
		if !errors.As(remoteLookupError, &commandFailure) {
			return Report{}, fmt.Errorf(remoteLookupErrorTemplateConstant, upstreamRemoteName, remoteLookupError)
		}
		return Report{
			RepositoryPath:  trimmedRepositoryPath,
			BranchName:      branchName,
			UpstreamMissing: true,
		}, nil
	}

	if !options.SkipFetch {
		fetchDetails := execshell.CommandDetails{
			Arguments:        []string{gitFetchSubcommandConstant, gitFetchPruneFlagConstant, upstreamRemoteName},
			WorkingDirectory: trimmedRepositoryPath,
			EnvironmentVariables: map[string]string{
				gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
			},
		}
		if _, fetchError := service.executor.ExecuteGit(executionContext, fetchDetails); fetchError != nil {
			return Report{}, fmt.Errorf(gitFetchFailureTemplateConstant, upstreamRemoteName, fetchError)
		}
	}

	upstreamReference := upstreamRemoteName + upstreamReferenceSeparatorConstant + branchName
	behindCount, behindError := service.repositoryManager.CountCommitsBetween(executionContext, trimmedRepositoryPath, branchName, upstreamReference)
	if behindError != nil {
		return Report{}, fmt.Errorf(behindCountErrorTemplateConstant, behindError)
	}
	aheadCount, aheadError := service.repositoryManager.CountCommitsBetween(executionContext, trimmedRepositoryPath, upstreamReference, branchName)
	if aheadError != nil {
		return Report{}, fmt.Errorf(aheadCountErrorTemplateConstant, aheadError)
	}

	headCommit, headError := service.repositoryManager.ResolveHeadCommit(executionContext, trimmedRepositoryPath)
	if headError != nil {
		return Report{}, fmt.Errorf(headResolutionErrorTemplateConstant, headError)
	}

	lastCommitTime, lastCommitError := service.repositoryManager.LastCommitTime(executionContext, trimmedRepositoryPath)
	if lastCommitError != nil {
		return Report{}, fmt.Errorf(lastCommitErrorTemplateConstant, lastCommitError)
	}

	report := Report{
		RepositoryPath: trimmedRepositoryPath,
		BranchName:     branchName,
		HeadCommit:     headCommit,
		BehindCount:    behindCount,
		AheadCount:     aheadCount,
		LastCommitTime: lastCommitTime,
	}

	if service.metadataResolver != nil {
		report.Upstream = service.resolveUpstreamMetadata(executionContext, upstreamURL)
	}

	return report, nil
}

func (service *Service) resolveUpstreamMetadata(executionContext context.Context, upstreamURL string) *githubcli.RepositoryMetadata {
	parsedRemote, parseError := gitrepo.ParseRemoteURL(upstreamURL)
	if parseError != nil {
		service.logger.Warn(metadataUnavailableLogMessageConstant,
			zap.String(logFieldRemoteURLConstant, upstreamURL),
			zap.Error(parseError),
		)
		return nil
	}

	metadata, metadataError := service.metadataResolver.ResolveRepoMetadata(executionContext, parsedRemote.OwnerWithRepository())
	if metadataError != nil {
		service.logger.Warn(metadataUnavailableLogMessageConstant,
			zap.String(logFieldRemoteURLConstant, upstreamURL),
			zap.Error(metadataError),
		)
		return nil
	}
	return &metadata
}

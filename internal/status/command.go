package status

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/dependencies"
	"github.com/forkward/forkward/internal/shared"
)

const (
	commandUseConstant                = "status"
	commandShortDescriptionConstant   = "Report how far the fork has drifted from upstream"
	commandLongDescriptionConstant    = "status fetches the upstream remote and reports the branch's ahead and behind counts, the current head commit, and upstream repository metadata when the GitHub CLI is available."
	repositoryFlagNameConstant        = "repository"
	repositoryFlagDescription         = "Path to the fork's local clone"
	branchFlagNameConstant            = "branch"
	branchFlagDescriptionConstant     = "Branch to compare with upstream; defaults to the checked-out branch"
	skipFetchFlagNameConstant         = "no-fetch"
	skipFetchFlagDescriptionConstant  = "Compare against the already-fetched upstream state"
	missingRepositoryMessage          = "repository path is required; supply --repository or configure sync.repository"
	driftMessageTemplateConstant      = "%s (%s): behind %d, ahead %d, head %s\n"
	noUpstreamMessageTemplateConstant = "%s (%s): no upstream remote configured\n"
	lastActivityMessageTemplate       = "last local commit: %s\n"
	upstreamMessageTemplateConstant   = "upstream %s: default branch %s, last pushed %s\n"
	archivedSuffixConstant            = " (archived)"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the status command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	MetadataResolver             MetadataResolver
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the status command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(repositoryFlagNameConstant, "", repositoryFlagDescription)
	command.Flags().String(branchFlagNameConstant, "", branchFlagDescriptionConstant)
	command.Flags().Bool(skipFetchFlagNameConstant, false, skipFetchFlagDescriptionConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()

	repositoryPath, repositoryError := stringFlagOrConfiguration(command, repositoryFlagNameConstant, configuration.RepositoryPath)
	if repositoryError != nil {
		return repositoryError
	}
	if len(repositoryPath) == 0 {
		return errors.New(missingRepositoryMessage)
	}

	branchName, branchError := stringFlagOrConfiguration(command, branchFlagNameConstant, configuration.BranchName)
	if branchError != nil {
		return branchError
	}

	skipFetchRequested, skipFetchFlagError := command.Flags().GetBool(skipFetchFlagNameConstant)
	if skipFetchFlagError != nil {
		return skipFetchFlagError
	}

	logger := builder.resolveLogger()
	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}
	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, humanReadableLogging)
	if executorError != nil {
		return executorError
	}

	repositoryManager, managerError := dependencies.ResolveGitRepositoryManager(builder.GitRepositoryManager, gitExecutor)
	if managerError != nil {
		return managerError
	}

	metadataResolver := builder.MetadataResolver
	if metadataResolver == nil {
		githubClient, clientError := dependencies.ResolveGitHubClient(nil, gitExecutor)
		if clientError != nil {
			return clientError
		}
		metadataResolver = githubClient
	}

	service, serviceCreationError := NewService(Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
		MetadataResolver:  metadataResolver,
		Logger:            logger,
	})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	report, statusError := service.Status(command.Context(), Options{
		RepositoryPath:     repositoryPath,
		BranchName:         branchName,
		UpstreamRemoteName: configuration.UpstreamRemoteName,
		SkipFetch:          skipFetchRequested,
	})
	if statusError != nil {
		return statusError
	}

	if report.UpstreamMissing {
		fmt.Fprintf(command.OutOrStdout(), noUpstreamMessageTemplateConstant, report.RepositoryPath, report.BranchName)
		return nil
	}

	fmt.Fprintf(command.OutOrStdout(), driftMessageTemplateConstant, report.RepositoryPath, report.BranchName, report.BehindCount, report.AheadCount, report.HeadCommit)
	fmt.Fprintf(command.OutOrStdout(), lastActivityMessageTemplate, report.LastCommitTime.Format(time.RFC3339))
	if report.Upstream != nil {
		upstreamName := report.Upstream.NameWithOwner
		if report.Upstream.Archived {
			upstreamName += archivedSuffixConstant
		}
		fmt.Fprintf(command.OutOrStdout(), upstreamMessageTemplateConstant, upstreamName, report.Upstream.DefaultBranch, report.Upstream.LastPushed.Format(time.RFC3339))
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func stringFlagOrConfiguration(command *cobra.Command, flagName string, configured string) (string, error) {
	flagValue, flagError := command.Flags().GetString(flagName)
	if flagError != nil {
		return "", flagError
	}
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue, nil
	}
	return strings.TrimSpace(configured), nil
}

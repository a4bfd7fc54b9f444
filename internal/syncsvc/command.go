package syncsvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/dependencies"
	"github.com/forkward/forkward/internal/shared"
)

const (
	commandUseConstant              = "sync"
	commandShortDescriptionConstant = "Rebase the fork branch onto upstream and force-push it"
	commandLongDescriptionConstant  = "sync fetches the upstream repository, rebases the fork's branch onto the upstream branch, and force-pushes the rebased branch back to the fork."
	repositoryFlagNameConstant      = "repository"
	repositoryFlagDescription       = "Path to the fork's local clone"
	branchFlagNameConstant          = "branch"
	branchFlagDescriptionConstant   = "Branch to synchronize with upstream"
	upstreamFlagNameConstant        = "upstream"
	upstreamFlagDescription         = "URL of the upstream repository"
	dryRunFlagNameConstant          = "dry-run"
	dryRunFlagDescriptionConstant   = "Report how far behind upstream the branch is without rebasing or pushing"
	missingRepositoryMessage        = "repository path is required; supply --repository or configure sync.repository"
	missingBranchMessageConstant    = "branch name is required; supply --branch or configure sync.branch"
	missingUpstreamMessageConstant  = "upstream URL is required; supply --upstream or configure sync.upstream"
	upToDateMessageTemplateConstant = "UP-TO-DATE: %s (%s)\n"
	dryRunMessageTemplateConstant   = "BEHIND %d: %s (%s)\n"
	syncedMessageTemplateConstant   = "SYNCED: %s (%s) rebased %d commit(s) onto upstream\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the sync command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the sync command.
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
	command.Flags().String(upstreamFlagNameConstant, "", upstreamFlagDescription)
	command.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)

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
	if len(branchName) == 0 {
		return errors.New(missingBranchMessageConstant)
	}

	upstreamURL, upstreamError := stringFlagOrConfiguration(command, upstreamFlagNameConstant, configuration.UpstreamURL)
	if upstreamError != nil {
		return upstreamError
	}
	if len(upstreamURL) == 0 {
		return errors.New(missingUpstreamMessageConstant)
	}

	dryRunRequested, dryRunFlagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if dryRunFlagError != nil {
		return dryRunFlagError
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

	service, serviceCreationError := NewService(Dependencies{GitExecutor: gitExecutor, RepositoryManager: repositoryManager})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	result, syncError := service.Sync(command.Context(), Options{
		RepositoryPath:     repositoryPath,
		BranchName:         branchName,
		UpstreamURL:        upstreamURL,
		RemoteName:         configuration.RemoteName,
		UpstreamRemoteName: configuration.UpstreamRemoteName,
		RequireClean:       configuration.RequireClean,
		ForceWithLease:     configuration.ForceWithLease,
		DryRun:             dryRunRequested,
		Committer:          Identity{Name: configuration.Committer.Name, Email: configuration.Committer.Email},
	})
	if syncError != nil {
		return syncError
	}

	switch {
	case result.Pushed:
		fmt.Fprintf(command.OutOrStdout(), syncedMessageTemplateConstant, result.RepositoryPath, result.BranchName, result.BehindCount)
	case result.BehindCount > 0:
		fmt.Fprintf(command.OutOrStdout(), dryRunMessageTemplateConstant, result.BehindCount, result.RepositoryPath, result.BranchName)
	default:
		fmt.Fprintf(command.OutOrStdout(), upToDateMessageTemplateConstant, result.RepositoryPath, result.BranchName)
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

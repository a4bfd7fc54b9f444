package keepalive

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
	commandUseConstant               = "keepalive"
	commandShortDescriptionConstant  = "Record an empty commit when the repository has gone idle"
	commandLongDescriptionConstant   = "keepalive checks the time of the last commit and, once the repository has been idle longer than the configured threshold, records and pushes an empty commit so scheduled automation on the fork is not disabled for inactivity."
	repositoryFlagNameConstant       = "repository"
	repositoryFlagDescription        = "Path to the fork's local clone"
	branchFlagNameConstant           = "branch"
	branchFlagDescriptionConstant    = "Branch receiving the keepalive commit"
	thresholdFlagNameConstant        = "threshold"
	thresholdFlagDescriptionConstant = "Idle duration after which a keepalive commit is recorded"
	dryRunFlagNameConstant           = "dry-run"
	dryRunFlagDescriptionConstant    = "Report idle time without committing or pushing"
	missingRepositoryMessage         = "repository path is required; supply --repository or configure keepalive.repository"
	missingBranchMessageConstant     = "branch name is required; supply --branch or configure keepalive.branch"
	activeMessageTemplateConstant    = "ACTIVE: %s idle for %s\n"
	committedMessageTemplate         = "KEEPALIVE: %s (%s) empty commit pushed after %s idle\n"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the keepalive command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	GitExecutor                  shared.GitExecutor
	GitRepositoryManager         shared.GitRepositoryManager
	Clock                        shared.Clock
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the keepalive command.
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
	command.Flags().Duration(thresholdFlagNameConstant, 0, thresholdFlagDescriptionConstant)
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

	idleThreshold := configuration.IdleThreshold
	if command.Flags().Changed(thresholdFlagNameConstant) {
		flagThreshold, thresholdFlagError := command.Flags().GetDuration(thresholdFlagNameConstant)
		if thresholdFlagError != nil {
			return thresholdFlagError
		}
		idleThreshold = flagThreshold
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

	service, serviceCreationError := NewService(Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
		Clock:             builder.Clock,
	})
	if serviceCreationError != nil {
		return serviceCreationError
	}

	result, keepaliveError := service.Keepalive(command.Context(), Options{
		RepositoryPath: repositoryPath,
		BranchName:     branchName,
		RemoteName:     configuration.RemoteName,
		IdleThreshold:  idleThreshold,
		CommitMessage:  configuration.CommitMessage,
		Force:          configuration.Force,
		DryRun:         dryRunRequested,
		Committer:      Identity{Name: configuration.Committer.Name, Email: configuration.Committer.Email},
	})
	if keepaliveError != nil {
		return keepaliveError
	}

	if result.Pushed {
		fmt.Fprintf(command.OutOrStdout(), committedMessageTemplate, result.RepositoryPath, result.BranchName, result.IdleDuration.Round(time.Hour))
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), activeMessageTemplateConstant, result.RepositoryPath, result.IdleDuration.Round(time.Hour))
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

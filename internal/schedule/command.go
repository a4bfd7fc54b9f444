package schedule

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/dependencies"
	"github.com/forkward/forkward/internal/keepalive"
	"github.com/forkward/forkward/internal/shared"
	"github.com/forkward/forkward/internal/syncsvc"
)

const (
	commandUseConstant               = "daemon"
	commandShortDescriptionConstant  = "Run fork synchronization on a cron cadence"
	commandLongDescriptionConstant   = "daemon keeps running and synchronizes the fork with upstream on the configured cron schedule, optionally recording keepalive commits, until interrupted."
	scheduleFlagNameConstant         = "schedule"
	scheduleFlagDescriptionConstant  = "Cron expression controlling how often the fork is synchronized"
	runOnStartFlagNameConstant       = "run-on-start"
	runOnStartFlagDescription        = "Synchronize immediately before waiting for the first scheduled tick"
	missingSyncConfigurationMessage  = "daemon requires sync.repository, sync.branch, and sync.upstream to be configured"
	syncTaskNameConstant             = "sync"
	keepaliveTaskNameConstant        = "keepalive"
	syncSucceededLogMessageConstant  = "fork synchronized"
	logFieldRepositoryConstant       = "repository"
	logFieldBranchConstant           = "branch"
	logFieldBehindConstant           = "behind"
	logFieldPushedConstant           = "pushed"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the daemon command.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	GitExecutor                    shared.GitExecutor
	GitRepositoryManager           shared.GitRepositoryManager
	Clock                          shared.Clock
	HumanReadableLoggingProvider   func() bool
	ConfigurationProvider          func() CommandConfiguration
	SyncConfigurationProvider      func() syncsvc.CommandConfiguration
	KeepaliveConfigurationProvider func() keepalive.CommandConfiguration
}

// Build constructs the daemon command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.run,
	}

	command.Flags().String(scheduleFlagNameConstant, "", scheduleFlagDescriptionConstant)
	command.Flags().Bool(runOnStartFlagNameConstant, false, runOnStartFlagDescription)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := builder.resolveConfiguration()
	syncConfiguration := builder.resolveSyncConfiguration()
	keepaliveConfiguration := builder.resolveKeepaliveConfiguration()

	if len(syncConfiguration.RepositoryPath) == 0 || len(syncConfiguration.BranchName) == 0 || len(syncConfiguration.UpstreamURL) == 0 {
		return errors.New(missingSyncConfigurationMessage)
	}

	cronExpression := configuration.CronExpression
	if command.Flags().Changed(scheduleFlagNameConstant) {
		flagExpression, scheduleFlagError := command.Flags().GetString(scheduleFlagNameConstant)
		if scheduleFlagError != nil {
			return scheduleFlagError
		}
		cronExpression = strings.TrimSpace(flagExpression)
	}

	runOnStart := configuration.RunOnStart
	if command.Flags().Changed(runOnStartFlagNameConstant) {
		flagRunOnStart, runOnStartFlagError := command.Flags().GetBool(runOnStartFlagNameConstant)
		if runOnStartFlagError != nil {
			return runOnStartFlagError
		}
		runOnStart = flagRunOnStart
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

	syncService, syncCreationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: gitExecutor, RepositoryManager: repositoryManager})
	if syncCreationError != nil {
		return syncCreationError
	}

	tasks := []Task{{
		Name: syncTaskNameConstant,
		Execute: func(executionContext context.Context) error {
			result, syncError := syncService.Sync(executionContext, syncsvc.Options{
				RepositoryPath:     syncConfiguration.RepositoryPath,
				BranchName:         syncConfiguration.BranchName,
				UpstreamURL:        syncConfiguration.UpstreamURL,
				RemoteName:         syncConfiguration.RemoteName,
				UpstreamRemoteName: syncConfiguration.UpstreamRemoteName,
				RequireClean:       syncConfiguration.RequireClean,
				ForceWithLease:     syncConfiguration.ForceWithLease,
				Committer:          syncsvc.Identity{Name: syncConfiguration.Committer.Name, Email: syncConfiguration.Committer.Email},
			})
			if syncError != nil {
				return syncError
			}
			logger.Info(syncSucceededLogMessageConstant,
				zap.String(logFieldRepositoryConstant, result.RepositoryPath),
				zap.String(logFieldBranchConstant, result.BranchName),
				zap.Int(logFieldBehindConstant, result.BehindCount),
				zap.Bool(logFieldPushedConstant, result.Pushed),
			)
			return nil
		},
	}}

	if configuration.EnableKeepalive {
		keepaliveService, keepaliveCreationError := keepalive.NewService(keepalive.Dependencies{
			GitExecutor:       gitExecutor,
			RepositoryManager: repositoryManager,
			Clock:             builder.Clock,
		})
		if keepaliveCreationError != nil {
			return keepaliveCreationError
		}
		keepaliveRepository := keepaliveConfiguration.RepositoryPath
		if len(keepaliveRepository) == 0 {
			keepaliveRepository = syncConfiguration.RepositoryPath
		}
		keepaliveBranch := keepaliveConfiguration.BranchName
		if len(keepaliveBranch) == 0 {
			keepaliveBranch = syncConfiguration.BranchName
		}
		tasks = append(tasks, Task{
			Name: keepaliveTaskNameConstant,
			Execute: func(executionContext context.Context) error {
				_, keepaliveError := keepaliveService.Keepalive(executionContext, keepalive.Options{
					RepositoryPath: keepaliveRepository,
					BranchName:     keepaliveBranch,
					RemoteName:     keepaliveConfiguration.RemoteName,
					IdleThreshold:  keepaliveConfiguration.IdleThreshold,
					CommitMessage:  keepaliveConfiguration.CommitMessage,
					Force:          keepaliveConfiguration.Force,
					Committer:      keepalive.Identity{Name: keepaliveConfiguration.Committer.Name, Email: keepaliveConfiguration.Committer.Email},
				})
				return keepaliveError
			},
		})
	}

	signalContext, cancelSignals := signal.NotifyContext(command.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelSignals()

	scheduler := NewScheduler(logger)
	return scheduler.Run(signalContext, Options{
		CronExpression: cronExpression,
		RunOnStart:     runOnStart,
		Tasks:          tasks,
	})
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveSyncConfiguration() syncsvc.CommandConfiguration {
	if builder.SyncConfigurationProvider == nil {
		return syncsvc.DefaultCommandConfiguration()
	}
	return builder.SyncConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveKeepaliveConfiguration() keepalive.CommandConfiguration {
	if builder.KeepaliveConfigurationProvider == nil {
		return keepalive.DefaultCommandConfiguration()
	}
	return builder.KeepaliveConfigurationProvider().Sanitize()
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

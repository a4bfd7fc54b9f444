package workflow

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/dependencies"
	"github.com/forkward/forkward/internal/keepalive"
	"github.com/forkward/forkward/internal/shared"
	"github.com/forkward/forkward/internal/status"
	"github.com/forkward/forkward/internal/syncsvc"
)

const (
	commandUseConstant              = "workflow <file>"
	commandShortDescriptionConstant = "Run a declarative fork maintenance workflow"
	commandLongDescriptionConstant  = "workflow loads an ordered list of sync, keepalive, and status steps from a YAML file and executes them sequentially, stopping at the first failure."
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the workflow command.
type CommandBuilder struct {
	LoggerProvider                 LoggerProvider
	GitExecutor                    shared.GitExecutor
	GitRepositoryManager           shared.GitRepositoryManager
	MetadataResolver               status.MetadataResolver
	Clock                          shared.Clock
	HumanReadableLoggingProvider   func() bool
	SyncConfigurationProvider      func() syncsvc.CommandConfiguration
	KeepaliveConfigurationProvider func() keepalive.CommandConfiguration
	StatusConfigurationProvider    func() status.CommandConfiguration
}

// Build constructs the workflow command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration, loadError := LoadConfiguration(arguments[0])
	if loadError != nil {
		return loadError
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

	executor, creationError := NewExecutor(Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: repositoryManager,
		MetadataResolver:  metadataResolver,
		Clock:             builder.Clock,
		Logger:            logger,
		Output:            command.OutOrStdout(),
	}, Defaults{
		Sync:      builder.resolveSyncConfiguration(),
		Keepalive: builder.resolveKeepaliveConfiguration(),
		Status:    builder.resolveStatusConfiguration(),
	})
	if creationError != nil {
		return creationError
	}

	return executor.Execute(command.Context(), configuration)
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

func (builder *CommandBuilder) resolveStatusConfiguration() status.CommandConfiguration {
	if builder.StatusConfigurationProvider == nil {
		return status.DefaultCommandConfiguration()
	}
	return builder.StatusConfigurationProvider().Sanitize()
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

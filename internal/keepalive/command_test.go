package keepalive_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/keepalive"
)

func newConfiguredBuilder(executor *recordingGitExecutor, idle time.Duration) keepalive.CommandBuilder {
	referenceTime := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)
	return keepalive.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() keepalive.CommandConfiguration {
			configuration := keepalive.DefaultCommandConfiguration()
			configuration.RepositoryPath = testRepositoryPathConstant
			configuration.BranchName = testBranchNameConstant
			return configuration
		},
		GitExecutor:          executor,
		GitRepositoryManager: fixedCommitTimeManager{lastCommitTime: referenceTime.Add(-idle)},
		Clock:                fixedClock{currentTime: referenceTime},
	}
}

func TestBuildReturnsCommand(t *testing.T) {
	builder := keepalive.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	require.IsType(t, &cobra.Command{}, command)
}

func TestCommandRequiresRepositoryPath(t *testing.T) {
	builder := keepalive.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() keepalive.CommandConfiguration { return keepalive.CommandConfiguration{} },
		GitExecutor:           &recordingGitExecutor{},
		GitRepositoryManager:  fixedCommitTimeManager{},
	}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	require.Error(t, command.RunE(command, []string{}))
}

func TestCommandReportsActiveRepository(t *testing.T) {
	executor := &recordingGitExecutor{}
	builder := newConfiguredBuilder(executor, 5*24*time.Hour)
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)

	require.NoError(t, command.RunE(command, []string{}))
	require.Contains(t, outputBuffer.String(), "ACTIVE")
	require.Empty(t, executor.recordedCommands)
}

func TestCommandPushesKeepaliveCommit(t *testing.T) {
	executor := &recordingGitExecutor{}
	builder := newConfiguredBuilder(executor, 55*24*time.Hour)
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)

	require.NoError(t, command.RunE(command, []string{}))
	require.Contains(t, outputBuffer.String(), "KEEPALIVE")
	require.Len(t, executor.recordedCommands, 3)
}

func TestCommandThresholdFlagOverridesConfiguration(t *testing.T) {
	executor := &recordingGitExecutor{}
	builder := newConfiguredBuilder(executor, 5*24*time.Hour)
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	require.NoError(t, command.Flags().Set("threshold", "24h"))

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)

	require.NoError(t, command.RunE(command, []string{}))
	require.Contains(t, outputBuffer.String(), "KEEPALIVE")
}

package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/githubcli"
	"github.com/forkward/forkward/internal/syncsvc"
	"github.com/forkward/forkward/internal/workflow"
)

type noMetadataResolver struct{}

func (noMetadataResolver) ResolveRepoMetadata(context.Context, string) (githubcli.RepositoryMetadata, error) {
	return githubcli.RepositoryMetadata{}, errors.New("gh unavailable")
}

func TestBuildReturnsCommand(t *testing.T) {
	builder := workflow.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	require.IsType(t, &cobra.Command{}, command)
}

func TestCommandReportsUnreadableWorkflowFile(t *testing.T) {
	builder := workflow.CommandBuilder{
		LoggerProvider:       func() *zap.Logger { return zap.NewNop() },
		GitExecutor:          &workflowGitExecutor{},
		GitRepositoryManager: workflowRepositoryManager{},
	}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	require.Error(t, command.RunE(command, []string{filepath.Join(t.TempDir(), "missing.yaml")}))
}

func TestCommandExecutesWorkflowFile(t *testing.T) {
	workflowPath := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(workflowPath, []byte(`
steps:
  - operation: sync
  - operation: status
`), 0o600))

	gitExecutor := &workflowGitExecutor{}
	builder := workflow.CommandBuilder{
		LoggerProvider: func() *zap.Logger { return zap.NewNop() },
		SyncConfigurationProvider: func() syncsvc.CommandConfiguration {
			configuration := syncsvc.DefaultCommandConfiguration()
			configuration.RepositoryPath = testRepositoryPathConstant
			configuration.BranchName = testBranchNameConstant
			configuration.UpstreamURL = testUpstreamURLConstant
			return configuration
		},
		GitExecutor:          gitExecutor,
		GitRepositoryManager: workflowRepositoryManager{behindCount: 1, lastCommitTime: time.Now()},
		MetadataResolver:     noMetadataResolver{},
	}
	command, buildError := builder.Build()
	require.NoError(t, buildError)
	command.SetContext(context.Background())

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)

	require.NoError(t, command.RunE(command, []string{workflowPath}))
	require.Contains(t, outputBuffer.String(), "step 0: sync")
	require.Contains(t, outputBuffer.String(), "step 1: status")
}

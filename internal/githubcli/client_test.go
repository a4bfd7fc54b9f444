package githubcli_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/githubcli"
)

type stubGitHubExecutor struct {
	standardOutput   string
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	return execshell.ExecutionResult{StandardOutput: executor.standardOutput}, nil
}

func TestNewClientRequiresExecutor(t *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.ErrorIs(t, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(t, client)
}

func TestResolveRepoMetadata(t *testing.T) {
	executor := &stubGitHubExecutor{
		standardOutput: `{"nameWithOwner":"example/fork","description":"a fork","defaultBranchRef":{"name":"master"},"isArchived":false,"pushedAt":"2026-08-01T12:00:00Z"}`,
	}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(t, creationError)

	metadata, resolveError := client.ResolveRepoMetadata(context.Background(), "example/fork")
	require.NoError(t, resolveError)
	require.Equal(t, "example/fork", metadata.NameWithOwner)
	require.Equal(t, "master", metadata.DefaultBranch)
	require.False(t, metadata.Archived)
	require.Equal(t, time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC), metadata.LastPushed)

	require.Len(t, executor.recordedCommands, 1)
	require.Equal(t, []string{"repo", "view", "example/fork", "--json", "nameWithOwner,description,defaultBranchRef,isArchived,pushedAt"}, executor.recordedCommands[0].Arguments)
}

func TestResolveRepoMetadataValidatesRepository(t *testing.T) {
	client, creationError := githubcli.NewClient(&stubGitHubExecutor{})
	require.NoError(t, creationError)

	_, resolveError := client.ResolveRepoMetadata(context.Background(), "   ")
	invalidInput := githubcli.InvalidInputError{}
	require.ErrorAs(t, resolveError, &invalidInput)
}

func TestResolveRepoMetadataWrapsExecutionFailures(t *testing.T) {
	executor := &stubGitHubExecutor{executionError: errors.New("gh missing")}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(t, creationError)

	_, resolveError := client.ResolveRepoMetadata(context.Background(), "example/fork")
	operationError := githubcli.OperationError{}
	require.ErrorAs(t, resolveError, &operationError)
	require.ErrorContains(t, resolveError, "ResolveRepoMetadata operation failed")
}

func TestResolveRepoMetadataRejectsMalformedResponses(t *testing.T) {
	executor := &stubGitHubExecutor{standardOutput: "not json"}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(t, creationError)

	_, resolveError := client.ResolveRepoMetadata(context.Background(), "example/fork")
	require.ErrorContains(t, resolveError, "response decoding failed")
}

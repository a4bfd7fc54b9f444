package gitrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forkward/forkward/internal/execshell"
)

type scriptedGitExecutor struct {
	outputs          []string
	executionError   error
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if executor.executionError != nil {
		return execshell.ExecutionResult{}, executor.executionError
	}
	output := ""
	if len(executor.outputs) > 0 {
		output = executor.outputs[0]
		executor.outputs = executor.outputs[1:]
	}
	return execshell.ExecutionResult{StandardOutput: output}, nil
}

func TestNewRepositoryManagerRequiresExecutor(t *testing.T) {
	manager, creationError := NewRepositoryManager(nil)
	require.ErrorIs(t, creationError, ErrExecutorNotConfigured)
	require.Nil(t, manager)
}

func TestCheckCleanWorktree(t *testing.T) {
	testCases := []struct {
		name          string
		statusOutput  string
		expectedClean bool
	}{
		{name: "CleanWorktree", statusOutput: "\n", expectedClean: true},
		{name: "DirtyWorktree", statusOutput: " M internal/service.go\n", expectedClean: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			executor := &scriptedGitExecutor{outputs: []string{testCase.statusOutput}}
			manager, creationError := NewRepositoryManager(executor)
			require.NoError(t, creationError)

			clean, checkError := manager.CheckCleanWorktree(context.Background(), "/repo")
			require.NoError(t, checkError)
			require.Equal(t, testCase.expectedClean, clean)
			require.Equal(t, []string{"status", "--porcelain"}, executor.recordedCommands[0].Arguments)
		})
	}
}

func TestCountCommitsBetween(t *testing.T) {
	executor := &scriptedGitExecutor{outputs: []string{"4\n"}}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	commitCount, countError := manager.CountCommitsBetween(context.Background(), "/repo", "master", "upstream/master")
	require.NoError(t, countError)
	require.Equal(t, 4, commitCount)
	require.Equal(t, []string{"rev-list", "--count", "master..upstream/master"}, executor.recordedCommands[0].Arguments)
}

func TestCountCommitsBetweenRejectsUnexpectedOutput(t *testing.T) {
	executor := &scriptedGitExecutor{outputs: []string{"not-a-number"}}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	_, countError := manager.CountCommitsBetween(context.Background(), "/repo", "master", "upstream/master")
	require.Error(t, countError)
	parseError := &OutputParseError{}
	require.ErrorAs(t, countError, &parseError)
}

func TestLastCommitTime(t *testing.T) {
	executor := &scriptedGitExecutor{outputs: []string{"1700000000\n"}}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	lastCommitTime, timeError := manager.LastCommitTime(context.Background(), "/repo")
	require.NoError(t, timeError)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), lastCommitTime)
	require.Equal(t, []string{"log", "-1", "--format=%ct"}, executor.recordedCommands[0].Arguments)
}

func TestIsShallowRepository(t *testing.T) {
	testCases := []struct {
		name            string
		revParseOutput  string
		expectedShallow bool
	}{
		{name: "ShallowClone", revParseOutput: "true\n", expectedShallow: true},
		{name: "FullClone", revParseOutput: "false\n", expectedShallow: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			executor := &scriptedGitExecutor{outputs: []string{testCase.revParseOutput}}
			manager, creationError := NewRepositoryManager(executor)
			require.NoError(t, creationError)

			shallow, shallowError := manager.IsShallowRepository(context.Background(), "/repo")
			require.NoError(t, shallowError)
			require.Equal(t, testCase.expectedShallow, shallow)
		})
	}
}

func TestRemoteOperationsIssueExpectedSubcommands(t *testing.T) {
	executor := &scriptedGitExecutor{outputs: []string{"https://github.com/example/fork.git\n", "", ""}}
	manager, creationError := NewRepositoryManager(executor)
	require.NoError(t, creationError)

	remoteURL, lookupError := manager.GetRemoteURL(context.Background(), "/repo", "upstream")
	require.NoError(t, lookupError)
	require.Equal(t, "https://github.com/example/fork.git", remoteURL)

	require.NoError(t, manager.SetRemoteURL(context.Background(), "/repo", "upstream", "https://github.com/example/project.git"))
	require.NoError(t, manager.AddRemote(context.Background(), "/repo", "upstream", "https://github.com/example/project.git"))

	require.Equal(t, []string{"remote", "get-url", "upstream"}, executor.recordedCommands[0].Arguments)
	require.Equal(t, []string{"remote", "set-url", "upstream", "https://github.com/example/project.git"}, executor.recordedCommands[1].Arguments)
	require.Equal(t, []string{"remote", "add", "upstream", "https://github.com/example/project.git"}, executor.recordedCommands[2].Arguments)
}

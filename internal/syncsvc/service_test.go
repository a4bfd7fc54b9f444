package syncsvc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/syncsvc"
)

const (
	testRepositoryPathConstant = "/workspace/fork"
	testBranchNameConstant     = "master"
	testUpstreamURLConstant    = "https://github.com/origin-owner/project.git"
)

type scriptedGitExecutor struct {
	failures         map[string]error
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	if len(details.Arguments) > 0 {
		if failure, exists := executor.failures[details.Arguments[0]]; exists {
			return execshell.ExecutionResult{}, failure
		}
	}
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedGitExecutor) ExecuteGitHubCLI(_ context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func (executor *scriptedGitExecutor) commandsStartingWith(subcommand string) []execshell.CommandDetails {
	matched := make([]execshell.CommandDetails, 0, len(executor.recordedCommands))
	for _, recorded := range executor.recordedCommands {
		if len(recorded.Arguments) > 0 && recorded.Arguments[0] == subcommand {
			matched = append(matched, recorded)
		}
	}
	return matched
}

type stubRepositoryManager struct {
	cleanWorktree     bool
	shallowRepository bool
	behindCount       int
	aheadCount        int
	remoteURL         string
	remoteLookupError error
	addedRemotes      map[string]string
	updatedRemotes    map[string]string
}

func (manager *stubRepositoryManager) CheckCleanWorktree(context.Context, string) (bool, error) {
	return manager.cleanWorktree, nil
}

func (manager *stubRepositoryManager) GetCurrentBranch(context.Context, string) (string, error) {
	return testBranchNameConstant, nil
}

func (manager *stubRepositoryManager) GetRemoteURL(context.Context, string, string) (string, error) {
	if manager.remoteLookupError != nil {
		return "", manager.remoteLookupError
	}
	return manager.remoteURL, nil
}

func (manager *stubRepositoryManager) SetRemoteURL(_ context.Context, _ string, remoteName string, remoteURL string) error {
	if manager.updatedRemotes == nil {
		manager.updatedRemotes = map[string]string{}
	}
	manager.updatedRemotes[remoteName] = remoteURL
	return nil
}

func (manager *stubRepositoryManager) AddRemote(_ context.Context, _ string, remoteName string, remoteURL string) error {
	if manager.addedRemotes == nil {
		manager.addedRemotes = map[string]string{}
	}
	manager.addedRemotes[remoteName] = remoteURL
	return nil
}

func (manager *stubRepositoryManager) IsShallowRepository(context.Context, string) (bool, error) {
	return manager.shallowRepository, nil
}

func (manager *stubRepositoryManager) CountCommitsBetween(_ context.Context, _ string, fromReference string, _ string) (int, error) {
	if fromReference == testBranchNameConstant {
		return manager.behindCount, nil
	}
	return manager.aheadCount, nil
}

func (manager *stubRepositoryManager) ResolveHeadCommit(context.Context, string) (string, error) {
	return "abc123", nil
}

func (manager *stubRepositoryManager) LastCommitTime(context.Context, string) (time.Time, error) {
	return time.Time{}, nil
}

func syncedManager(behind int) *stubRepositoryManager {
	return &stubRepositoryManager{
		cleanWorktree: true,
		behindCount:   behind,
		aheadCount:    1,
		remoteURL:     testUpstreamURLConstant,
	}
}

func defaultOptions() syncsvc.Options {
	return syncsvc.Options{
		RepositoryPath: testRepositoryPathConstant,
		BranchName:     testBranchNameConstant,
		UpstreamURL:    testUpstreamURLConstant,
		RequireClean:   true,
		Committer:      syncsvc.Identity{Name: "Sync Bot", Email: "bot@example.com"},
	}
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	testCases := []struct {
		name          string
		dependencies  syncsvc.Dependencies
		expectedError error
	}{
		{
			name:          "missing_executor",
			dependencies:  syncsvc.Dependencies{RepositoryManager: &stubRepositoryManager{}},
			expectedError: syncsvc.ErrGitExecutorNotConfigured,
		},
		{
			name:          "missing_repository_manager",
			dependencies:  syncsvc.Dependencies{GitExecutor: &scriptedGitExecutor{}},
			expectedError: syncsvc.ErrRepositoryManagerNotConfigured,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			service, creationError := syncsvc.NewService(testCase.dependencies)
			require.ErrorIs(t, creationError, testCase.expectedError)
			require.Nil(t, service)
		})
	}
}

func TestSyncValidatesOptions(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(options *syncsvc.Options)
		expectedError error
	}{
		{
			name:          "missing_repository_path",
			mutate:        func(options *syncsvc.Options) { options.RepositoryPath = "   " },
			expectedError: syncsvc.ErrRepositoryPathRequired,
		},
		{
			name:          "missing_branch_name",
			mutate:        func(options *syncsvc.Options) { options.BranchName = "" },
			expectedError: syncsvc.ErrBranchNameRequired,
		},
		{
			name:          "missing_upstream_url",
			mutate:        func(options *syncsvc.Options) { options.UpstreamURL = "" },
			expectedError: syncsvc.ErrUpstreamURLRequired,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: &scriptedGitExecutor{}, RepositoryManager: syncedManager(0)})
			require.NoError(t, creationError)

			options := defaultOptions()
			testCase.mutate(&options)

			_, syncError := service.Sync(context.Background(), options)
			require.ErrorIs(t, syncError, testCase.expectedError)
		})
	}
}

func TestSyncUpToDateBranchLeavesRepositoryUntouched(t *testing.T) {
	executor := &scriptedGitExecutor{}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(0)})
	require.NoError(t, creationError)

	result, syncError := service.Sync(context.Background(), defaultOptions())
	require.NoError(t, syncError)
	require.Equal(t, 0, result.BehindCount)
	require.False(t, result.Rebased)
	require.False(t, result.Pushed)

	require.Empty(t, executor.commandsStartingWith("rebase"))
	require.Empty(t, executor.commandsStartingWith("push"))
}

func TestSyncRebasesThenForcePushes(t *testing.T) {
	executor := &scriptedGitExecutor{}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(3)})
	require.NoError(t, creationError)

	result, syncError := service.Sync(context.Background(), defaultOptions())
	require.NoError(t, syncError)
	require.Equal(t, 3, result.BehindCount)
	require.True(t, result.Rebased)
	require.True(t, result.Pushed)

	expectedArguments := [][]string{
		{"fetch", "--prune", "upstream"},
		{"checkout", "master"},
		{"rebase", "upstream/master"},
		{"push", "--force", "origin", "master"},
	}
	require.Len(t, executor.recordedCommands, len(expectedArguments))
	for commandIndex, expected := range expectedArguments {
		require.Equal(t, expected, executor.recordedCommands[commandIndex].Arguments)
		require.Equal(t, "0", executor.recordedCommands[commandIndex].EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	}

	rebaseEnvironment := executor.recordedCommands[2].EnvironmentVariables
	require.Equal(t, "Sync Bot", rebaseEnvironment["GIT_AUTHOR_NAME"])
	require.Equal(t, "Sync Bot", rebaseEnvironment["GIT_COMMITTER_NAME"])
	require.Equal(t, "bot@example.com", rebaseEnvironment["GIT_AUTHOR_EMAIL"])
	require.Equal(t, "bot@example.com", rebaseEnvironment["GIT_COMMITTER_EMAIL"])
}

func TestSyncHonorsForceWithLease(t *testing.T) {
	executor := &scriptedGitExecutor{}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(1)})
	require.NoError(t, creationError)

	options := defaultOptions()
	options.ForceWithLease = true

	_, syncError := service.Sync(context.Background(), options)
	require.NoError(t, syncError)

	pushCommands := executor.commandsStartingWith("push")
	require.Len(t, pushCommands, 1)
	require.Equal(t, []string{"push", "--force-with-lease", "origin", "master"}, pushCommands[0].Arguments)
}

func TestSyncAbortsConflictedRebaseWithoutPushing(t *testing.T) {
	rebaseFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 1},
	}
	executor := &scriptedGitExecutor{failures: map[string]error{"rebase": rebaseFailure}}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(2)})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.ErrorIs(t, syncError, syncsvc.ErrRebaseConflict)

	rebaseCommands := executor.commandsStartingWith("rebase")
	require.Len(t, rebaseCommands, 2)
	require.Equal(t, []string{"rebase", "--abort"}, rebaseCommands[1].Arguments)
	require.Empty(t, executor.commandsStartingWith("push"))
}

func TestSyncDryRunReportsWithoutMutating(t *testing.T) {
	executor := &scriptedGitExecutor{}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(5)})
	require.NoError(t, creationError)

	options := defaultOptions()
	options.DryRun = true

	result, syncError := service.Sync(context.Background(), options)
	require.NoError(t, syncError)
	require.Equal(t, 5, result.BehindCount)
	require.False(t, result.Rebased)
	require.False(t, result.Pushed)
	require.Empty(t, executor.commandsStartingWith("rebase"))
	require.Empty(t, executor.commandsStartingWith("push"))
}

func TestSyncRejectsDirtyWorktree(t *testing.T) {
	manager := syncedManager(4)
	manager.cleanWorktree = false
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: &scriptedGitExecutor{}, RepositoryManager: manager})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.ErrorIs(t, syncError, syncsvc.ErrWorktreeNotClean)
}

func TestSyncAddsMissingUpstreamRemote(t *testing.T) {
	manager := syncedManager(0)
	manager.remoteLookupError = execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit},
		Result:  execshell.ExecutionResult{ExitCode: 2},
	}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: &scriptedGitExecutor{}, RepositoryManager: manager})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.NoError(t, syncError)
	require.Equal(t, testUpstreamURLConstant, manager.addedRemotes["upstream"])
}

func TestSyncRepointsMismatchedUpstreamRemote(t *testing.T) {
	manager := syncedManager(0)
	manager.remoteURL = "https://github.com/someone-else/project.git"
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: &scriptedGitExecutor{}, RepositoryManager: manager})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.NoError(t, syncError)
	require.Equal(t, testUpstreamURLConstant, manager.updatedRemotes["upstream"])
}

func TestSyncUnshallowsBeforeRebasing(t *testing.T) {
	manager := syncedManager(1)
	manager.shallowRepository = true
	executor := &scriptedGitExecutor{}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: manager})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.NoError(t, syncError)

	fetchCommands := executor.commandsStartingWith("fetch")
	require.Len(t, fetchCommands, 1)
	require.Equal(t, []string{"fetch", "--prune", "--unshallow", "upstream"}, fetchCommands[0].Arguments)
}

func TestSyncWrapsUnderlyingFetchFailures(t *testing.T) {
	fetchFailure := errors.New("network unreachable")
	executor := &scriptedGitExecutor{failures: map[string]error{"fetch": fetchFailure}}
	service, creationError := syncsvc.NewService(syncsvc.Dependencies{GitExecutor: executor, RepositoryManager: syncedManager(1)})
	require.NoError(t, creationError)

	_, syncError := service.Sync(context.Background(), defaultOptions())
	require.ErrorIs(t, syncError, fetchFailure)
	require.Empty(t, executor.commandsStartingWith("rebase"))
}

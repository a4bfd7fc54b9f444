package workflow_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/keepalive"
	"github.com/forkward/forkward/internal/status"
	"github.com/forkward/forkward/internal/syncsvc"
	"github.com/forkward/forkward/internal/workflow"
)

const (
	testRepositoryPathConstant = "/workspace/fork"
	testBranchNameConstant     = "master"
	testUpstreamURLConstant    = "https://github.com/origin-owner/project.git"
)

type workflowGitExecutor struct {
	recordedCommands []execshell.CommandDetails
}

func (executor *workflowGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	return execshell.ExecutionResult{}, nil
}

func (executor *workflowGitExecutor) ExecuteGitHubCLI(_ context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

type workflowRepositoryManager struct {
	behindCount    int
	lastCommitTime time.Time
}

func (manager workflowRepositoryManager) CheckCleanWorktree(context.Context, string) (bool, error) {
	return true, nil
}

func (manager workflowRepositoryManager) GetCurrentBranch(context.Context, string) (string, error) {
	return testBranchNameConstant, nil
}

func (manager workflowRepositoryManager) GetRemoteURL(context.Context, string, string) (string, error) {
	return testUpstreamURLConstant, nil
}

func (manager workflowRepositoryManager) SetRemoteURL(context.Context, string, string, string) error {
	return nil
}

func (manager workflowRepositoryManager) AddRemote(context.Context, string, string, string) error {
	return nil
}

func (manager workflowRepositoryManager) IsShallowRepository(context.Context, string) (bool, error) {
	return false, nil
}

func (manager workflowRepositoryManager) CountCommitsBetween(_ context.Context, _ string, fromReference string, _ string) (int, error) {
	if fromReference == testBranchNameConstant {
		return manager.behindCount, nil
	}
	return 0, nil
}

func (manager workflowRepositoryManager) ResolveHeadCommit(context.Context, string) (string, error) {
	return "abc123", nil
}

func (manager workflowRepositoryManager) LastCommitTime(context.Context, string) (time.Time, error) {
	return manager.lastCommitTime, nil
}

func configuredDefaults() workflow.Defaults {
	syncConfiguration := syncsvc.DefaultCommandConfiguration()
	syncConfiguration.RepositoryPath = testRepositoryPathConstant
	syncConfiguration.BranchName = testBranchNameConstant
	syncConfiguration.UpstreamURL = testUpstreamURLConstant

	keepaliveConfiguration := keepalive.DefaultCommandConfiguration()
	keepaliveConfiguration.RepositoryPath = testRepositoryPathConstant
	keepaliveConfiguration.BranchName = testBranchNameConstant

	statusConfiguration := status.DefaultCommandConfiguration()
	statusConfiguration.RepositoryPath = testRepositoryPathConstant

	return workflow.Defaults{Sync: syncConfiguration, Keepalive: keepaliveConfiguration, Status: statusConfiguration}
}

func TestNewExecutorValidatesDependencies(t *testing.T) {
	_, missingExecutorError := workflow.NewExecutor(workflow.Dependencies{RepositoryManager: workflowRepositoryManager{}}, workflow.Defaults{})
	require.ErrorIs(t, missingExecutorError, workflow.ErrGitExecutorNotConfigured)

	_, missingManagerError := workflow.NewExecutor(workflow.Dependencies{GitExecutor: &workflowGitExecutor{}}, workflow.Defaults{})
	require.ErrorIs(t, missingManagerError, workflow.ErrRepositoryManagerNotConfigured)
}

func TestExecuteRunsStepsInOrder(t *testing.T) {
	gitExecutor := &workflowGitExecutor{}
	outputBuffer := &bytes.Buffer{}
	executor, creationError := workflow.NewExecutor(workflow.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: workflowRepositoryManager{behindCount: 2, lastCommitTime: time.Now()},
		Output:            outputBuffer,
	}, configuredDefaults())
	require.NoError(t, creationError)

	executionError := executor.Execute(context.Background(), workflow.Configuration{Steps: []workflow.StepConfiguration{
		{Operation: workflow.OperationTypeSync},
		{Operation: workflow.OperationTypeStatus},
	}})
	require.NoError(t, executionError)
	require.Contains(t, outputBuffer.String(), "step 0: sync /workspace/fork (master) behind 2 pushed true")
	require.Contains(t, outputBuffer.String(), "step 1: status /workspace/fork (master) behind 2 ahead 0")
}

func TestExecuteStepOptionsOverrideDefaults(t *testing.T) {
	gitExecutor := &workflowGitExecutor{}
	executor, creationError := workflow.NewExecutor(workflow.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: workflowRepositoryManager{behindCount: 1},
	}, configuredDefaults())
	require.NoError(t, creationError)

	executionError := executor.Execute(context.Background(), workflow.Configuration{Steps: []workflow.StepConfiguration{
		{Operation: workflow.OperationTypeSync, Options: map[string]any{"branch": "develop", "force_with_lease": true}},
	}})
	require.NoError(t, executionError)

	pushRecorded := false
	for _, recorded := range gitExecutor.recordedCommands {
		if recorded.Arguments[0] == "push" {
			pushRecorded = true
			require.Equal(t, []string{"push", "--force-with-lease", "origin", "develop"}, recorded.Arguments)
		}
	}
	require.True(t, pushRecorded)
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	gitExecutor := &workflowGitExecutor{}
	defaults := configuredDefaults()
	defaults.Sync.RepositoryPath = ""
	executor, creationError := workflow.NewExecutor(workflow.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: workflowRepositoryManager{},
	}, defaults)
	require.NoError(t, creationError)

	executionError := executor.Execute(context.Background(), workflow.Configuration{Steps: []workflow.StepConfiguration{
		{Operation: workflow.OperationTypeSync},
		{Operation: workflow.OperationTypeStatus},
	}})
	require.Error(t, executionError)
	require.ErrorIs(t, executionError, syncsvc.ErrRepositoryPathRequired)
	require.Empty(t, gitExecutor.recordedCommands)
}

func TestExecuteKeepaliveStepHonorsThresholdOverride(t *testing.T) {
	gitExecutor := &workflowGitExecutor{}
	outputBuffer := &bytes.Buffer{}
	executor, creationError := workflow.NewExecutor(workflow.Dependencies{
		GitExecutor:       gitExecutor,
		RepositoryManager: workflowRepositoryManager{lastCommitTime: time.Now().Add(-48 * time.Hour)},
		Output:            outputBuffer,
	}, configuredDefaults())
	require.NoError(t, creationError)

	executionError := executor.Execute(context.Background(), workflow.Configuration{Steps: []workflow.StepConfiguration{
		{Operation: workflow.OperationTypeKeepalive, Options: map[string]any{"idle_threshold": "24h"}},
	}})
	require.NoError(t, executionError)
	require.Contains(t, outputBuffer.String(), "pushed true")

	commitRecorded := false
	for _, recorded := range gitExecutor.recordedCommands {
		if recorded.Arguments[0] == "commit" {
			commitRecorded = true
		}
	}
	require.True(t, commitRecorded)
}

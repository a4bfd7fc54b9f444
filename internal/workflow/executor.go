package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/keepalive"
	"github.com/forkward/forkward/internal/shared"
	"github.com/forkward/forkward/internal/status"
	"github.com/forkward/forkward/internal/syncsvc"
)

const (
	executorGitMissingMessageConstant     = "git executor not configured"
	executorManagerMissingMessageConstant = "repository manager not configured"
	stepDecodeErrorTemplateConstant       = "step %d (%s): failed to decode options: %w"
	stepExecutionErrorTemplateConstant    = "step %d (%s): %w"
	syncStepMessageTemplateConstant       = "step %d: sync %s (%s) behind %d pushed %v\n"
	keepaliveStepMessageTemplateConstant  = "step %d: keepalive %s idle %s pushed %v\n"
	statusStepMessageTemplateConstant     = "step %d: status %s (%s) behind %d ahead %d\n"
	statusStepNoUpstreamMessageTemplate   = "step %d: status %s has no upstream remote\n"
	unknownOperationErrorTemplateConstant = "step %d references unknown operation %q"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(executorGitMissingMessageConstant)

// ErrRepositoryManagerNotConfigured indicates the repository manager dependency was missing.
var ErrRepositoryManagerNotConfigured = errors.New(executorManagerMissingMessageConstant)

// Defaults carries the base configurations that workflow step options override.
type Defaults struct {
	Sync      syncsvc.CommandConfiguration
	Keepalive keepalive.CommandConfiguration
	Status    status.CommandConfiguration
}

// Dependencies enumerates external collaborators required to execute workflows.
type Dependencies struct {
	GitExecutor       shared.GitExecutor
	RepositoryManager shared.GitRepositoryManager
	MetadataResolver  status.MetadataResolver
	Clock             shared.Clock
	Logger            *zap.Logger
	Output            io.Writer
}

// Executor runs workflow steps sequentially, stopping at the first failure.
type Executor struct {
	dependencies Dependencies
	defaults     Defaults
}

// NewExecutor constructs an Executor from the provided dependencies and defaults.
func NewExecutor(dependencies Dependencies, defaults Defaults) (*Executor, error) {
	if dependencies.GitExecutor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	if dependencies.RepositoryManager == nil {
		return nil, ErrRepositoryManagerNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	return &Executor{dependencies: dependencies, defaults: defaults}, nil
}

// Execute runs the configured steps in order. The first failing step aborts
// the remainder of the workflow.
func (executor *Executor) Execute(executionContext context.Context, configuration Configuration) error {
	for stepIndex, step := range configuration.Steps {
		var stepError error
		switch step.Operation {
		case OperationTypeSync:
			stepError = executor.executeSyncStep(executionContext, stepIndex, step)
		case OperationTypeKeepalive:
			stepError = executor.executeKeepaliveStep(executionContext, stepIndex, step)
		case OperationTypeStatus:
			stepError = executor.executeStatusStep(executionContext, stepIndex, step)
		default:
			stepError = fmt.Errorf(unknownOperationErrorTemplateConstant, stepIndex, step.Operation)
		}
		if stepError != nil {
			return stepError
		}
	}
	return nil
}

func (executor *Executor) executeSyncStep(executionContext context.Context, stepIndex int, step StepConfiguration) error {
	configuration := executor.defaults.Sync
	if decodeError := decodeStepOptions(step.Options, &configuration); decodeError != nil {
		return fmt.Errorf(stepDecodeErrorTemplateConstant, stepIndex, step.Operation, decodeError)
	}
	configuration = configuration.Sanitize()

	service, creationError := syncsvc.NewService(syncsvc.Dependencies{
		GitExecutor:       executor.dependencies.GitExecutor,
		RepositoryManager: executor.dependencies.RepositoryManager,
	})
	if creationError != nil {
		return creationError
	}

	result, syncError := service.Sync(executionContext, syncsvc.Options{
		RepositoryPath:     configuration.RepositoryPath,
		BranchName:         configuration.BranchName,
		UpstreamURL:        configuration.UpstreamURL,
		RemoteName:         configuration.RemoteName,
		UpstreamRemoteName: configuration.UpstreamRemoteName,
		RequireClean:       configuration.RequireClean,
		ForceWithLease:     configuration.ForceWithLease,
		Committer:          syncsvc.Identity{Name: configuration.Committer.Name, Email: configuration.Committer.Email},
	})
	if syncError != nil {
		return fmt.Errorf(stepExecutionErrorTemplateConstant, stepIndex, step.Operation, syncError)
	}

	fmt.Fprintf(executor.dependencies.Output, syncStepMessageTemplateConstant, stepIndex, result.RepositoryPath, result.BranchName, result.BehindCount, result.Pushed)
	return nil
}

func (executor *Executor) executeKeepaliveStep(executionContext context.Context, stepIndex int, step StepConfiguration) error {
	configuration := executor.defaults.Keepalive
	if decodeError := decodeStepOptions(step.Options, &configuration); decodeError != nil {
		return fmt.Errorf(stepDecodeErrorTemplateConstant, stepIndex, step.Operation, decodeError)
	}
	configuration = configuration.Sanitize()

	service, creationError := keepalive.NewService(keepalive.Dependencies{
		GitExecutor:       executor.dependencies.GitExecutor,
		RepositoryManager: executor.dependencies.RepositoryManager,
		Clock:             executor.dependencies.Clock,
	})
	if creationError != nil {
		return creationError
	}

	result, keepaliveError := service.Keepalive(executionContext, keepalive.Options{
		RepositoryPath: configuration.RepositoryPath,
		BranchName:     configuration.BranchName,
		RemoteName:     configuration.RemoteName,
		IdleThreshold:  configuration.IdleThreshold,
		CommitMessage:  configuration.CommitMessage,
		Force:          configuration.Force,
		Committer:      keepalive.Identity{Name: configuration.Committer.Name, Email: configuration.Committer.Email},
	})
	if keepaliveError != nil {
		return fmt.Errorf(stepExecutionErrorTemplateConstant, stepIndex, step.Operation, keepaliveError)
	}

	fmt.Fprintf(executor.dependencies.Output, keepaliveStepMessageTemplateConstant, stepIndex, result.RepositoryPath, result.IdleDuration.Round(time.Hour), result.Pushed)
	return nil
}

func (executor *Executor) executeStatusStep(executionContext context.Context, stepIndex int, step StepConfiguration) error {
	configuration := executor.defaults.Status
	if decodeError := decodeStepOptions(step.Options, &configuration); decodeError != nil {
		return fmt.Errorf(stepDecodeErrorTemplateConstant, stepIndex, step.Operation, decodeError)
	}
	configuration = configuration.Sanitize()

	service, creationError := status.NewService(status.Dependencies{
		GitExecutor:       executor.dependencies.GitExecutor,
		RepositoryManager: executor.dependencies.RepositoryManager,
		MetadataResolver:  executor.dependencies.MetadataResolver,
		Logger:            executor.dependencies.Logger,
	})
	if creationError != nil {
		return creationError
	}

	report, statusError := service.Status(executionContext, status.Options{
		RepositoryPath:     configuration.RepositoryPath,
		BranchName:         configuration.BranchName,
		UpstreamRemoteName: configuration.UpstreamRemoteName,
	})
	if statusError != nil {
		return fmt.Errorf(stepExecutionErrorTemplateConstant, stepIndex, step.Operation, statusError)
	}

	if report.UpstreamMissing {
		fmt.Fprintf(executor.dependencies.Output, statusStepNoUpstreamMessageTemplate, stepIndex, report.RepositoryPath)
		return nil
	}
	fmt.Fprintf(executor.dependencies.Output, statusStepMessageTemplateConstant, stepIndex, report.RepositoryPath, report.BranchName, report.BehindCount, report.AheadCount)
	return nil
}

func decodeStepOptions(options map[string]any, target any) error {
	if len(options) == 0 {
		return nil
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     target,
	})
	if decoderError != nil {
		return decoderError
	}
	return decoder.Decode(options)
}

package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/githubauth"
)

const (
	repoSubcommandConstant                  = "repo"
	viewSubcommandConstant                  = "view"
	jsonFlagConstant                        = "--json"
	repoViewJSONFieldsConstant              = "nameWithOwner,description,defaultBranchRef,isArchived,pushedAt"
	requiredValueMessageConstant            = "value required"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	repositoryFieldNameConstant             = "repository"
	repositoryMetadataOperationNameConstant = OperationName("ResolveRepoMetadata")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	NameWithOwner string
	Description   string
	DefaultBranch string
	Archived      bool
	LastPushed    time.Time
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

// ErrExecutorNotConfigured indicates the client was constructed without an executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the failed operation.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// NewClient constructs a Client after validating the executor dependency.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

type repositoryViewResponse struct {
	NameWithOwner    string `json:"nameWithOwner"`
	Description      string `json:"description"`
	DefaultBranchRef struct {
		Name string `json:"name"`
	} `json:"defaultBranchRef"`
	IsArchived bool      `json:"isArchived"`
	PushedAt   time.Time `json:"pushedAt"`
}

// ResolveRepoMetadata retrieves repository details for the provided owner/name identifier.
func (client *Client) ResolveRepoMetadata(executionContext context.Context, repository string) (RepositoryMetadata, error) {
	trimmedRepository := strings.TrimSpace(repository)
	if len(trimmedRepository) == 0 {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{repoSubcommandConstant, viewSubcommandConstant, trimmedRepository, jsonFlagConstant, repoViewJSONFieldsConstant},
	}
	if token, tokenAvailable := githubauth.ResolveToken(nil); tokenAvailable {
		commandDetails.EnvironmentVariables = map[string]string{githubauth.EnvGitHubCLIToken: token}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, commandDetails)
	if executionError != nil {
		return RepositoryMetadata{}, OperationError{Operation: repositoryMetadataOperationNameConstant, Cause: executionError}
	}

	var decodedResponse repositoryViewResponse
	if decodeError := json.Unmarshal([]byte(executionResult.StandardOutput), &decodedResponse); decodeError != nil {
		return RepositoryMetadata{}, fmt.Errorf(responseDecodingErrorTemplateConstant, repositoryMetadataOperationNameConstant, decodeError)
	}

	return RepositoryMetadata{
		NameWithOwner: decodedResponse.NameWithOwner,
		Description:   decodedResponse.Description,
		DefaultBranch: decodedResponse.DefaultBranchRef.Name,
		Archived:      decodedResponse.IsArchived,
		LastPushed:    decodedResponse.PushedAt,
	}, nil
}

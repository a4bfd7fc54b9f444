// Package dependencies constructs default collaborators for forkward commands.
package dependencies

import (
	"go.uber.org/zap"

	"github.com/forkward/forkward/internal/execshell"
	"github.com/forkward/forkward/internal/githubcli"
	"github.com/forkward/forkward/internal/gitrepo"
	"github.com/forkward/forkward/internal/shared"
)

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, logger *zap.Logger, humanReadableLogging bool) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveGitRepositoryManager returns the provided repository manager or constructs one from the executor.
func ResolveGitRepositoryManager(existing shared.GitRepositoryManager, executor shared.GitExecutor) (shared.GitRepositoryManager, error) {
	if existing != nil {
		return existing, nil
	}
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveGitHubClient returns the provided client or creates a GitHub CLI-backed implementation.
func ResolveGitHubClient(existing *githubcli.Client, executor shared.GitExecutor) (*githubcli.Client, error) {
	if existing != nil {
		return existing, nil
	}
	return githubcli.NewClient(executor)
}

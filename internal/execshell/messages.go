package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitFetchSubcommandNameConstant    = "fetch"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitRebaseSubcommandNameConstant   = "rebase"
	gitPushSubcommandNameConstant     = "push"
	gitCommitSubcommandNameConstant   = "commit"
	gitRemoteSubcommandNameConstant   = "remote"
	gitRemoteAddSubcommandConstant    = "add"
	gitRemoteGetURLSubcommandConstant = "get-url"
	gitRemoteSetURLSubcommandConstant = "set-url"
	gitRebaseAbortFlagConstant        = "--abort"
	gitForceFlagConstant              = "--force"
	gitForceWithLeaseFlagConstant     = "--force-with-lease"
	gitAllowEmptyFlagConstant         = "--allow-empty"
	gitMessageFlagConstant            = "-m"
)

const (
	gitFetchStartTemplateConstant              = "Fetching %s in %s"
	gitFetchSuccessTemplateConstant            = "Fetched %s in %s"
	gitFetchFailureTemplateConstant            = "Failed to fetch %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant   = "Unable to fetch %s in %s: %s"
	gitFetchAllRemotesLabelConstant            = "all remotes"
	gitCheckoutStartTemplateConstant           = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant         = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant         = "Failed to switch %s to branch %s (exit code %d%s)"
	gitCheckoutExecutionFailureTemplate        = "Unable to switch %s to branch %s: %s"
	gitRebaseStartTemplateConstant             = "Rebasing onto %s in %s"
	gitRebaseSuccessTemplateConstant           = "Rebased onto %s in %s"
	gitRebaseFailureTemplateConstant           = "Failed to rebase onto %s in %s (exit code %d%s)"
	gitRebaseExecutionFailureTemplateConstant  = "Unable to rebase onto %s in %s: %s"
	gitRebaseAbortStartTemplateConstant        = "Aborting rebase in %s"
	gitRebaseAbortSuccessTemplateConstant      = "Aborted rebase in %s"
	gitRebaseAbortFailureTemplateConstant      = "Failed to abort rebase in %s (exit code %d%s)"
	gitRebaseAbortExecutionFailureTemplate     = "Unable to abort rebase in %s: %s"
	gitPushStartTemplateConstant               = "Pushing %s to %s from %s"
	gitPushForcedStartTemplateConstant         = "Force-pushing %s to %s from %s"
	gitPushSuccessTemplateConstant             = "Pushed %s to %s from %s"
	gitPushForcedSuccessTemplateConstant       = "Force-pushed %s to %s from %s"
	gitPushFailureTemplateConstant             = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant    = "Unable to push %s to %s from %s: %s"
	gitCommitStartTemplateConstant             = "Creating commit in %s with message %q"
	gitCommitEmptyStartTemplateConstant        = "Creating empty commit in %s with message %q"
	gitCommitSuccessTemplateConstant           = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant           = "Failed to create commit in %s with message %q (exit code %d%s)"
	gitCommitExecutionFailureTemplateConstant  = "Unable to create commit in %s with message %q: %s"
	gitRemoteLookupStartTemplateConstant       = "Checking %s remote for %s"
	gitRemoteLookupSuccessTemplateConstant     = "%s remote for %s points to %s"
	gitRemoteLookupFailureTemplateConstant     = "Failed to read %s remote for %s (exit code %d%s)"
	gitRemoteLookupExecutionFailureTemplate    = "Unable to read %s remote for %s: %s"
	gitRemoteUpdateStartTemplateConstant       = "Updating %s remote for %s to %s"
	gitRemoteUpdateSuccessTemplateConstant     = "%s remote for %s now points to %s"
	gitRemoteUpdateFailureTemplateConstant     = "Failed to update %s remote for %s to %s (exit code %d%s)"
	gitRemoteUpdateExecutionFailureTemplate    = "Unable to update %s remote for %s to %s: %s"
	gitRemoteAdditionStartTemplateConstant     = "Adding %s remote for %s pointing to %s"
	gitRemoteAdditionSuccessTemplateConstant   = "Added %s remote for %s pointing to %s"
	gitRemoteAdditionFailureTemplateConstant   = "Failed to add %s remote for %s pointing to %s (exit code %d%s)"
	gitRemoteAdditionExecutionFailureTemplate  = "Unable to add %s remote for %s pointing to %s: %s"
	githubRepoViewStartTemplateConstant        = "Retrieving repository details for %s"
	githubRepoViewSuccessTemplateConstant      = "Retrieved repository details for %s"
	githubRepoViewFailureTemplateConstant      = "Failed to retrieve repository details for %s (exit code %d%s)"
	githubRepoViewExecutionFailureTemplate     = "Unable to retrieve repository details for %s: %s"
	githubRepoSubcommandNameConstant           = "repo"
	githubRepoViewSubcommandNameConstant       = "view"
	githubCurrentRepositoryLabelConstant       = "current repository"
	githubRepoViewMinimumArgumentCountConstant = 2
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		return formatter.describeGitMessage(command, result, failure, stage)
	case CommandGitHub:
		return formatter.describeGitHubMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitFetchSubcommandNameConstant:
		return formatter.describeGitFetchMessage(command, result, failure, stage)
	case gitCheckoutSubcommandNameConstant:
		return formatter.describeGitCheckoutMessage(command, result, failure, stage)
	case gitRebaseSubcommandNameConstant:
		return formatter.describeGitRebaseMessage(command, result, failure, stage)
	case gitPushSubcommandNameConstant:
		return formatter.describeGitPushMessage(command, result, failure, stage)
	case gitCommitSubcommandNameConstant:
		return formatter.describeGitCommitMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitFetchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.extractFirstNonFlagArgument(command.Details.Arguments[1:])
	trimmedRemote := strings.TrimSpace(remoteName)
	if len(trimmedRemote) == 0 {
		trimmedRemote = gitFetchAllRemotesLabelConstant
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitFetchStartTemplateConstant, trimmedRemote, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitFetchSuccessTemplateConstant, trimmedRemote, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitFetchFailureTemplateConstant, trimmedRemote, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitFetchExecutionFailureTemplateConstant, trimmedRemote, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCheckoutMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	branchName := formatter.ensureValue(formatter.argumentAtIndex(command.Details.Arguments, 1))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCheckoutStartTemplateConstant, workingDirectory, branchName)
	case messageStageSuccess:
		return fmt.Sprintf(gitCheckoutSuccessTemplateConstant, workingDirectory, branchName)
	case messageStageFailure:
		return fmt.Sprintf(gitCheckoutFailureTemplateConstant, workingDirectory, branchName, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCheckoutExecutionFailureTemplate, workingDirectory, branchName, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRebaseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments

	if containsArgument(arguments, gitRebaseAbortFlagConstant) {
		switch stage {
		case messageStageStart:
			return fmt.Sprintf(gitRebaseAbortStartTemplateConstant, workingDirectory)
		case messageStageSuccess:
			return fmt.Sprintf(gitRebaseAbortSuccessTemplateConstant, workingDirectory)
		case messageStageFailure:
			return fmt.Sprintf(gitRebaseAbortFailureTemplateConstant, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
		case messageStageExecutionFailure:
			return fmt.Sprintf(gitRebaseAbortExecutionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
		}
	}

	baseReference := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitRebaseStartTemplateConstant, baseReference, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitRebaseSuccessTemplateConstant, baseReference, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitRebaseFailureTemplateConstant, baseReference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitRebaseExecutionFailureTemplateConstant, baseReference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitPushMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	arguments := command.Details.Arguments
	forced := containsArgument(arguments, gitForceFlagConstant) || containsArgument(arguments, gitForceWithLeaseFlagConstant)
	remoteName := formatter.ensureValue(formatter.extractFirstNonFlagArgument(arguments[1:]))
	branchReference := formatter.ensureValue(formatter.extractSecondNonFlagArgument(arguments[1:]))

	switch stage {
	case messageStageStart:
		if forced {
			return fmt.Sprintf(gitPushForcedStartTemplateConstant, branchReference, remoteName, workingDirectory)
		}
		return fmt.Sprintf(gitPushStartTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageSuccess:
		if forced {
			return fmt.Sprintf(gitPushForcedSuccessTemplateConstant, branchReference, remoteName, workingDirectory)
		}
		return fmt.Sprintf(gitPushSuccessTemplateConstant, branchReference, remoteName, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitPushFailureTemplateConstant, branchReference, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitPushExecutionFailureTemplateConstant, branchReference, remoteName, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitCommitMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	commitMessage := formatter.extractCommitMessage(command.Details.Arguments)
	allowEmpty := containsArgument(command.Details.Arguments, gitAllowEmptyFlagConstant)

	switch stage {
	case messageStageStart:
		if allowEmpty {
			return fmt.Sprintf(gitCommitEmptyStartTemplateConstant, workingDirectory, commitMessage)
		}
		return fmt.Sprintf(gitCommitStartTemplateConstant, workingDirectory, commitMessage)
	case messageStageSuccess:
		return fmt.Sprintf(gitCommitSuccessTemplateConstant, workingDirectory, commitMessage)
	case messageStageFailure:
		return fmt.Sprintf(gitCommitFailureTemplateConstant, workingDirectory, commitMessage, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitCommitExecutionFailureTemplateConstant, workingDirectory, commitMessage, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)
	remoteName := formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))

	if len(arguments) > 1 {
		subcommand := strings.TrimSpace(arguments[1])
		switch subcommand {
		case gitRemoteGetURLSubcommandConstant:
			remoteURL := strings.TrimSpace(result.StandardOutput)
			switch stage {
			case messageStageStart:
				return fmt.Sprintf(gitRemoteLookupStartTemplateConstant, remoteName, workingDirectory)
			case messageStageSuccess:
				return fmt.Sprintf(gitRemoteLookupSuccessTemplateConstant, remoteName, workingDirectory, formatter.ensureValue(remoteURL))
			case messageStageFailure:
				return fmt.Sprintf(gitRemoteLookupFailureTemplateConstant, remoteName, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
			case messageStageExecutionFailure:
				return fmt.Sprintf(gitRemoteLookupExecutionFailureTemplate, remoteName, workingDirectory, formatter.describeFailure(failure))
			}
		case gitRemoteSetURLSubcommandConstant:
			targetURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
			switch stage {
			case messageStageStart:
				return fmt.Sprintf(gitRemoteUpdateStartTemplateConstant, remoteName, workingDirectory, targetURL)
			case messageStageSuccess:
				return fmt.Sprintf(gitRemoteUpdateSuccessTemplateConstant, remoteName, workingDirectory, targetURL)
			case messageStageFailure:
				return fmt.Sprintf(gitRemoteUpdateFailureTemplateConstant, remoteName, workingDirectory, targetURL, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
			case messageStageExecutionFailure:
				return fmt.Sprintf(gitRemoteUpdateExecutionFailureTemplate, remoteName, workingDirectory, targetURL, formatter.describeFailure(failure))
			}
		case gitRemoteAddSubcommandConstant:
			targetURL := formatter.ensureValue(formatter.argumentAtIndex(arguments, 3))
			switch stage {
			case messageStageStart:
				return fmt.Sprintf(gitRemoteAdditionStartTemplateConstant, remoteName, workingDirectory, targetURL)
			case messageStageSuccess:
				return fmt.Sprintf(gitRemoteAdditionSuccessTemplateConstant, remoteName, workingDirectory, targetURL)
			case messageStageFailure:
				return fmt.Sprintf(gitRemoteAdditionFailureTemplateConstant, remoteName, workingDirectory, targetURL, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
			case messageStageExecutionFailure:
				return fmt.Sprintf(gitRemoteAdditionExecutionFailureTemplate, remoteName, workingDirectory, targetURL, formatter.describeFailure(failure))
			}
		}
	}

	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitHubMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	arguments := command.Details.Arguments
	if len(arguments) < githubRepoViewMinimumArgumentCountConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	primaryArgument := strings.TrimSpace(arguments[0])
	secondaryArgument := strings.TrimSpace(arguments[1])
	if primaryArgument != githubRepoSubcommandNameConstant || secondaryArgument != githubRepoViewSubcommandNameConstant {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	repository := strings.TrimSpace(formatter.argumentAtIndex(arguments, 2))
	if len(repository) == 0 || strings.HasPrefix(repository, "-") {
		repository = githubCurrentRepositoryLabelConstant
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(githubRepoViewStartTemplateConstant, repository)
	case messageStageSuccess:
		return fmt.Sprintf(githubRepoViewSuccessTemplateConstant, repository)
	case messageStageFailure:
		return fmt.Sprintf(githubRepoViewFailureTemplateConstant, repository, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(githubRepoViewExecutionFailureTemplate, repository, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return strings.TrimSpace(arguments[index])
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) extractFirstNonFlagArgument(arguments []string) string {
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractSecondNonFlagArgument(arguments []string) string {
	seenFirst := false
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		if !seenFirst {
			seenFirst = true
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) extractCommitMessage(arguments []string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == gitMessageFlagConstant && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return fallbackUnknownValueLabelConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

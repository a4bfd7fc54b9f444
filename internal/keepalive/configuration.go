package keepalive

import (
	"strings"
	"time"
)

// IdentityConfiguration captures the commit identity for keepalive commits.
type IdentityConfiguration struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// CommandConfiguration captures configuration values for the keepalive command.
type CommandConfiguration struct {
	RepositoryPath string                `mapstructure:"repository"`
	BranchName     string                `mapstructure:"branch"`
	RemoteName     string                `mapstructure:"remote"`
	IdleThreshold  time.Duration         `mapstructure:"idle_threshold"`
	CommitMessage  string                `mapstructure:"message"`
	Force          bool                  `mapstructure:"force"`
	Committer      IdentityConfiguration `mapstructure:"committer"`
}

// DefaultCommandConfiguration provides baseline configuration values for keepalive.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName:    "origin",
		IdleThreshold: defaultIdleThresholdConstant,
		CommitMessage: defaultCommitMessageConstant,
	}
}

// DefaultConfigurationValues exposes keepalive defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".remote":         defaults.RemoteName,
		prefix + ".idle_threshold": defaults.IdleThreshold.String(),
		prefix + ".message":        defaults.CommitMessage,
		prefix + ".force":          defaults.Force,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	sanitized.Committer.Name = strings.TrimSpace(configuration.Committer.Name)
	sanitized.Committer.Email = strings.TrimSpace(configuration.Committer.Email)

	return sanitized
}

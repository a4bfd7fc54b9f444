package status

import "strings"

// CommandConfiguration captures configuration values for the status command.
type CommandConfiguration struct {
	RepositoryPath     string `mapstructure:"repository"`
	BranchName         string `mapstructure:"branch"`
	UpstreamRemoteName string `mapstructure:"upstream_remote"`
}

// DefaultCommandConfiguration provides baseline configuration values for status.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		UpstreamRemoteName: "upstream",
	}
}

// DefaultConfigurationValues exposes status defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".upstream_remote": defaults.UpstreamRemoteName,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)
	sanitized.UpstreamRemoteName = strings.TrimSpace(configuration.UpstreamRemoteName)

	return sanitized
}

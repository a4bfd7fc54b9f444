package syncsvc

import "strings"

// IdentityConfiguration captures the synthetic commit identity for rebased commits.
type IdentityConfiguration struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// CommandConfiguration captures configuration values for the sync command.
type CommandConfiguration struct {
	RepositoryPath     string                `mapstructure:"repository"`
	BranchName         string                `mapstructure:"branch"`
	UpstreamURL        string                `mapstructure:"upstream"`
	RemoteName         string                `mapstructure:"remote"`
	UpstreamRemoteName string                `mapstructure:"upstream_remote"`
	RequireClean       bool                  `mapstructure:"require_clean"`
	ForceWithLease     bool                  `mapstructure:"force_with_lease"`
	Committer          IdentityConfiguration `mapstructure:"committer"`
}

// DefaultCommandConfiguration provides baseline configuration values for sync.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RemoteName:         "origin",
		UpstreamRemoteName: "upstream",
		RequireClean:       true,
	}
}

// DefaultConfigurationValues exposes sync defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".remote":           defaults.RemoteName,
		prefix + ".upstream_remote":  defaults.UpstreamRemoteName,
		prefix + ".require_clean":    defaults.RequireClean,
		prefix + ".force_with_lease": defaults.ForceWithLease,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration

	sanitized.RepositoryPath = strings.TrimSpace(configuration.RepositoryPath)
	sanitized.BranchName = strings.TrimSpace(configuration.BranchName)
	sanitized.UpstreamURL = strings.TrimSpace(configuration.UpstreamURL)
	sanitized.RemoteName = strings.TrimSpace(configuration.RemoteName)
	sanitized.UpstreamRemoteName = strings.TrimSpace(configuration.UpstreamRemoteName)
	sanitized.Committer.Name = strings.TrimSpace(configuration.Committer.Name)
	sanitized.Committer.Email = strings.TrimSpace(configuration.Committer.Email)

	return sanitized
}

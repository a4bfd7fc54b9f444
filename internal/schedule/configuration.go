package schedule

import "strings"

// CommandConfiguration captures configuration values for the daemon command.
type CommandConfiguration struct {
	CronExpression  string `mapstructure:"schedule"`
	RunOnStart      bool   `mapstructure:"run_on_start"`
	EnableKeepalive bool   `mapstructure:"keepalive"`
}

// DefaultCommandConfiguration provides baseline configuration values for the daemon.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		CronExpression:  "17 4 * * *",
		EnableKeepalive: true,
	}
}

// DefaultConfigurationValues exposes daemon defaults keyed beneath the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + ".schedule":     defaults.CronExpression,
		prefix + ".run_on_start": defaults.RunOnStart,
		prefix + ".keepalive":    defaults.EnableKeepalive,
	}
}

// Sanitize trims configuration values without applying implicit defaults.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.CronExpression = strings.TrimSpace(configuration.CronExpression)
	return sanitized
}

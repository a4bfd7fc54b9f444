// Package utils bundles configuration loading, logger construction, and
// command-context helpers shared by every forkward command.
package utils

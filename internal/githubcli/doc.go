// Package githubcli resolves repository metadata through the GitHub CLI.
package githubcli

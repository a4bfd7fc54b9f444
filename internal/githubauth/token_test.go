package githubauth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveTokenPrefersProvidedEnvironment(t *testing.T) {
	token, found := ResolveToken(map[string]string{
		EnvGitHubToken:    "from-github-token",
		EnvGitHubCLIToken: "from-gh-token",
	})
	require.True(t, found)
	require.Equal(t, "from-gh-token", token)
}

func TestResolveTokenIgnoresBlankValues(t *testing.T) {
	t.Setenv(EnvGitHubCLIToken, "")
	t.Setenv(EnvGitHubToken, "  ")
	t.Setenv(EnvGitHubAPIToken, "fallback-token")

	token, found := ResolveToken(map[string]string{EnvGitHubCLIToken: "   "})
	require.True(t, found)
	require.Equal(t, "fallback-token", token)
}

func TestResolveTokenReportsMissing(t *testing.T) {
	t.Setenv(EnvGitHubCLIToken, "")
	t.Setenv(EnvGitHubToken, "")
	t.Setenv(EnvGitHubAPIToken, "")

	_, found := ResolveToken(nil)
	require.False(t, found)
}

package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkward/forkward/internal/workflow"
)

func writeWorkflowFile(t *testing.T, contents string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "workflow.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(contents), 0o600))
	return filePath
}

func TestLoadConfigurationRequiresPath(t *testing.T) {
	_, loadError := workflow.LoadConfiguration("   ")
	require.Error(t, loadError)
}

func TestLoadConfigurationReportsMissingFile(t *testing.T) {
	_, loadError := workflow.LoadConfiguration(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, loadError, "failed to load workflow configuration")
}

func TestLoadConfigurationParsesSteps(t *testing.T) {
	filePath := writeWorkflowFile(t, `
steps:
  - operation: sync
    with:
      branch: develop
  - operation: keepalive
  - operation: status
`)

	configuration, loadError := workflow.LoadConfiguration(filePath)
	require.NoError(t, loadError)
	require.Len(t, configuration.Steps, 3)
	require.Equal(t, workflow.OperationTypeSync, configuration.Steps[0].Operation)
	require.Equal(t, "develop", configuration.Steps[0].Options["branch"])
	require.Equal(t, workflow.OperationTypeKeepalive, configuration.Steps[1].Operation)
	require.Equal(t, workflow.OperationTypeStatus, configuration.Steps[2].Operation)
}

func TestLoadConfigurationAcceptsNestedWorkflowSection(t *testing.T) {
	filePath := writeWorkflowFile(t, `
workflow:
  steps:
    - operation: sync
`)

	configuration, loadError := workflow.LoadConfiguration(filePath)
	require.NoError(t, loadError)
	require.Len(t, configuration.Steps, 1)
}

func TestLoadConfigurationRejectsEmptySteps(t *testing.T) {
	filePath := writeWorkflowFile(t, "steps: []\n")

	_, loadError := workflow.LoadConfiguration(filePath)
	require.ErrorContains(t, loadError, "at least one step")
}

func TestLoadConfigurationRejectsMissingOperation(t *testing.T) {
	filePath := writeWorkflowFile(t, `
steps:
  - with:
      branch: develop
`)

	_, loadError := workflow.LoadConfiguration(filePath)
	require.ErrorContains(t, loadError, "missing operation name")
}

func TestLoadConfigurationRejectsUnknownOperation(t *testing.T) {
	filePath := writeWorkflowFile(t, `
steps:
  - operation: deploy
`)

	_, loadError := workflow.LoadConfiguration(filePath)
	require.ErrorContains(t, loadError, `unknown operation "deploy"`)
}

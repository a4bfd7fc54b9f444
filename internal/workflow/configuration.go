package workflow

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configurationLoadErrorTemplateConstant        = "failed to load workflow configuration: %w"
	configurationParseErrorTemplateConstant       = "failed to parse workflow configuration: %w"
	configurationPathRequiredMessageConstant      = "workflow configuration path must be provided"
	configurationEmptyStepsMessageConstant        = "workflow configuration must define at least one step"
	configurationOperationMissingMessageConstant  = "workflow step missing operation name"
	configurationUnknownOperationTemplateConstant = "workflow step %d references unknown operation %q"
)

// OperationType identifies supported workflow operations.
type OperationType string

// Supported workflow operations.
const (
	OperationTypeSync      OperationType = OperationType("sync")
	OperationTypeKeepalive OperationType = OperationType("keepalive")
	OperationTypeStatus    OperationType = OperationType("status")
)

// Configuration describes the ordered workflow steps loaded from YAML.
type Configuration struct {
	Steps []StepConfiguration `yaml:"steps"`
}

// StepConfiguration associates an operation type with declarative option overrides.
type StepConfiguration struct {
	Operation OperationType  `yaml:"operation"`
	Options   map[string]any `yaml:"with"`
}

// LoadConfiguration reads the workflow definition from disk and performs basic validation.
func LoadConfiguration(filePath string) (Configuration, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Configuration{}, errors.New(configurationPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Configuration{}, fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
	}

	var configuration Configuration
	if unmarshalError := yaml.Unmarshal(contentBytes, &configuration); unmarshalError != nil {
		return Configuration{}, fmt.Errorf(configurationParseErrorTemplateConstant, unmarshalError)
	}

	if len(configuration.Steps) == 0 {
		var wrapper struct {
			Workflow Configuration `yaml:"workflow"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && len(wrapper.Workflow.Steps) > 0 {
			configuration = wrapper.Workflow
		}
	}

	if len(configuration.Steps) == 0 {
		return Configuration{}, errors.New(configurationEmptyStepsMessageConstant)
	}

	for stepIndex := range configuration.Steps {
		trimmedOperation := strings.TrimSpace(string(configuration.Steps[stepIndex].Operation))
		if len(trimmedOperation) == 0 {
			return Configuration{}, errors.New(configurationOperationMissingMessageConstant)
		}
		operation := OperationType(trimmedOperation)
		switch operation {
		case OperationTypeSync, OperationTypeKeepalive, OperationTypeStatus:
			configuration.Steps[stepIndex].Operation = operation
		default:
			return Configuration{}, fmt.Errorf(configurationUnknownOperationTemplateConstant, stepIndex, trimmedOperation)
		}
	}

	return configuration, nil
}

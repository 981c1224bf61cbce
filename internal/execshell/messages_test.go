package execshell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandMessageFormatter(testInstance *testing.T) {
	lintCommand := ShellCommand{
		Name:    CommandAnsibleLint,
		Details: CommandDetails{Arguments: []string{"-f", "json"}, WorkingDirectory: "/workspace/collection"},
	}
	genericCommand := ShellCommand{
		Name:    CommandName("yamllint"),
		Details: CommandDetails{Arguments: []string{"-s", "."}},
	}

	testCases := []struct {
		name     string
		build    func(formatter CommandMessageFormatter) string
		expected string
	}{
		{
			name:     "lint_started",
			build:    func(formatter CommandMessageFormatter) string { return formatter.BuildStartedMessage(lintCommand) },
			expected: "Linting /workspace/collection",
		},
		{
			name: "lint_clean",
			build: func(formatter CommandMessageFormatter) string {
				return formatter.BuildSuccessMessage(lintCommand, ExecutionResult{ExitCode: 0})
			},
			expected: "Lint of /workspace/collection reported no violations",
		},
		{
			name: "lint_violations",
			build: func(formatter CommandMessageFormatter) string {
				return formatter.BuildSuccessMessage(lintCommand, ExecutionResult{ExitCode: 2})
			},
			expected: "Lint of /workspace/collection reported violations",
		},
		{
			name: "lint_failure",
			build: func(formatter CommandMessageFormatter) string {
				return formatter.BuildFailureMessage(lintCommand, ExecutionResult{ExitCode: 1, StandardError: " broken config \n"})
			},
			expected: "Lint of /workspace/collection failed with exit code 1: broken config",
		},
		{
			name: "lint_execution_failure_without_directory",
			build: func(formatter CommandMessageFormatter) string {
				return formatter.BuildExecutionFailureMessage(ShellCommand{Name: CommandAnsibleLint}, errors.New("not found"))
			},
			expected: "Unable to lint current directory: not found",
		},
		{
			name:     "generic_started",
			build:    func(formatter CommandMessageFormatter) string { return formatter.BuildStartedMessage(genericCommand) },
			expected: "Running yamllint -s .",
		},
		{
			name: "generic_execution_failure_without_cause",
			build: func(formatter CommandMessageFormatter) string {
				return formatter.BuildExecutionFailureMessage(genericCommand, nil)
			},
			expected: "yamllint -s . failed: unknown error",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, testCase.build(CommandMessageFormatter{}))
		})
	}
}

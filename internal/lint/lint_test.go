package lint_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/execshell"
	"github.com/temirov/roleaudit/internal/lint"
)

const sampleLintOutputConstant = `[
  {"check_name": "yaml[line-length]", "description": "line too long"},
  {"check_name": "name[missing]"},
  {"check_name": "yaml[line-length]"},
  {"rule": {"id": "fqcn[action-core]", "name": "fqcn"}},
  {"rule": {"name": "no-changed-when"}},
  {"rule": {"id": "", "name": "no-changed-when"}},
  {"description": "no rule at all"}
]`

type stubExecutor struct {
	result          execshell.ExecutionResult
	err             error
	recordedCommand execshell.ShellCommand
	recordedCodes   []int
}

func (executor *stubExecutor) Execute(executionContext context.Context, command execshell.ShellCommand, acceptedExitCodes ...int) (execshell.ExecutionResult, error) {
	executor.recordedCommand = command
	executor.recordedCodes = acceptedExitCodes
	return executor.result, executor.err
}

func TestParseResults(testInstance *testing.T) {
	testCases := []struct {
		name          string
		output        string
		expectedCount int
	}{
		{name: "list", output: sampleLintOutputConstant, expectedCount: 7},
		{name: "empty_list", output: "[]", expectedCount: 0},
		{name: "invalid_json", output: "WARNING: something odd", expectedCount: 0},
		{name: "object_instead_of_list", output: `{"check_name": "x"}`, expectedCount: 0},
		{name: "empty_output", output: "", expectedCount: 0},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Len(subTest, lint.ParseResults(testCase.output), testCase.expectedCount)
		})
	}
}

func TestSummarize(testInstance *testing.T) {
	summary := lint.Summarize(lint.ParseResults(sampleLintOutputConstant))
	require.Equal(testInstance, 6, summary.Total)
	require.Equal(testInstance, []lint.Violation{
		{Rule: "no-changed-when", Count: 2},
		{Rule: "yaml[line-length]", Count: 2},
		{Rule: "fqcn[action-core]", Count: 1},
		{Rule: "name[missing]", Count: 1},
	}, summary.Violations)
	require.Equal(testInstance, summary.Violations[:2], summary.Top(2))
	require.Len(testInstance, summary.Top(10), 4)

	require.Equal(testInstance,
		"## ansible-lint violation summary\n- no-changed-when: 2\n- yaml[line-length]: 2\n- fqcn[action-core]: 1\n- name[missing]: 1\n\nTotal violations: 6\n",
		summary.RenderMarkdown(),
	)
	require.Equal(testInstance, "## ansible-lint violation summary\n\nTotal violations: 0\n", lint.Summarize(nil).RenderMarkdown())
}

func TestStatusRoundTrip(testInstance *testing.T) {
	summary := lint.Summarize(lint.ParseResults(sampleLintOutputConstant))
	encoded, encodeError := summary.Status().Marshal()
	require.NoError(testInstance, encodeError)

	status, parseError := lint.ParseStatus(encoded)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, 6, status.Total)
	require.Equal(testInstance, summary.Violations, status.Summary().Violations)

	emptyEncoded, emptyError := lint.Summary{}.Status().Marshal()
	require.NoError(testInstance, emptyError)
	require.Equal(testInstance, "violations: {}\ntotal: 0\n", string(emptyEncoded))
}

func TestServiceRun(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	executor := &stubExecutor{result: execshell.ExecutionResult{StandardOutput: sampleLintOutputConstant, ExitCode: 2}}

	result, runError := lint.NewService(executor, nil, zap.NewNop()).Run(context.Background(), rootPath, lint.Configuration{})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 6, result.Summary.Total)

	require.Equal(testInstance, execshell.CommandAnsibleLint, executor.recordedCommand.Name)
	require.Equal(testInstance, []string{"-f", "json"}, executor.recordedCommand.Details.Arguments)
	require.Equal(testInstance, rootPath, executor.recordedCommand.Details.WorkingDirectory)
	require.Equal(testInstance, []int{0, 2}, executor.recordedCodes)

	markdownData, markdownError := os.ReadFile(filepath.Join(rootPath, "lint_status.md"))
	require.NoError(testInstance, markdownError)
	require.Contains(testInstance, string(markdownData), "Total violations: 6")

	statusData, statusError := os.ReadFile(filepath.Join(rootPath, "lint_status.yaml"))
	require.NoError(testInstance, statusError)
	status, parseError := lint.ParseStatus(statusData)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, map[string]int{"no-changed-when": 2, "yaml[line-length]": 2, "fqcn[action-core]": 1, "name[missing]": 1}, status.Violations)
}

func TestServiceRunPropagatesExecutorFailure(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	executor := &stubExecutor{err: execshell.CommandFailedError{Command: execshell.ShellCommand{Name: "custom-lint"}, Result: execshell.ExecutionResult{ExitCode: 1}}}

	_, runError := lint.NewService(executor, nil, nil).Run(context.Background(), rootPath, lint.Configuration{Executable: "custom-lint"})
	var failedError execshell.CommandFailedError
	require.True(testInstance, errors.As(runError, &failedError))
	require.Equal(testInstance, execshell.CommandName("custom-lint"), executor.recordedCommand.Name)
	require.NoFileExists(testInstance, filepath.Join(rootPath, "lint_status.yaml"))
}

func TestCommandWritesStatus(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	builder := lint.CommandBuilder{
		Executor: &stubExecutor{result: execshell.ExecutionResult{StandardOutput: "not json"}},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"--root", rootPath})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, filepath.Join(rootPath, "lint_status.md")+" generated (0 violations)\n", outputBuffer.String())
	require.FileExists(testInstance, filepath.Join(rootPath, "lint_status.yaml"))
}

func TestConfigurationSanitize(testInstance *testing.T) {
	require.Equal(testInstance, lint.DefaultConfiguration(), lint.Configuration{Executable: "  "}.Sanitize())
	require.Equal(testInstance, "/opt/bin/ansible-lint", lint.Configuration{Executable: " /opt/bin/ansible-lint "}.Sanitize().Executable)
	require.Len(testInstance, lint.DefaultConfigurationValues("lint."), 4)
}

package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner executes commands as operating system processes.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes command and waits for it. A non-zero exit is reported through
// ExecutionResult.ExitCode; the error is reserved for processes that could not run.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	executable := exec.CommandContext(executionContext, string(command.Name), append([]string{}, command.Details.Arguments...)...)
	executable.Dir = command.Details.WorkingDirectory
	executable.Env = mergeEnvironment(command.Details.EnvironmentVariables)

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executable.Stdout = &standardOutputBuffer
	executable.Stderr = &standardErrorBuffer
	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	result := ExecutionResult{}
	runError := executable.Run()
	result.StandardOutput = standardOutputBuffer.String()
	result.StandardError = standardErrorBuffer.String()
	if runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		result.ExitCode = exitError.ExitCode()
	}
	return result, nil
}

// mergeEnvironment appends overrides to the process environment in key order.
// A nil result keeps the inherited environment.
func mergeEnvironment(overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := append([]string{}, os.Environ()...)
	for _, key := range keys {
		merged = append(merged, key+environmentAssignmentSeparatorConstant+overrides[key])
	}
	return merged
}

package execshell

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// CommandName identifies an external executable.
type CommandName string

// Supported commands.
const (
	CommandAnsibleLint CommandName = "ansible-lint"
)

const (
	ansibleLintFindingsExitCodeConstant = 2

	commandFailedErrorTemplateConstant    = "%s exited with code %d"
	commandExecutionErrorTemplateConstant = "%s could not be executed: %v"

	commandLogFieldConstant  = "command"
	exitCodeLogFieldConstant = "exit_code"
)

// ErrLoggerNotConfigured indicates the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New("shell executor requires a logger")

// ErrCommandRunnerNotConfigured indicates the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New("shell executor requires a command runner")

// CommandDetails describes the invocation of a command.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand pairs a command name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a process that exited with an unaccepted code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure.
func (failedError CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode)
}

// CommandExecutionError reports a process that could not be started or awaited.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands and logs their lifecycle.
type ShellExecutor struct {
	logger    *zap.Logger
	runner    CommandRunner
	formatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner}, nil
}

// Execute runs command. Exit codes outside acceptedExitCodes yield CommandFailedError;
// with no accepted codes only zero succeeds.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand, acceptedExitCodes ...int) (ExecutionResult, error) {
	commandField := zap.String(commandLogFieldConstant, string(command.Name))
	executor.logger.Info(executor.formatter.BuildStartedMessage(command), commandField)

	result, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		executor.logger.Error(executor.formatter.BuildExecutionFailureMessage(command, runError), commandField, zap.Error(runError))
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	if !exitCodeAccepted(result.ExitCode, acceptedExitCodes) {
		executor.logger.Warn(executor.formatter.BuildFailureMessage(command, result), commandField, zap.Int(exitCodeLogFieldConstant, result.ExitCode))
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Info(executor.formatter.BuildSuccessMessage(command, result), commandField, zap.Int(exitCodeLogFieldConstant, result.ExitCode))
	return result, nil
}

// AnsibleLintAcceptedExitCodes lists the exit codes of a completed lint run.
// Exit code 2 reports violations and counts as success.
func AnsibleLintAcceptedExitCodes() []int {
	return []int{0, ansibleLintFindingsExitCodeConstant}
}

func exitCodeAccepted(exitCode int, acceptedExitCodes []int) bool {
	if len(acceptedExitCodes) == 0 {
		return exitCode == 0
	}
	for _, acceptedExitCode := range acceptedExitCodes {
		if exitCode == acceptedExitCode {
			return true
		}
	}
	return false
}

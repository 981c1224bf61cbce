package lint

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/execshell"
	"github.com/temirov/roleaudit/internal/filesystem"
)

const (
	jsonFormatFlagConstant   = "-f"
	jsonFormatValueConstant  = "json"
	statusPermissionConstant = 0o644

	runLintErrorTemplate     = "run %s: %w"
	writeStatusErrorTemplate = "write lint status %s: %w"

	lintCompletedMessageConstant = "lint completed"
	rootLogFieldConstant         = "root"
	totalLogFieldConstant        = "total"
	unparsedOutputMessage        = "lint output was not a JSON list; treating as no results"
)

// Executor runs external commands.
type Executor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand, acceptedExitCodes ...int) (execshell.ExecutionResult, error)
}

// Result describes a completed lint run.
type Result struct {
	Summary      Summary
	StatusPath   string
	MarkdownPath string
}

// Service runs the linter and persists its status.
type Service struct {
	executor   Executor
	fileSystem filesystem.FileSystem
	logger     *zap.Logger
}

// NewService constructs a Service.
func NewService(executor Executor, fileSystem filesystem.FileSystem, logger *zap.Logger) *Service {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{executor: executor, fileSystem: fileSystem, logger: logger}
}

// Run lints rootPath and writes the YAML and Markdown status files into it.
func (service *Service) Run(executionContext context.Context, rootPath string, configuration Configuration) (Result, error) {
	sanitized := configuration.Sanitize()
	command := execshell.ShellCommand{
		Name: execshell.CommandName(sanitized.Executable),
		Details: execshell.CommandDetails{
			Arguments:        []string{jsonFormatFlagConstant, jsonFormatValueConstant},
			WorkingDirectory: rootPath,
		},
	}

	executionResult, executionError := service.executor.Execute(executionContext, command, execshell.AnsibleLintAcceptedExitCodes()...)
	if executionError != nil {
		return Result{}, fmt.Errorf(runLintErrorTemplate, sanitized.Executable, executionError)
	}

	results := ParseResults(executionResult.StandardOutput)
	if results == nil {
		service.logger.Debug(unparsedOutputMessage, zap.String(rootLogFieldConstant, rootPath))
	}
	summary := Summarize(results)

	result := Result{
		Summary:      summary,
		StatusPath:   filepath.Join(rootPath, sanitized.StatusFileName),
		MarkdownPath: filepath.Join(rootPath, sanitized.StatusMarkdownFileName),
	}
	if writeError := service.fileSystem.ReplaceFile(result.MarkdownPath, []byte(summary.RenderMarkdown()), statusPermissionConstant); writeError != nil {
		return Result{}, fmt.Errorf(writeStatusErrorTemplate, result.MarkdownPath, writeError)
	}
	encodedStatus, encodeError := summary.Status().Marshal()
	if encodeError != nil {
		return Result{}, encodeError
	}
	if writeError := service.fileSystem.ReplaceFile(result.StatusPath, encodedStatus, statusPermissionConstant); writeError != nil {
		return Result{}, fmt.Errorf(writeStatusErrorTemplate, result.StatusPath, writeError)
	}

	service.logger.Info(lintCompletedMessageConstant, zap.String(rootLogFieldConstant, rootPath), zap.Int(totalLogFieldConstant, summary.Total))
	return result, nil
}

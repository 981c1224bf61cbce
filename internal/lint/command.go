package lint

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/execshell"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/utils/flags"
	pathutils "github.com/temirov/roleaudit/internal/utils/path"
)

const (
	commandUseConstant              = "lint [root]"
	commandShortDescriptionConstant = "Run ansible-lint and record violation counts"
	commandLongDescriptionConstant  = "lint runs ansible-lint -f json in <root>, counts violations per rule and writes lint_status.md and lint_status.yaml."

	lintWrittenTemplateConstant = "%s generated (%d violations)\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the lint configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the lint cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Executor              Executor
	FileSystem            filesystem.FileSystem
	HomeExpander          *pathutils.HomeExpander
}

// Build constructs the cobra command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
	}
	rootValue := flags.BindRootFlag(command)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		logger := builder.resolveLogger()
		executor, executorError := builder.resolveExecutor(logger)
		if executorError != nil {
			return executorError
		}

		rootPath := pathutils.NewRootPathResolver(builder.HomeExpander).Resolve(flags.RootCandidates(arguments, *rootValue)...)
		executionContext := command.Context()
		if executionContext == nil {
			executionContext = context.Background()
		}

		result, runError := NewService(executor, builder.FileSystem, logger).Run(executionContext, rootPath, builder.resolveConfiguration())
		if runError != nil {
			return runError
		}
		_, writeError := fmt.Fprintf(command.OutOrStdout(), lintWrittenTemplateConstant, result.MarkdownPath, result.Summary.Total)
		return writeError
	}

	return command, nil
}

func (builder *CommandBuilder) resolveExecutor(logger *zap.Logger) (Executor, error) {
	if builder.Executor != nil {
		return builder.Executor, nil
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider()
}

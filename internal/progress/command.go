package progress

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/lint"
	"github.com/temirov/roleaudit/internal/utils/flags"
	pathutils "github.com/temirov/roleaudit/internal/utils/path"
)

const (
	commandUseConstant              = "progress [root]"
	commandShortDescriptionConstant = "Summarize validation score and lint violations"
	commandLongDescriptionConstant  = "progress reads the audit summary and the lint status under <root> and writes progress.md. Missing inputs count as zero."

	progressWrittenTemplateConstant = "%s updated\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the progress cobra command.
type CommandBuilder struct {
	LoggerProvider             LoggerProvider
	AuditConfigurationProvider audit.ConfigurationProvider
	LintConfigurationProvider  lint.ConfigurationProvider
	FileSystem                 filesystem.FileSystem
	HomeExpander               *pathutils.HomeExpander
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
		rootPath := pathutils.NewRootPathResolver(builder.HomeExpander).Resolve(flags.RootCandidates(arguments, *rootValue)...)
		auditConfiguration := audit.DefaultConfiguration()
		if builder.AuditConfigurationProvider != nil {
			auditConfiguration = builder.AuditConfigurationProvider()
		}
		lintConfiguration := lint.DefaultConfiguration()
		if builder.LintConfigurationProvider != nil {
			lintConfiguration = builder.LintConfigurationProvider()
		}

		tracker := NewTracker(builder.FileSystem, builder.resolveLogger())
		inputs, loadError := tracker.Load(rootPath, auditConfiguration, lintConfiguration)
		if loadError != nil {
			return loadError
		}
		progressPath, writeError := tracker.Write(rootPath, inputs, lintConfiguration)
		if writeError != nil {
			return writeError
		}
		_, printError := fmt.Fprintf(command.OutOrStdout(), progressWrittenTemplateConstant, progressPath)
		return printError
	}

	return command, nil
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

package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/render"
	"github.com/temirov/roleaudit/internal/utils/flags"
	pathutils "github.com/temirov/roleaudit/internal/utils/path"
	"github.com/temirov/roleaudit/internal/watch"
)

const (
	commandUseConstant              = "audit [root]"
	commandShortDescriptionConstant = "Validate roles and write the validation report"
	commandLongDescriptionConstant  = "audit checks every role under <root>/roles for its directory skeleton, malformed data files, task names, tags and handler notifications, placeholder content and undefined variables, then writes a Markdown report with a score."

	reportFlagNameConstant   = "report"
	reportFlagUsageConstant  = "Report path (defaults to <root>/validation_report.md)"
	summaryFlagNameConstant  = "summary"
	summaryFlagUsageConstant = "Also write the YAML summary next to the report"
	renderFlagNameConstant   = "render"
	renderFlagUsageConstant  = "Print the report rendered for the terminal"
	watchFlagNameConstant    = "watch"
	watchFlagUsageConstant   = "Re-run the audit whenever files under the root change"

	reportWrittenTemplateConstant = "Validation report written to %s\n"
	renderWordWrapConstant        = 100
	temporaryFilePatternTemplate  = "%s.tmp.*"
	watchStartedMessageConstant   = "watching for changes"
	watchRerunFailedMessage       = "audit re-run failed"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the audit configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the audit cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	FileSystem            filesystem.FileSystem
	HomeExpander          *pathutils.HomeExpander
}

// CommandOptions captures the parsed flags of a single invocation.
type CommandOptions struct {
	RootPath     string
	ReportPath   string
	WriteSummary bool
	Render       bool
	Watch        bool
}

// Build constructs the cobra command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	options := &CommandOptions{}

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(1),
	}

	rootValue := flags.BindRootFlag(command)
	command.Flags().StringVar(&options.ReportPath, reportFlagNameConstant, "", reportFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &options.WriteSummary, summaryFlagNameConstant, false, summaryFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &options.Render, renderFlagNameConstant, false, renderFlagUsageConstant)
	flags.AddToggleFlag(command.Flags(), &options.Watch, watchFlagNameConstant, false, watchFlagUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		resolver := pathutils.NewRootPathResolver(builder.HomeExpander)
		resolvedOptions := *options
		resolvedOptions.RootPath = resolver.Resolve(flags.RootCandidates(arguments, *rootValue)...)
		if len(resolvedOptions.ReportPath) > 0 {
			resolvedOptions.ReportPath = resolver.Resolve(resolvedOptions.ReportPath)
		}
		return builder.run(command, resolvedOptions)
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, options CommandOptions) error {
	logger := builder.resolveLogger()
	configuration := builder.resolveConfiguration()
	service := NewService(builder.FileSystem, logger)

	executionContext := command.Context()
	if executionContext == nil {
		executionContext = context.Background()
	}

	runOnce := func(runContext context.Context) (RunResult, error) {
		runOptions := RunOptions{ReportPath: options.ReportPath}
		if options.WriteSummary {
			runOptions.SummaryPath = filepath.Join(options.RootPath, configuration.Sanitize().SummaryFileName)
		}
		result, runError := service.Run(runContext, options.RootPath, configuration, runOptions)
		if len(result.ReportPath) > 0 && (runError == nil || result.Terminal) {
			if outputError := builder.printResult(command.OutOrStdout(), result, options.Render); outputError != nil {
				return result, outputError
			}
		}
		return result, runError
	}

	result, runError := runOnce(executionContext)
	if !options.Watch {
		return runError
	}
	if runError != nil && !errors.Is(runError, ErrRolesDirectoryMissing) {
		return runError
	}

	return builder.watch(executionContext, logger, result, configuration, func(watchContext context.Context) error {
		_, rerunError := runOnce(watchContext)
		if rerunError != nil {
			logger.Warn(watchRerunFailedMessage, zap.Error(rerunError))
		}
		return nil
	})
}

func (builder *CommandBuilder) watch(executionContext context.Context, logger *zap.Logger, result RunResult, configuration Configuration, rerun func(context.Context) error) error {
	sanitized := configuration.Sanitize()
	ignoredNames := []string{filepath.Base(result.ReportPath), sanitized.SummaryFileName}
	ignoredPatterns := []string{".git"}
	for _, ignoredName := range ignoredNames {
		ignoredPatterns = append(ignoredPatterns, ignoredName, fmt.Sprintf(temporaryFilePatternTemplate, ignoredName))
	}

	watcher, watcherError := watch.New(watch.Configuration{
		RootPath:        result.RootPath,
		IgnoredPatterns: ignoredPatterns,
		Logger:          logger,
		OnChange: func(watchContext context.Context, changedPaths []string) error {
			return rerun(watchContext)
		},
	})
	if watcherError != nil {
		return watcherError
	}

	logger.Info(watchStartedMessageConstant, zap.String(rootLogFieldConstant, result.RootPath))
	return watcher.Run(executionContext)
}

func (builder *CommandBuilder) printResult(writer io.Writer, result RunResult, renderReport bool) error {
	if renderReport {
		rendered, renderError := render.NewMarkdownRenderer(render.StyleAuto, renderWordWrapConstant).Render(result.Report.Render())
		if renderError != nil {
			return renderError
		}
		if _, writeError := io.WriteString(writer, rendered); writeError != nil {
			return writeError
		}
		if _, writeError := fmt.Fprintln(writer, render.ScoreBadge(result.Score(), ScoreCeilingConstant, result.Terminal)); writeError != nil {
			return writeError
		}
	}
	_, writeError := fmt.Fprintf(writer, reportWrittenTemplateConstant, result.ReportPath)
	return writeError
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

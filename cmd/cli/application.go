package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/lint"
	"github.com/temirov/roleaudit/internal/progress"
	"github.com/temirov/roleaudit/internal/server"
	"github.com/temirov/roleaudit/internal/utils"
	"github.com/temirov/roleaudit/internal/utils/flags"
	pathutils "github.com/temirov/roleaudit/internal/utils/path"
)

const (
	applicationNameConstant                 = "roleaudit"
	applicationShortDescriptionConstant     = "Audit Ansible role collections"
	applicationLongDescriptionConstant      = "roleaudit validates the roles of an Ansible collection, cross-references their variables, flags placeholder content and writes a scored Markdown report. It also serves audits over HTTP and tracks ansible-lint progress."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	auditConfigurationPrefixConstant        = "audit."
	serverConfigurationPrefixConstant       = "server."
	lintConfigurationPrefixConstant         = "lint."
	serverAPIKeyConfigKeyConstant           = "server.api_key"
	apiKeyEnvironmentAliasConstant          = "AGENT_API_KEY"
	environmentPrefixConstant               = "ROLEAUDIT"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	rootCommandDebugMessageConstant         = "roleaudit invoked without a subcommand"
	logFieldArgumentsConstant               = "arguments"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Audit  audit.Configuration            `mapstructure:"audit"`
	Server server.Configuration           `mapstructure:"server"`
	Lint   lint.Configuration             `mapstructure:"lint"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() (*Application, error) {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.BindEnvironmentAliases(serverAPIKeyConfigKeyConstant, apiKeyEnvironmentAliasConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			application.logger.Debug(rootCommandDebugMessageConstant, zap.Strings(logFieldArgumentsConstant, arguments))
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelInfo), utils.LogLevels(), logLevelFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatStructured), utils.LogFormats(), logFormatFlagUsageConstant))

	fileSystem := filesystem.NewOSFileSystem()
	homeExpander := pathutils.NewHomeExpander()
	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	auditConfigurationProvider := func() audit.Configuration {
		return application.configuration.Audit
	}
	lintConfigurationProvider := func() lint.Configuration {
		return application.configuration.Lint
	}

	builders := []struct {
		name  string
		build func() (*cobra.Command, error)
	}{
		{
			name: "audit",
			build: (&audit.CommandBuilder{
				LoggerProvider:        loggerProvider,
				ConfigurationProvider: auditConfigurationProvider,
				FileSystem:            fileSystem,
				HomeExpander:          homeExpander,
			}).Build,
		},
		{
			name: "serve",
			build: (&server.CommandBuilder{
				LoggerProvider: loggerProvider,
				ConfigurationProvider: func() server.Configuration {
					return application.configuration.Server
				},
				AuditConfigurationProvider: auditConfigurationProvider,
				FileSystem:                 fileSystem,
			}).Build,
		},
		{
			name: "lint",
			build: (&lint.CommandBuilder{
				LoggerProvider:        loggerProvider,
				ConfigurationProvider: lintConfigurationProvider,
				FileSystem:            fileSystem,
				HomeExpander:          homeExpander,
			}).Build,
		},
		{
			name: "progress",
			build: (&progress.CommandBuilder{
				LoggerProvider:             loggerProvider,
				AuditConfigurationProvider: auditConfigurationProvider,
				LintConfigurationProvider:  lintConfigurationProvider,
				FileSystem:                 fileSystem,
				HomeExpander:               homeExpander,
			}).Build,
		},
	}

	for _, builder := range builders {
		subcommand, buildError := builder.build()
		if buildError != nil {
			return nil, fmt.Errorf(commandBuildErrorTemplateConstant, builder.name, buildError)
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand

	return application, nil
}

// Command exposes the root command, for instance to set arguments and outputs.
func (application *Application) Command() *cobra.Command {
	return application.rootCommand
}

// Configuration returns the configuration resolved by the last execution.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// ExecuteContext runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application and runs it until completion or until the process is interrupted.
func Execute() error {
	application, buildError := NewApplication()
	if buildError != nil {
		return buildError
	}

	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	return application.ExecuteContext(signalContext)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range audit.DefaultConfigurationValues(auditConfigurationPrefixConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range server.DefaultConfigurationValues(serverConfigurationPrefixConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	for configurationKey, configurationValue := range lint.DefaultConfigurationValues(lintConfigurationPrefixConstant) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration := ApplicationConfiguration{}
	metadata, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &loadedConfiguration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		canonicalLevel, validationError := flags.ValidateChoice(logLevelFlagNameConstant, application.logLevelFlagValue, utils.LogLevels())
		if validationError != nil {
			return validationError
		}
		loadedConfiguration.Common.LogLevel = canonicalLevel
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		canonicalFormat, validationError := flags.ValidateChoice(logFormatFlagNameConstant, application.logFormatFlagValue, utils.LogFormats())
		if validationError != nil {
			return validationError
		}
		loadedConfiguration.Common.LogFormat = canonicalFormat
	}

	logLevel, levelError := utils.ParseLogLevel(loadedConfiguration.Common.LogLevel)
	logFormat, formatError := utils.ParseLogFormat(loadedConfiguration.Common.LogFormat)
	if combinedError := errors.Join(levelError, formatError); combinedError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, combinedError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	loadedConfiguration.Common.LogLevel = string(logLevel)
	loadedConfiguration.Common.LogFormat = string(logFormat)
	application.configuration = loadedConfiguration
	application.configurationMetadata = metadata
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, loadedConfiguration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, loadedConfiguration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, metadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

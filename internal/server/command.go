package server

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/ratelimit"
	"github.com/temirov/roleaudit/internal/reportcache"
)

const (
	commandUseConstant              = "serve"
	commandShortDescriptionConstant = "Serve audits over HTTP"
	commandLongDescriptionConstant  = "serve exposes POST /audit, GET /report and GET /healthz. Audit and report routes require the X-API-Key header and are throttled by a token bucket."

	hostFlagNameConstant  = "host"
	hostFlagUsageConstant = "Interface to listen on"
	portFlagNameConstant  = "port"
	portFlagUsageConstant = "Port to listen on"

	missingAPIKeyMessageConstant = "no API key configured; every protected request will be rejected"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies the server configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the serve cobra command.
type CommandBuilder struct {
	LoggerProvider             LoggerProvider
	ConfigurationProvider      ConfigurationProvider
	AuditConfigurationProvider audit.ConfigurationProvider
	FileSystem                 filesystem.FileSystem
}

// Build constructs the cobra command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var hostOverride string
	var portOverride int

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration := builder.resolveConfiguration()
			if command.Flags().Changed(hostFlagNameConstant) {
				configuration.Host = hostOverride
			}
			if command.Flags().Changed(portFlagNameConstant) {
				configuration.Port = portOverride
			}

			executionContext := command.Context()
			if executionContext == nil {
				executionContext = context.Background()
			}
			return builder.NewWebAPI(configuration).Start(executionContext)
		},
	}

	command.Flags().StringVar(&hostOverride, hostFlagNameConstant, "", hostFlagUsageConstant)
	command.Flags().IntVar(&portOverride, portFlagNameConstant, 0, portFlagUsageConstant)

	return command, nil
}

// NewWebAPI wires a WebAPI from configuration and the builder's providers.
func (builder *CommandBuilder) NewWebAPI(configuration Configuration) *WebAPI {
	logger := builder.resolveLogger()
	sanitized := configuration.Sanitize()
	if len(sanitized.APIKey) == 0 {
		logger.Warn(missingAPIKeyMessageConstant)
	}

	auditConfigurationProvider := builder.AuditConfigurationProvider
	if auditConfigurationProvider == nil {
		auditConfigurationProvider = audit.DefaultConfiguration
	}

	handler := NewHandler(HandlerDependencies{
		Auditor:               audit.NewService(builder.FileSystem, logger),
		Cache:                 reportcache.New(builder.FileSystem, sanitized.CacheFile),
		FileSystem:            builder.FileSystem,
		ConfigurationProvider: auditConfigurationProvider,
		AuditTimeout:          sanitized.AuditTimeout,
		Logger:                logger,
	})

	return NewWebAPI(logger, Config{
		Address: sanitized.Address(),
		APIKey:  sanitized.APIKey,
		Bucket:  ratelimit.NewTokenBucket(sanitized.RateLimit.MaxRequests, sanitized.RateLimit.RefillPeriod),
		Handler: handler,
	})
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

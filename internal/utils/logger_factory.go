package utils

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "%w: %q"
	unsupportedLogFormatTemplateConstant = "%w: %q"
	consoleTimeKeyConstant               = "time"
)

// ErrUnsupportedLogLevel indicates a log level outside LogLevels.
var ErrUnsupportedLogLevel = errors.New("unsupported log level")

// ErrUnsupportedLogFormat indicates a log format outside LogFormats.
var ErrUnsupportedLogFormat = errors.New("unsupported log format")

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Supported log levels.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Supported log formats. Structured emits JSON lines; console emits human readable lines.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// LogLevels lists the accepted level names in increasing severity.
func LogLevels() []string {
	return []string{logLevelDebugStringConstant, logLevelInfoStringConstant, logLevelWarnStringConstant, logLevelErrorStringConstant}
}

// LogFormats lists the accepted format names.
func LogFormats() []string {
	return []string{logFormatStructuredStringConstant, logFormatConsoleStringConstant}
}

// ParseLogLevel normalizes case and surrounding whitespace before validating value.
func ParseLogLevel(value string) (LogLevel, error) {
	candidate := LogLevel(strings.ToLower(strings.TrimSpace(value)))
	if _, supported := logLevelMapping[candidate]; !supported {
		return "", fmt.Errorf(unsupportedLogLevelTemplateConstant, ErrUnsupportedLogLevel, value)
	}
	return candidate, nil
}

// ParseLogFormat normalizes case and surrounding whitespace before validating value.
func ParseLogFormat(value string) (LogFormat, error) {
	candidate := LogFormat(strings.ToLower(strings.TrimSpace(value)))
	if _, supported := logFormatEncodingMapping[candidate]; !supported {
		return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, ErrUnsupportedLogFormat, value)
	}
	return candidate, nil
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger writing to stderr at the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	zapLogLevel, levelExists := logLevelMapping[requestedLogLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, ErrUnsupportedLogLevel, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[requestedLogFormat]
	if !formatExists {
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, ErrUnsupportedLogFormat, requestedLogFormat)
	}

	configuration := zap.NewProductionConfig()
	configuration.Level = zap.NewAtomicLevelAt(zapLogLevel)
	configuration.Encoding = encoding
	if requestedLogFormat == LogFormatConsole {
		configuration.EncoderConfig.TimeKey = consoleTimeKeyConstant
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		configuration.Sampling = nil
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return nil, buildError
	}

	return logger, nil
}

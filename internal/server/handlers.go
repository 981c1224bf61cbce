package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/reportcache"
)

const (
	rootQueryParameterConstant = "root"
	defaultRootConstant        = "."
	healthyResponseConstant    = "ok"

	contentTypeHeaderConstant   = "Content-Type"
	jsonContentTypeConstant     = "application/json"
	markdownContentTypeConstant = "text/markdown; charset=utf-8"
	textContentTypeConstant     = "text/plain; charset=utf-8"

	invalidRootMessageTemplate      = "root %s is not a directory"
	invalidOverridesMessageTemplate = "invalid configuration overrides: %v"
	outputNameMessageTemplate       = "output file name %s must not contain a directory"
	auditTimedOutMessageConstant    = "audit timed out"
	auditFailedMessageConstant      = "audit failed"
	reportNotFoundMessageConstant   = "Report not found"
	reportReadFailedMessage         = "report could not be read"

	cacheRecordFailedMessage = "report cache update failed"
	cacheLookupFailedMessage = "report cache lookup failed"
	encodeFailedMessage      = "response encoding failed"
	rootLogFieldConstant     = "root"
)

// Auditor runs a single audit.
type Auditor interface {
	Run(executionContext context.Context, rootPath string, configuration audit.Configuration, options audit.RunOptions) (audit.RunResult, error)
}

// AuditResponse is the body returned by POST /audit.
type AuditResponse struct {
	Report   string `json:"report"`
	Score    int    `json:"score"`
	Terminal bool   `json:"terminal"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the audit routes.
type Handler struct {
	auditor               Auditor
	cache                 *reportcache.Cache
	fileSystem            filesystem.FileSystem
	configurationProvider func() audit.Configuration
	auditTimeout          time.Duration
	logger                *zap.Logger
}

// HandlerDependencies wires a Handler.
type HandlerDependencies struct {
	Auditor               Auditor
	Cache                 *reportcache.Cache
	FileSystem            filesystem.FileSystem
	ConfigurationProvider func() audit.Configuration
	AuditTimeout          time.Duration
	Logger                *zap.Logger
}

// NewHandler constructs a Handler.
func NewHandler(dependencies HandlerDependencies) *Handler {
	handler := &Handler{
		auditor:               dependencies.Auditor,
		cache:                 dependencies.Cache,
		fileSystem:            dependencies.FileSystem,
		configurationProvider: dependencies.ConfigurationProvider,
		auditTimeout:          dependencies.AuditTimeout,
		logger:                dependencies.Logger,
	}
	if handler.fileSystem == nil {
		handler.fileSystem = filesystem.NewOSFileSystem()
	}
	if handler.logger == nil {
		handler.logger = zap.NewNop()
	}
	if handler.auditor == nil {
		handler.auditor = audit.NewService(handler.fileSystem, handler.logger)
	}
	if handler.cache == nil {
		handler.cache = reportcache.New(handler.fileSystem, reportcache.DefaultFileNameConstant)
	}
	if handler.configurationProvider == nil {
		handler.configurationProvider = audit.DefaultConfiguration
	}
	if handler.auditTimeout <= 0 {
		handler.auditTimeout = defaultAuditTimeoutConstant
	}
	return handler
}

type auditOutcome struct {
	result audit.RunResult
	err    error
}

// RunAudit handles POST /audit?root=<path>. An optional JSON body overrides audit settings.
func (handler *Handler) RunAudit(responseWriter http.ResponseWriter, request *http.Request) {
	rootPath, rootError := handler.resolveDirectory(request.URL.Query().Get(rootQueryParameterConstant))
	if rootError != nil {
		writeError(responseWriter, http.StatusBadRequest, rootError.Error())
		return
	}

	configuration, overrideError := handler.decodeOverrides(request.Body)
	if overrideError != nil {
		writeError(responseWriter, http.StatusBadRequest, fmt.Sprintf(invalidOverridesMessageTemplate, overrideError))
		return
	}
	sanitized := configuration.Sanitize()
	options := audit.RunOptions{SummaryPath: filepath.Join(rootPath, sanitized.SummaryFileName)}

	auditContext, cancel := context.WithTimeout(request.Context(), handler.auditTimeout)
	defer cancel()

	outcomes := make(chan auditOutcome, 1)
	go func() {
		result, runError := handler.auditor.Run(auditContext, rootPath, sanitized, options)
		outcomes <- auditOutcome{result: result, err: runError}
	}()

	var outcome auditOutcome
	select {
	case outcome = <-outcomes:
	case <-auditContext.Done():
		writeError(responseWriter, http.StatusGatewayTimeout, auditTimedOutMessageConstant)
		return
	}

	if outcome.err != nil && !outcome.result.Terminal {
		switch {
		case errors.Is(outcome.err, audit.ErrRootNotDirectory):
			writeError(responseWriter, http.StatusBadRequest, outcome.err.Error())
		case errors.Is(outcome.err, context.DeadlineExceeded):
			writeError(responseWriter, http.StatusGatewayTimeout, auditTimedOutMessageConstant)
		default:
			handler.logger.Error(auditFailedMessageConstant, zap.String(rootLogFieldConstant, rootPath), zap.Error(outcome.err))
			writeError(responseWriter, http.StatusInternalServerError, auditFailedMessageConstant)
		}
		return
	}

	entry := reportcache.Entry{
		ReportPath: outcome.result.ReportPath,
		Score:      outcome.result.Score(),
		Terminal:   outcome.result.Terminal,
	}
	if recordError := handler.cache.Record(rootPath, entry); recordError != nil {
		handler.logger.Warn(cacheRecordFailedMessage, zap.String(rootLogFieldConstant, rootPath), zap.Error(recordError))
	}

	handler.writeJSON(responseWriter, http.StatusOK, AuditResponse{
		Report:   entry.ReportPath,
		Score:    entry.Score,
		Terminal: entry.Terminal,
	})
}

// GetReport handles GET /report?root=<path> and serves the latest report of that root.
func (handler *Handler) GetReport(responseWriter http.ResponseWriter, request *http.Request) {
	rootPath, resolveError := handler.fileSystem.Abs(normalizeRoot(request.URL.Query().Get(rootQueryParameterConstant)))
	if resolveError != nil {
		writeError(responseWriter, http.StatusBadRequest, resolveError.Error())
		return
	}

	reportPath := filepath.Join(rootPath, handler.configurationProvider().Sanitize().ReportFileName)
	entry, found, lookupError := handler.cache.Lookup(rootPath)
	if lookupError != nil {
		handler.logger.Warn(cacheLookupFailedMessage, zap.String(rootLogFieldConstant, rootPath), zap.Error(lookupError))
	}
	if found && len(entry.ReportPath) > 0 {
		reportPath = entry.ReportPath
	}

	reportData, readError := handler.fileSystem.ReadFile(reportPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			writeError(responseWriter, http.StatusNotFound, reportNotFoundMessageConstant)
			return
		}
		handler.logger.Warn(reportReadFailedMessage, zap.String(pathLogFieldConstant, reportPath), zap.Error(readError))
		writeError(responseWriter, http.StatusInternalServerError, reportReadFailedMessage)
		return
	}

	responseWriter.Header().Set(contentTypeHeaderConstant, markdownContentTypeConstant)
	responseWriter.WriteHeader(http.StatusOK)
	_, _ = responseWriter.Write(reportData)
}

// Health handles GET /healthz.
func (handler *Handler) Health(responseWriter http.ResponseWriter, request *http.Request) {
	responseWriter.Header().Set(contentTypeHeaderConstant, textContentTypeConstant)
	responseWriter.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(responseWriter, healthyResponseConstant)
}

func (handler *Handler) resolveDirectory(rawRoot string) (string, error) {
	absoluteRoot, resolveError := handler.fileSystem.Abs(normalizeRoot(rawRoot))
	if resolveError != nil {
		return "", resolveError
	}
	rootInfo, statError := handler.fileSystem.Stat(absoluteRoot)
	if statError != nil || !rootInfo.IsDir() {
		return "", fmt.Errorf(invalidRootMessageTemplate, absoluteRoot)
	}
	return absoluteRoot, nil
}

// decodeOverrides applies a JSON object of audit settings on top of the configured ones.
// Unknown keys are rejected.
func (handler *Handler) decodeOverrides(body io.Reader) (audit.Configuration, error) {
	configuration := handler.configurationProvider()
	if body == nil {
		return configuration, nil
	}

	var overrides map[string]any
	if decodeError := json.NewDecoder(body).Decode(&overrides); decodeError != nil {
		if errors.Is(decodeError, io.EOF) {
			return configuration, nil
		}
		return audit.Configuration{}, decodeError
	}
	if len(overrides) == 0 {
		return configuration, nil
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &configuration,
		ErrorUnused: true,
		ZeroFields:  true,
	})
	if decoderError != nil {
		return audit.Configuration{}, decoderError
	}
	if decodeError := decoder.Decode(overrides); decodeError != nil {
		return audit.Configuration{}, decodeError
	}
	for _, outputName := range []string{configuration.ReportFileName, configuration.SummaryFileName} {
		if len(outputName) > 0 && filepath.Base(outputName) != outputName {
			return audit.Configuration{}, fmt.Errorf(outputNameMessageTemplate, outputName)
		}
	}
	return configuration, nil
}

func (handler *Handler) writeJSON(responseWriter http.ResponseWriter, status int, payload any) {
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	responseWriter.WriteHeader(status)
	if encodeError := json.NewEncoder(responseWriter).Encode(payload); encodeError != nil {
		handler.logger.Error(encodeFailedMessage, zap.Error(encodeError))
	}
}

func writeError(responseWriter http.ResponseWriter, status int, message string) {
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	responseWriter.WriteHeader(status)
	_ = json.NewEncoder(responseWriter).Encode(errorResponse{Error: message})
}

func normalizeRoot(rawRoot string) string {
	trimmedRoot := strings.TrimSpace(rawRoot)
	if len(trimmedRoot) == 0 {
		return defaultRootConstant
	}
	return trimmedRoot
}

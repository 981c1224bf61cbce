package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/roles"
	"github.com/temirov/roleaudit/internal/variables"
)

const (
	reportFilePermissionsConstant = 0o644

	rootNotDirectoryTemplateConstant = "%w: %s"
	resolveRootErrorTemplateConstant = "resolve audit root %s: %w"
	discoverRolesErrorTemplate       = "discover roles: %w"
	writeReportErrorTemplate         = "write report %s: %w"
	encodeSummaryErrorTemplate       = "encode summary: %w"
	writeSummaryErrorTemplate        = "write summary %s: %w"
	cancelledErrorTemplate           = "audit of %s interrupted before role %s: %w"

	auditStartedMessageConstant   = "audit started"
	auditCompletedMessageConstant = "audit completed"
	auditTerminalMessageConstant  = "roles directory missing"
	roleEvaluatedMessageConstant  = "role evaluated"

	rootLogFieldConstant     = "root"
	reportLogFieldConstant   = "report"
	scoreLogFieldConstant    = "score"
	rolesLogFieldConstant    = "roles"
	roleLogFieldConstant     = "role"
	findingsLogFieldConstant = "findings"
)

// ErrRolesDirectoryMissing indicates a terminal run: the audit root has no roles directory.
var ErrRolesDirectoryMissing = roles.ErrRolesDirectoryMissing

// ErrRootNotDirectory indicates the audit root does not exist or is not a directory.
var ErrRootNotDirectory = errors.New("audit root is not a directory")

// RunOptions overrides output locations of a run. Empty ReportPath means
// <root>/<report_file_name>; empty SummaryPath skips the summary.
type RunOptions struct {
	ReportPath  string
	SummaryPath string
}

// RunResult describes a completed run.
type RunResult struct {
	RootPath    string
	ReportPath  string
	SummaryPath string
	Report      Report
	Terminal    bool
}

// Score returns the report score.
func (result RunResult) Score() int {
	return result.Report.Score()
}

// Service runs audits against a root directory.
type Service struct {
	fileSystem filesystem.FileSystem
	logger     *zap.Logger
	discoverer *roles.Discoverer
	collector  *variables.Collector
}

// NewService constructs a Service.
func NewService(fileSystem filesystem.FileSystem, logger *zap.Logger) *Service {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fileSystem: fileSystem,
		logger:     logger,
		discoverer: roles.NewDiscoverer(fileSystem),
		collector:  variables.NewCollector(fileSystem, logger),
	}
}

// Run audits rootPath and writes the report. A root without a roles directory
// still writes a report stating the absence and returns the result together
// with an error wrapping ErrRolesDirectoryMissing. The context is checked
// between roles.
func (service *Service) Run(executionContext context.Context, rootPath string, configuration Configuration, options RunOptions) (RunResult, error) {
	absoluteRoot, resolveError := service.fileSystem.Abs(rootPath)
	if resolveError != nil {
		return RunResult{}, fmt.Errorf(resolveRootErrorTemplateConstant, rootPath, resolveError)
	}
	rootInfo, statError := service.fileSystem.Stat(absoluteRoot)
	if statError != nil || !rootInfo.IsDir() {
		return RunResult{}, fmt.Errorf(rootNotDirectoryTemplateConstant, ErrRootNotDirectory, absoluteRoot)
	}

	sanitized := configuration.Sanitize()
	result := RunResult{
		RootPath:    absoluteRoot,
		ReportPath:  options.ReportPath,
		SummaryPath: options.SummaryPath,
	}
	if len(result.ReportPath) == 0 {
		result.ReportPath = filepath.Join(absoluteRoot, sanitized.ReportFileName)
	}

	service.logger.Info(auditStartedMessageConstant, zap.String(rootLogFieldConstant, absoluteRoot))

	discoveredRoles, discoveryError := service.discoverer.DiscoverRoles(absoluteRoot)
	if discoveryError != nil {
		if !errors.Is(discoveryError, ErrRolesDirectoryMissing) {
			return result, fmt.Errorf(discoverRolesErrorTemplate, discoveryError)
		}
		result.Terminal = true
		result.Report = Report{RolesDirectory: roles.RolesDirectory(absoluteRoot), Terminal: true}
		service.logger.Error(auditTerminalMessageConstant, zap.String(rootLogFieldConstant, absoluteRoot))
		if writeError := service.writeOutputs(result); writeError != nil {
			return result, writeError
		}
		return result, discoveryError
	}

	report, evaluationError := service.evaluate(executionContext, absoluteRoot, discoveredRoles, sanitized)
	if evaluationError != nil {
		return result, evaluationError
	}
	result.Report = report

	if writeError := service.writeOutputs(result); writeError != nil {
		return result, writeError
	}

	service.logger.Info(
		auditCompletedMessageConstant,
		zap.String(rootLogFieldConstant, absoluteRoot),
		zap.String(reportLogFieldConstant, result.ReportPath),
		zap.Int(rolesLogFieldConstant, len(report.Roles)),
		zap.Int(scoreLogFieldConstant, report.Score()),
	)
	return result, nil
}

func (service *Service) evaluate(executionContext context.Context, rootPath string, discoveredRoles []roles.Role, configuration Configuration) (Report, error) {
	rolePaths := make([]string, 0, len(discoveredRoles))
	for _, role := range discoveredRoles {
		rolePaths = append(rolePaths, role.Path)
	}
	definedNames := service.collector.Collect(rootPath, rolePaths)

	validator := roles.NewValidator(service.fileSystem, service.logger, configuration.RequiredRoleDirectories, configuration.MetaFileNames)
	scanner := roles.NewPlaceholderScanner(service.fileSystem, service.logger, configuration.PlaceholderKeywords)
	resolver := NewResolver(service.fileSystem, service.logger, NewIgnorePolicy(configuration.IgnoredVariables, configuration.IgnoredVariablePrefixes))

	report := Report{
		RolesDirectory: roles.RolesDirectory(rootPath),
		Roles:          make([]RoleResult, 0, len(discoveredRoles)),
	}
	for _, role := range discoveredRoles {
		if executionContext != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return Report{}, fmt.Errorf(cancelledErrorTemplate, rootPath, role.Name, contextError)
			}
		}

		roleFindings := validator.Validate(role)
		roleFindings.Merge(scanner.Scan(role))
		roleFindings.Merge(resolver.Resolve(role, definedNames))

		service.logger.Debug(roleEvaluatedMessageConstant, zap.String(roleLogFieldConstant, role.Name), zap.Int(findingsLogFieldConstant, roleFindings.Count()))
		report.Roles = append(report.Roles, RoleResult{Role: role, Findings: roleFindings})
	}
	report.Playbooks = service.discoverer.DiscoverPlaybooks(rootPath)

	return report, nil
}

func (service *Service) writeOutputs(result RunResult) error {
	if writeError := service.fileSystem.ReplaceFile(result.ReportPath, []byte(result.Report.Render()), reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeReportErrorTemplate, result.ReportPath, writeError)
	}
	if len(result.SummaryPath) == 0 {
		return nil
	}

	summaryData, encodeError := Summarize(result.Report).Marshal()
	if encodeError != nil {
		return fmt.Errorf(encodeSummaryErrorTemplate, encodeError)
	}
	if writeError := service.fileSystem.ReplaceFile(result.SummaryPath, summaryData, reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeSummaryErrorTemplate, result.SummaryPath, writeError)
	}
	return nil
}

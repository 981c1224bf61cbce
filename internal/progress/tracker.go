// Package progress combines the latest audit summary and lint status into a
// progress page.
package progress

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/lint"
)

const (
	topViolationLimitConstant  = 5
	progressPermissionConstant = 0o644

	titleLineConstant           = "# Progress Tracker"
	scoreLineTemplate           = "## Validation Score: %d/%d"
	violationsLineTemplate      = "## ansible-lint Violations: %d"
	topViolationsHeaderConstant = "### Top Violations"
	violationLineTemplate       = "- %s: %d"
	nextStepsHeaderConstant     = "### Next Steps"
	fixLintStepConstant         = "- Fix lint rules starting with the highest counts."
	resolveValidationTemplate   = "- Resolve validation issues reported in %s"
	maintainScoreStepConstant   = "- Maintain validation score while reducing lint errors."

	readInputErrorTemplate   = "read %s: %w"
	decodeInputErrorTemplate = "decode %s: %w"
	writeProgressTemplate    = "write progress %s: %w"

	inputMissingMessageConstant = "progress input missing; using zero values"
	pathLogFieldConstant        = "path"
)

// Inputs are the documents a progress page is built from.
type Inputs struct {
	Score          int
	Lint           lint.Summary
	ReportFileName string
}

// Render produces the progress Markdown.
func (inputs Inputs) Render() string {
	lines := []string{
		titleLineConstant,
		fmt.Sprintf(scoreLineTemplate, inputs.Score, audit.ScoreCeilingConstant),
		fmt.Sprintf(violationsLineTemplate, inputs.Lint.Total),
		"",
		topViolationsHeaderConstant,
	}
	for _, violation := range inputs.Lint.Top(topViolationLimitConstant) {
		lines = append(lines, fmt.Sprintf(violationLineTemplate, violation.Rule, violation.Count))
	}

	lines = append(lines, "", nextStepsHeaderConstant)
	if inputs.Lint.Total > 0 {
		lines = append(lines, fixLintStepConstant)
	}
	if inputs.Score < audit.ScoreCeilingConstant {
		lines = append(lines, fmt.Sprintf(resolveValidationTemplate, inputs.ReportFileName))
	} else {
		lines = append(lines, maintainScoreStepConstant)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Tracker reads the audit summary and lint status of a root and writes its progress page.
type Tracker struct {
	fileSystem filesystem.FileSystem
	logger     *zap.Logger
}

// NewTracker constructs a Tracker.
func NewTracker(fileSystem filesystem.FileSystem, logger *zap.Logger) *Tracker {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{fileSystem: fileSystem, logger: logger}
}

// Load gathers the inputs under rootPath. Absent documents contribute zero values.
func (tracker *Tracker) Load(rootPath string, auditConfiguration audit.Configuration, lintConfiguration lint.Configuration) (Inputs, error) {
	sanitizedAudit := auditConfiguration.Sanitize()
	sanitizedLint := lintConfiguration.Sanitize()
	inputs := Inputs{ReportFileName: sanitizedAudit.ReportFileName}

	var summary audit.Summary
	if loadError := tracker.loadDocument(filepath.Join(rootPath, sanitizedAudit.SummaryFileName), &summary); loadError != nil {
		return Inputs{}, loadError
	}
	inputs.Score = summary.Score

	var status lint.Status
	if loadError := tracker.loadDocument(filepath.Join(rootPath, sanitizedLint.StatusFileName), &status); loadError != nil {
		return Inputs{}, loadError
	}
	inputs.Lint = status.Summary()

	return inputs, nil
}

// Write renders inputs to <rootPath>/<progress_file_name> and returns the written path.
func (tracker *Tracker) Write(rootPath string, inputs Inputs, lintConfiguration lint.Configuration) (string, error) {
	progressPath := filepath.Join(rootPath, lintConfiguration.Sanitize().ProgressFileName)
	if writeError := tracker.fileSystem.ReplaceFile(progressPath, []byte(inputs.Render()), progressPermissionConstant); writeError != nil {
		return "", fmt.Errorf(writeProgressTemplate, progressPath, writeError)
	}
	return progressPath, nil
}

func (tracker *Tracker) loadDocument(path string, target any) error {
	data, readError := tracker.fileSystem.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			tracker.logger.Debug(inputMissingMessageConstant, zap.String(pathLogFieldConstant, path))
			return nil
		}
		return fmt.Errorf(readInputErrorTemplate, path, readError)
	}
	if decodeError := yaml.Unmarshal(data, target); decodeError != nil {
		return fmt.Errorf(decodeInputErrorTemplate, path, decodeError)
	}
	return nil
}

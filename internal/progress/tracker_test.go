package progress_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/audit"
	"github.com/temirov/roleaudit/internal/lint"
	"github.com/temirov/roleaudit/internal/progress"
)

func TestInputsRender(testInstance *testing.T) {
	testCases := []struct {
		name     string
		inputs   progress.Inputs
		expected []string
	}{
		{
			name:   "no_inputs",
			inputs: progress.Inputs{ReportFileName: "validation_report.md"},
			expected: []string{
				"# Progress Tracker",
				"## Validation Score: 0/100",
				"## ansible-lint Violations: 0",
				"",
				"### Top Violations",
				"",
				"### Next Steps",
				"- Resolve validation issues reported in validation_report.md",
			},
		},
		{
			name: "perfect_score_with_lint",
			inputs: progress.Inputs{
				Score:          100,
				ReportFileName: "validation_report.md",
				Lint: lint.NewSummary(map[string]int{
					"a-rule": 1, "b-rule": 7, "c-rule": 3, "d-rule": 3, "e-rule": 2, "f-rule": 9,
				}),
			},
			expected: []string{
				"# Progress Tracker",
				"## Validation Score: 100/100",
				"## ansible-lint Violations: 25",
				"",
				"### Top Violations",
				"- f-rule: 9",
				"- b-rule: 7",
				"- c-rule: 3",
				"- d-rule: 3",
				"- e-rule: 2",
				"",
				"### Next Steps",
				"- Fix lint rules starting with the highest counts.",
				"- Maintain validation score while reducing lint errors.",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, strings.Join(testCase.expected, "\n")+"\n", testCase.inputs.Render())
		})
	}
}

func TestTrackerLoadsDocuments(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	summaryData, encodeError := audit.Summary{Score: 97, RolesEvaluated: 2}.Marshal()
	require.NoError(testInstance, encodeError)
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootPath, "audit_output.yaml"), summaryData, 0o644))
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootPath, "lint_status.yaml"), []byte("violations:\n  name[missing]: 4\n  yaml[truthy]: 1\ntotal: 5\n"), 0o644))

	tracker := progress.NewTracker(nil, nil)
	inputs, loadError := tracker.Load(rootPath, audit.DefaultConfiguration(), lint.DefaultConfiguration())
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 97, inputs.Score)
	require.Equal(testInstance, 5, inputs.Lint.Total)
	require.Equal(testInstance, []lint.Violation{{Rule: "name[missing]", Count: 4}, {Rule: "yaml[truthy]", Count: 1}}, inputs.Lint.Violations)

	progressPath, writeError := tracker.Write(rootPath, inputs, lint.DefaultConfiguration())
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, filepath.Join(rootPath, "progress.md"), progressPath)
	written, readError := os.ReadFile(progressPath)
	require.NoError(testInstance, readError)
	require.Equal(testInstance, inputs.Render(), string(written))
}

func TestTrackerRejectsCorruptDocument(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(rootPath, "lint_status.yaml"), []byte("violations: [unterminated\n"), 0o644))

	_, loadError := progress.NewTracker(nil, nil).Load(rootPath, audit.DefaultConfiguration(), lint.DefaultConfiguration())
	require.Error(testInstance, loadError)
}

func TestCommandWritesProgress(testInstance *testing.T) {
	rootPath := testInstance.TempDir()
	builder := progress.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{rootPath})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, filepath.Join(rootPath, "progress.md")+" updated\n", outputBuffer.String())
	written, readError := os.ReadFile(filepath.Join(rootPath, "progress.md"))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(written), "## Validation Score: 0/100")
}

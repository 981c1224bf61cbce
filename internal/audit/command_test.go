package audit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/audit"
)

func TestCommandWritesReport(testInstance *testing.T) {
	testCases := []struct {
		name               string
		argumentsFor       func(rootPath string, outputPath string) []string
		expectedReportName func(rootPath string, outputPath string) string
		expectSummary      bool
	}{
		{
			name: "positional_root",
			argumentsFor: func(rootPath string, outputPath string) []string {
				return []string{rootPath}
			},
			expectedReportName: func(rootPath string, outputPath string) string {
				return filepath.Join(rootPath, "validation_report.md")
			},
		},
		{
			name: "root_flag_with_summary",
			argumentsFor: func(rootPath string, outputPath string) []string {
				return []string{"--root", rootPath, "--summary"}
			},
			expectedReportName: func(rootPath string, outputPath string) string {
				return filepath.Join(rootPath, "validation_report.md")
			},
			expectSummary: true,
		},
		{
			name: "custom_report_path",
			argumentsFor: func(rootPath string, outputPath string) []string {
				return []string{rootPath, "--report", outputPath}
			},
			expectedReportName: func(rootPath string, outputPath string) string {
				return outputPath
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			rootPath := subTest.TempDir()
			writeTree(subTest, rootPath, sampleRole(nil))
			outputPath := filepath.Join(subTest.TempDir(), "custom.md")

			builder := audit.CommandBuilder{
				LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
				ConfigurationProvider: audit.DefaultConfiguration,
			}
			command, buildError := builder.Build()
			require.NoError(subTest, buildError)

			outputBuffer := &bytes.Buffer{}
			command.SetOut(outputBuffer)
			command.SetErr(&bytes.Buffer{})
			command.SetArgs(testCase.argumentsFor(rootPath, outputPath))
			require.NoError(subTest, command.Execute())

			expectedReport := testCase.expectedReportName(rootPath, outputPath)
			require.Equal(subTest, "Validation report written to "+expectedReport+"\n", outputBuffer.String())
			reportData, readError := os.ReadFile(expectedReport)
			require.NoError(subTest, readError)
			require.Contains(subTest, string(reportData), "100/100")

			_, summaryError := os.Stat(filepath.Join(rootPath, "audit_output.yaml"))
			require.Equal(subTest, testCase.expectSummary, summaryError == nil)
		})
	}
}

func TestCommandFailsForMissingRolesDirectory(testInstance *testing.T) {
	rootPath := testInstance.TempDir()

	builder := audit.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{rootPath})

	executionError := command.Execute()
	require.ErrorIs(testInstance, executionError, audit.ErrRolesDirectoryMissing)
	require.Contains(testInstance, outputBuffer.String(), "validation_report.md")
	require.FileExists(testInstance, filepath.Join(rootPath, "validation_report.md"))
}

func TestCommandRejectsExtraArguments(testInstance *testing.T) {
	builder := audit.CommandBuilder{}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"first", "second"})
	require.Error(testInstance, command.Execute())
}

package audit_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/audit"
)

func TestConfigurationSanitize(testInstance *testing.T) {
	defaults := audit.DefaultConfiguration()

	testCases := []struct {
		name     string
		input    audit.Configuration
		expected audit.Configuration
	}{
		{
			name:     "zero_value_takes_defaults",
			input:    audit.Configuration{},
			expected: defaults,
		},
		{
			name: "values_are_trimmed",
			input: audit.Configuration{
				RequiredRoleDirectories: []string{" tasks ", "", "meta"},
				PlaceholderKeywords:     []string{" FIXME"},
				IgnoredVariables:        []string{"item "},
				IgnoredVariablePrefixes: []string{" ansible_"},
				MetaFileNames:           []string{"main.yaml"},
				ReportFileName:          " report.md ",
				SummaryFileName:         " summary.yaml",
			},
			expected: audit.Configuration{
				RequiredRoleDirectories: []string{"tasks", "meta"},
				PlaceholderKeywords:     []string{"FIXME"},
				IgnoredVariables:        []string{"item"},
				IgnoredVariablePrefixes: []string{"ansible_"},
				MetaFileNames:           []string{"main.yaml"},
				ReportFileName:          "report.md",
				SummaryFileName:         "summary.yaml",
			},
		},
		{
			name: "explicit_empty_lists_are_kept",
			input: audit.Configuration{
				RequiredRoleDirectories: []string{},
				PlaceholderKeywords:     []string{},
				IgnoredVariables:        []string{},
				IgnoredVariablePrefixes: []string{},
				MetaFileNames:           []string{},
			},
			expected: audit.Configuration{
				RequiredRoleDirectories: []string{},
				PlaceholderKeywords:     []string{},
				IgnoredVariables:        []string{},
				IgnoredVariablePrefixes: []string{},
				MetaFileNames:           defaults.MetaFileNames,
				ReportFileName:          defaults.ReportFileName,
				SummaryFileName:         defaults.SummaryFileName,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, testCase.input.Sanitize())
		})
	}
}

func TestDefaultConfigurationValues(testInstance *testing.T) {
	values := audit.DefaultConfigurationValues("audit.")
	require.Equal(testInstance, "validation_report.md", values["audit.report_file_name"])
	require.Equal(testInstance, "audit_output.yaml", values["audit.summary_file_name"])
	require.Equal(testInstance, []string{"ansible_"}, values["audit.ignored_variable_prefixes"])
	require.Len(testInstance, values, 7)
}

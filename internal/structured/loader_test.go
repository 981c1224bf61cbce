package structured_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/structured"
)

func TestParseNormalizesEmptyDocuments(testInstance *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace", text: "  \n\n"},
		{name: "comment_only", text: "---\n# intentionally empty\n"},
		{name: "explicit_null", text: "~\n"},
		{name: "document_marker", text: "---\n"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			value, parseError := structured.Parse(testCase.text)
			require.NoError(subTest, parseError)
			mapping, isMapping := value.(structured.Mapping)
			require.True(subTest, isMapping)
			require.Zero(subTest, mapping.Len())
		})
	}
}

func TestParseShapes(testInstance *testing.T) {
	value, parseError := structured.Parse("- name: first\n  tags: [a]\n- name: second\n")
	require.NoError(testInstance, parseError)

	sequence, isSequence := value.(structured.Sequence)
	require.True(testInstance, isSequence)
	require.Len(testInstance, sequence.Items, 2)

	firstTask, isMapping := sequence.Items[0].(structured.Mapping)
	require.True(testInstance, isMapping)
	nameValue, hasName := firstTask.Lookup("name")
	require.True(testInstance, hasName)
	nameText, isText := structured.Text(nameValue)
	require.True(testInstance, isText)
	require.Equal(testInstance, "first", nameText)

	tagsValue, hasTags := firstTask.Lookup("tags")
	require.True(testInstance, hasTags)
	require.Equal(testInstance, []string{"a"}, structured.Strings(tagsValue))
}

func TestParseResolvesAliasesAndMergeKeys(testInstance *testing.T) {
	text := "base: &base\n  port: 80\n  host: localhost\nservice:\n  <<: *base\n  port: 8080\n"
	value, parseError := structured.Parse(text)
	require.NoError(testInstance, parseError)

	mapping, isMapping := value.(structured.Mapping)
	require.True(testInstance, isMapping)
	serviceValue, hasService := mapping.Lookup("service")
	require.True(testInstance, hasService)
	service := serviceValue.(structured.Mapping)

	portValue, _ := service.Lookup("port")
	portText, _ := structured.Text(portValue)
	require.Equal(testInstance, "8080", portText)
	require.True(testInstance, service.Has("host"))
	require.Equal(testInstance, []string{"base", "host", "port", "service"}, structured.GatherKeys(value))
}

func TestParseRejectsSelfReferencingAlias(testInstance *testing.T) {
	_, parseError := structured.Parse("loop: &loop\n  - *loop\n")
	require.Error(testInstance, parseError)
}

func TestParseBoundsAliasExpansion(testInstance *testing.T) {
	testCases := []struct {
		name          string
		levels        int
		expectedError error
	}{
		{name: "shared_aliases_within_bound", levels: 3, expectedError: nil},
		{name: "nested_aliases_beyond_bound", levels: 7, expectedError: structured.ErrExpansionTooLarge},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			value, parseError := structured.Parse(nestedAliasDocument(testCase.levels))
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, parseError, testCase.expectedError)
				return
			}
			require.NoError(testInstance, parseError)

			mapping, isMapping := value.(structured.Mapping)
			require.True(testInstance, isMapping)
			topValue, hasTop := mapping.Lookup(aliasLevelName(testCase.levels - 1))
			require.True(testInstance, hasTop)
			topSequence, isSequence := topValue.(structured.Sequence)
			require.True(testInstance, isSequence)
			require.Len(testInstance, topSequence.Items, aliasFanOutConstant)
			require.Equal(testInstance, topSequence.Items[0], topSequence.Items[aliasFanOutConstant-1])
		})
	}
}

func TestLoaderReportsExcessiveAliasExpansionAsParseFailure(testInstance *testing.T) {
	directory := testInstance.TempDir()
	path := filepath.Join(directory, "expansion.yml")
	require.NoError(testInstance, os.WriteFile(path, []byte(nestedAliasDocument(7)), 0o644))

	result := structured.NewLoader(filesystem.NewOSFileSystem()).Load(path)
	require.Equal(testInstance, structured.LoadStatusParseFailed, result.Status)
	require.ErrorIs(testInstance, result.Failure, structured.ErrExpansionTooLarge)
}

const aliasFanOutConstant = 10

// nestedAliasDocument builds levels of anchored lists where each list holds
// aliasFanOutConstant references to the previous one.
func nestedAliasDocument(levels int) string {
	var builder strings.Builder
	builder.WriteString(aliasLevelName(0) + ": &" + aliasLevelName(0) + " [")
	builder.WriteString(strings.TrimSuffix(strings.Repeat("x, ", aliasFanOutConstant), ", "))
	builder.WriteString("]\n")
	for level := 1; level < levels; level++ {
		previous := "*" + aliasLevelName(level-1)
		builder.WriteString(aliasLevelName(level) + ": &" + aliasLevelName(level) + " [")
		builder.WriteString(strings.TrimSuffix(strings.Repeat(previous+", ", aliasFanOutConstant), ", "))
		builder.WriteString("]\n")
	}
	return builder.String()
}

func aliasLevelName(level int) string {
	return string(rune('a' + level))
}

func TestParseReportsErrorsInLaterDocuments(testInstance *testing.T) {
	_, parseError := structured.Parse("first: 1\n---\nsecond: [unterminated\n")
	require.Error(testInstance, parseError)
}

func TestParseAcceptsJSON(testInstance *testing.T) {
	value, parseError := structured.Parse(`{"outer": {"inner": true}}`)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, []string{"inner", "outer"}, structured.GatherKeys(value))
}

func TestTruthy(testInstance *testing.T) {
	testCases := []struct {
		name     string
		value    structured.Value
		expected bool
	}{
		{name: "nil", value: nil, expected: false},
		{name: "null", value: structured.Scalar{Type: structured.ScalarTypeNull}, expected: false},
		{name: "empty_string", value: structured.Scalar{Type: structured.ScalarTypeString}, expected: false},
		{name: "string", value: structured.Scalar{Type: structured.ScalarTypeString, Text: "x"}, expected: true},
		{name: "false", value: structured.Scalar{Type: structured.ScalarTypeBoolean, Text: "false"}, expected: false},
		{name: "true", value: structured.Scalar{Type: structured.ScalarTypeBoolean, Text: "True"}, expected: true},
		{name: "zero", value: structured.Scalar{Type: structured.ScalarTypeNumber, Text: "0"}, expected: false},
		{name: "zero_float", value: structured.Scalar{Type: structured.ScalarTypeNumber, Text: "0.0"}, expected: false},
		{name: "number", value: structured.Scalar{Type: structured.ScalarTypeNumber, Text: "10"}, expected: true},
		{name: "empty_mapping", value: structured.Mapping{}, expected: false},
		{name: "empty_sequence", value: structured.Sequence{}, expected: false},
		{name: "sequence", value: structured.Sequence{Items: []structured.Value{structured.Scalar{}}}, expected: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, structured.Truthy(testCase.value))
		})
	}
}

func TestLoaderLoadStatuses(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	validPath := filepath.Join(temporaryDirectory, "valid.yml")
	brokenPath := filepath.Join(temporaryDirectory, "broken.yml")
	require.NoError(testInstance, os.WriteFile(validPath, []byte("key: value\n"), 0o644))
	require.NoError(testInstance, os.WriteFile(brokenPath, []byte("key: [unterminated\n"), 0o644))

	loader := structured.NewLoader(filesystem.NewOSFileSystem())

	validResult := loader.Load(validPath)
	require.Equal(testInstance, structured.LoadStatusParsed, validResult.Status)
	_, isMapping := validResult.AsMapping()
	require.True(testInstance, isMapping)
	_, isSequence := validResult.AsSequence()
	require.False(testInstance, isSequence)

	brokenResult := loader.Load(brokenPath)
	require.Equal(testInstance, structured.LoadStatusParseFailed, brokenResult.Status)
	require.Error(testInstance, brokenResult.Failure)

	missingResult := loader.Load(filepath.Join(temporaryDirectory, "missing.yml"))
	require.Equal(testInstance, structured.LoadStatusNotFound, missingResult.Status)
}

func TestIsStructuredFile(testInstance *testing.T) {
	require.True(testInstance, structured.IsStructuredFile("tasks/main.yml"))
	require.True(testInstance, structured.IsStructuredFile("tasks/MAIN.YAML"))
	require.False(testInstance, structured.IsStructuredFile("templates/app.j2"))
	require.True(testInstance, structured.IsVariableFile("vars/data.json"))
}

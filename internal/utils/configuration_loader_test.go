package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/utils"
)

const (
	testEnvironmentPrefixConstant     = "TESTROLEAUDIT"
	testConfigurationNameConstant     = "config"
	testConfigurationTypeConstant     = "yaml"
	testConfigFileNameConstant        = "config.yaml"
	testLogLevelKeyConstant           = "common.log_level"
	testAPIKeyKeyConstant             = "server.api_key"
	testDefaultLogLevelConstant       = "info"
	testConfigContentTemplateConstant = "common:\n  log_level: %s\n"
)

type configurationFixture struct {
	Common configurationCommonFixture `mapstructure:"common"`
	Server configurationServerFixture `mapstructure:"server"`
	Audit  configurationAuditFixture  `mapstructure:"audit"`
}

type configurationCommonFixture struct {
	LogLevel string `mapstructure:"log_level"`
}

type configurationServerFixture struct {
	APIKey       string        `mapstructure:"api_key"`
	AuditTimeout time.Duration `mapstructure:"audit_timeout"`
}

type configurationAuditFixture struct {
	PlaceholderKeywords []string `mapstructure:"placeholder_keywords"`
}

func defaultFixtureValues() map[string]any {
	return map[string]any{
		testLogLevelKeyConstant:      testDefaultLogLevelConstant,
		testAPIKeyKeyConstant:        "",
		"server.audit_timeout":       "2m",
		"audit.placeholder_keywords": []string{"TODO", "REPLACE_ME"},
	}
}

func TestConfigurationLoaderPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name                string
		embeddedLogLevel    string
		fileLogLevel        string
		environmentLogLevel string
		expectedLogLevel    string
	}{
		{name: "defaults_apply", expectedLogLevel: testDefaultLogLevelConstant},
		{name: "embedded_overrides_defaults", embeddedLogLevel: "debug", expectedLogLevel: "debug"},
		{name: "file_overrides_embedded", embeddedLogLevel: "debug", fileLogLevel: "warn", expectedLogLevel: "warn"},
		{name: "environment_overrides_file", embeddedLogLevel: "debug", fileLogLevel: "warn", environmentLogLevel: "error", expectedLogLevel: "error"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			tempDirectory := testInstance.TempDir()
			configurationFilePath := ""
			if len(testCase.fileLogLevel) > 0 {
				configurationFilePath = filepath.Join(tempDirectory, testConfigFileNameConstant)
				require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.fileLogLevel)), 0o600))
			}
			if len(testCase.environmentLogLevel) > 0 {
				testInstance.Setenv(testEnvironmentPrefixConstant+"_COMMON_LOG_LEVEL", testCase.environmentLogLevel)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{tempDirectory})
			if len(testCase.embeddedLogLevel) > 0 {
				configurationLoader.SetEmbeddedConfiguration([]byte(fmt.Sprintf(testConfigContentTemplateConstant, testCase.embeddedLogLevel)), testConfigurationTypeConstant)
			}

			loadedConfiguration := configurationFixture{}
			metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultFixtureValues(), &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedLogLevel, loadedConfiguration.Common.LogLevel)
			require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderEnvironmentAliases(testInstance *testing.T) {
	testCases := []struct {
		name           string
		environment    map[string]string
		expectedAPIKey string
	}{
		{name: "no_variables", environment: map[string]string{}, expectedAPIKey: ""},
		{name: "alias_only", environment: map[string]string{"AGENT_API_KEY": "from-alias"}, expectedAPIKey: "from-alias"},
		{
			name: "prefixed_variable_wins",
			environment: map[string]string{
				"TESTROLEAUDIT_SERVER_API_KEY": "from-prefixed",
				"AGENT_API_KEY":                "from-alias",
			},
			expectedAPIKey: "from-prefixed",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testInstance.Setenv(testEnvironmentPrefixConstant+"_SERVER_API_KEY", "")
			testInstance.Setenv("AGENT_API_KEY", "")
			for name, value := range testCase.environment {
				testInstance.Setenv(name, value)
			}

			configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
			configurationLoader.BindEnvironmentAliases(testAPIKeyKeyConstant, "AGENT_API_KEY")

			loadedConfiguration := configurationFixture{}
			_, loadError := configurationLoader.LoadConfiguration("", defaultFixtureValues(), &loadedConfiguration)
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expectedAPIKey, loadedConfiguration.Server.APIKey)
		})
	}
}

func TestConfigurationLoaderDecodesDurationsAndLists(testInstance *testing.T) {
	testInstance.Setenv(testEnvironmentPrefixConstant+"_AUDIT_PLACEHOLDER_KEYWORDS", "FIXME,XXX")
	testInstance.Setenv(testEnvironmentPrefixConstant+"_SERVER_AUDIT_TIMEOUT", "45s")

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{testInstance.TempDir()})
	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration("", defaultFixtureValues(), &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, 45*time.Second, loadedConfiguration.Server.AuditTimeout)
	require.Equal(testInstance, []string{"FIXME", "XXX"}, loadedConfiguration.Audit.PlaceholderKeywords)
}

func TestConfigurationLoaderSearchPath(testInstance *testing.T) {
	workingDirectoryPath := testInstance.TempDir()
	configurationFilePath := filepath.Join(workingDirectoryPath, testConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(fmt.Sprintf(testConfigContentTemplateConstant, "debug")), 0o600))

	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, []string{workingDirectoryPath})
	loadedConfiguration := configurationFixture{}
	metadata, loadError := configurationLoader.LoadConfiguration("", defaultFixtureValues(), &loadedConfiguration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "debug", loadedConfiguration.Common.LogLevel)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderMissingExplicitFile(testInstance *testing.T) {
	configurationLoader := utils.NewConfigurationLoader(testConfigurationNameConstant, testConfigurationTypeConstant, testEnvironmentPrefixConstant, nil)
	loadedConfiguration := configurationFixture{}
	_, loadError := configurationLoader.LoadConfiguration(filepath.Join(testInstance.TempDir(), "absent.yaml"), defaultFixtureValues(), &loadedConfiguration)
	require.Error(testInstance, loadError)
}

package utils

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorOldConstant              = "."
	environmentKeySeparatorNewConstant              = "_"
	listSeparatorConstant                           = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
	environmentBindErrorTemplateConstant            = "failed to bind environment for %s: %w"
)

// ConfigurationLoader layers embedded defaults, an optional configuration file and
// environment variables into a mapstructure-tagged struct.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	environmentKeyReplacer    *strings.Replacer
	environmentAliases        map[string][]string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration surfaces metadata about the resolved configuration.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// NewConfigurationLoader creates a loader that searches searchPaths and maps
// <PREFIX>_<SECTION>_<KEY> environment variables onto section.key.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName:      configurationName,
		configurationType:      configurationType,
		environmentPrefix:      environmentPrefix,
		searchPaths:            append([]string(nil), searchPaths...),
		environmentKeyReplacer: strings.NewReplacer(environmentKeySeparatorOldConstant, environmentKeySeparatorNewConstant),
		environmentAliases:     make(map[string][]string),
	}
}

// SetEmbeddedConfiguration stores configuration data merged before any user-provided file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
}

// BindEnvironmentAliases lets key also be read from the listed variables, in order,
// after its prefixed variable.
func (loader *ConfigurationLoader) BindEnvironmentAliases(key string, environmentVariables ...string) {
	if loader == nil || len(environmentVariables) == 0 {
		return
	}
	loader.environmentAliases[key] = append(loader.environmentAliases[key], environmentVariables...)
}

// LoadConfiguration populates targetConfiguration. Precedence, lowest first: defaultValues,
// embedded configuration, configuration file, environment. Duration strings and comma
// separated lists are decoded into their field types.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	if len(loader.embeddedConfiguration) > 0 {
		configurationType := loader.configurationType
		if len(loader.embeddedConfigurationType) > 0 {
			configurationType = loader.embeddedConfigurationType
		}
		viperInstance.SetConfigType(configurationType)
		if mergeError := viperInstance.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	for _, searchPath := range loader.searchPaths {
		viperInstance.AddConfigPath(searchPath)
	}

	viperInstance.SetEnvPrefix(loader.environmentPrefix)
	viperInstance.SetEnvKeyReplacer(loader.environmentKeyReplacer)
	viperInstance.AutomaticEnv()
	if bindError := loader.bindAliases(viperInstance); bindError != nil {
		return LoadedConfiguration{}, bindError
	}

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(configurationFilePath) > 0 {
		if _, statError := os.Stat(configurationFilePath); statError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, statError)
		}
		viperInstance.SetConfigFile(configurationFilePath)
	}

	if readError := viperInstance.MergeInConfig(); readError != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(readError, &notFoundError) {
			return LoadedConfiguration{}, fmt.Errorf(configurationReadErrorTemplateConstant, readError)
		}
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(listSeparatorConstant),
	))
	if unmarshalError := viperInstance.Unmarshal(targetConfiguration, decodeHook); unmarshalError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
	}

	return LoadedConfiguration{ConfigFileUsed: viperInstance.ConfigFileUsed()}, nil
}

// bindAliases binds each aliased key to its prefixed variable followed by the aliases.
func (loader *ConfigurationLoader) bindAliases(viperInstance *viper.Viper) error {
	keys := make([]string, 0, len(loader.environmentAliases))
	for key := range loader.environmentAliases {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prefixedVariable := strings.ToUpper(loader.environmentKeyReplacer.Replace(key))
		if len(loader.environmentPrefix) > 0 {
			prefixedVariable = strings.ToUpper(loader.environmentPrefix) + environmentKeySeparatorNewConstant + prefixedVariable
		}
		bindArguments := append([]string{key, prefixedVariable}, loader.environmentAliases[key]...)
		if bindError := viperInstance.BindEnv(bindArguments...); bindError != nil {
			return fmt.Errorf(environmentBindErrorTemplateConstant, key, bindError)
		}
	}
	return nil
}

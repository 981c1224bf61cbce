package audit

import (
	"strings"

	"github.com/temirov/roleaudit/internal/roles"
)

const (
	defaultReportFileNameConstant  = "validation_report.md"
	defaultSummaryFileNameConstant = "audit_output.yaml"
	ansibleFactPrefixConstant      = "ansible_"

	requiredRoleDirectoriesKeyConstant = "required_role_dirs"
	placeholderKeywordsKeyConstant     = "placeholder_keywords"
	ignoredVariablesKeyConstant        = "ignored_variables"
	ignoredVariablePrefixesKeyConstant = "ignored_variable_prefixes"
	metaFileNamesKeyConstant           = "meta_file_names"
	reportFileNameKeyConstant          = "report_file_name"
	summaryFileNameKeyConstant         = "summary_file_name"
)

// Configuration captures the audit settings.
type Configuration struct {
	RequiredRoleDirectories []string `mapstructure:"required_role_dirs"`
	PlaceholderKeywords     []string `mapstructure:"placeholder_keywords"`
	IgnoredVariables        []string `mapstructure:"ignored_variables"`
	IgnoredVariablePrefixes []string `mapstructure:"ignored_variable_prefixes"`
	MetaFileNames           []string `mapstructure:"meta_file_names"`
	ReportFileName          string   `mapstructure:"report_file_name"`
	SummaryFileName         string   `mapstructure:"summary_file_name"`
}

// DefaultConfiguration returns the baseline audit settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		RequiredRoleDirectories: roles.DefaultRequiredDirectories(),
		PlaceholderKeywords:     roles.DefaultPlaceholderKeywords(),
		IgnoredVariables:        DefaultIgnoredVariables(),
		IgnoredVariablePrefixes: []string{ansibleFactPrefixConstant},
		MetaFileNames:           roles.DefaultMetaFileNames(),
		ReportFileName:          defaultReportFileNameConstant,
		SummaryFileName:         defaultSummaryFileNameConstant,
	}
}

// DefaultIgnoredVariables lists host-supplied names that are never reported as undefined.
func DefaultIgnoredVariables() []string {
	return []string{
		"item",
		"inventory_hostname",
		"inventory_hostname_short",
		"groups",
		"hostvars",
		"group_names",
		"loop",
		"geo_rule",
		"rule",
	}
}

// DefaultConfigurationValues returns the defaults keyed for a configuration loader under keyPrefix.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		keyPrefix + requiredRoleDirectoriesKeyConstant: defaults.RequiredRoleDirectories,
		keyPrefix + placeholderKeywordsKeyConstant:     defaults.PlaceholderKeywords,
		keyPrefix + ignoredVariablesKeyConstant:        defaults.IgnoredVariables,
		keyPrefix + ignoredVariablePrefixesKeyConstant: defaults.IgnoredVariablePrefixes,
		keyPrefix + metaFileNamesKeyConstant:           defaults.MetaFileNames,
		keyPrefix + reportFileNameKeyConstant:          defaults.ReportFileName,
		keyPrefix + summaryFileNameKeyConstant:         defaults.SummaryFileName,
	}
}

// Sanitize trims values and fills unset ones from the defaults.
// An explicitly empty list is kept, so an empty prefix list disables prefix filtering.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.RequiredRoleDirectories = sanitizeList(configuration.RequiredRoleDirectories, defaults.RequiredRoleDirectories)
	sanitized.PlaceholderKeywords = sanitizeList(configuration.PlaceholderKeywords, defaults.PlaceholderKeywords)
	sanitized.IgnoredVariables = sanitizeList(configuration.IgnoredVariables, defaults.IgnoredVariables)
	sanitized.IgnoredVariablePrefixes = sanitizeList(configuration.IgnoredVariablePrefixes, defaults.IgnoredVariablePrefixes)
	sanitized.MetaFileNames = sanitizeList(configuration.MetaFileNames, defaults.MetaFileNames)
	if len(sanitized.MetaFileNames) == 0 {
		sanitized.MetaFileNames = defaults.MetaFileNames
	}

	sanitized.ReportFileName = strings.TrimSpace(configuration.ReportFileName)
	if len(sanitized.ReportFileName) == 0 {
		sanitized.ReportFileName = defaults.ReportFileName
	}
	sanitized.SummaryFileName = strings.TrimSpace(configuration.SummaryFileName)
	if len(sanitized.SummaryFileName) == 0 {
		sanitized.SummaryFileName = defaults.SummaryFileName
	}

	return sanitized
}

func sanitizeList(raw []string, fallback []string) []string {
	if raw == nil {
		return append([]string{}, fallback...)
	}
	sanitized := make([]string, 0, len(raw))
	for _, value := range raw {
		trimmed := strings.TrimSpace(value)
		if len(trimmed) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmed)
	}
	return sanitized
}

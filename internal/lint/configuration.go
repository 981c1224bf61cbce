package lint

import "strings"

const (
	defaultExecutableConstant             = "ansible-lint"
	defaultStatusFileNameConstant         = "lint_status.yaml"
	defaultStatusMarkdownFileNameConstant = "lint_status.md"
	defaultProgressFileNameConstant       = "progress.md"
)

// Configuration captures the lint and progress settings.
type Configuration struct {
	Executable             string `mapstructure:"executable"`
	StatusFileName         string `mapstructure:"status_file_name"`
	StatusMarkdownFileName string `mapstructure:"status_markdown_file_name"`
	ProgressFileName       string `mapstructure:"progress_file_name"`
}

// DefaultConfiguration returns the baseline lint settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Executable:             defaultExecutableConstant,
		StatusFileName:         defaultStatusFileNameConstant,
		StatusMarkdownFileName: defaultStatusMarkdownFileNameConstant,
		ProgressFileName:       defaultProgressFileNameConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for a configuration loader under keyPrefix.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		keyPrefix + "executable":                defaults.Executable,
		keyPrefix + "status_file_name":          defaults.StatusFileName,
		keyPrefix + "status_markdown_file_name": defaults.StatusMarkdownFileName,
		keyPrefix + "progress_file_name":        defaults.ProgressFileName,
	}
}

// Sanitize trims values and fills blank ones from the defaults.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	return Configuration{
		Executable:             valueOrDefault(configuration.Executable, defaults.Executable),
		StatusFileName:         valueOrDefault(configuration.StatusFileName, defaults.StatusFileName),
		StatusMarkdownFileName: valueOrDefault(configuration.StatusMarkdownFileName, defaults.StatusMarkdownFileName),
		ProgressFileName:       valueOrDefault(configuration.ProgressFileName, defaults.ProgressFileName),
	}
}

func valueOrDefault(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}

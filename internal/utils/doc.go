// Package utils holds the configuration and logging plumbing shared by every roleaudit command.
//
// ConfigurationLoader layers embedded defaults, an optional YAML file and
// ROLEAUDIT_* environment variables through Viper. LoggerFactory builds the zap
// logger selected by --log-level and --log-format.
package utils

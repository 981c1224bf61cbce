package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/temirov/roleaudit/internal/ratelimit"
	"github.com/temirov/roleaudit/internal/reportcache"
)

const (
	defaultHostConstant            = "0.0.0.0"
	defaultPortConstant            = 8000
	defaultAuditTimeoutConstant    = 2 * time.Minute
	defaultShutdownTimeoutConstant = 10 * time.Second
	addressTemplateConstant        = "%s:%d"
)

// RateLimitConfiguration sizes the request token bucket.
type RateLimitConfiguration struct {
	MaxRequests  int           `mapstructure:"max_requests"`
	RefillPeriod time.Duration `mapstructure:"refill_period"`
}

// Configuration captures the HTTP surface settings.
type Configuration struct {
	Host         string                 `mapstructure:"host"`
	Port         int                    `mapstructure:"port"`
	APIKey       string                 `mapstructure:"api_key"`
	RateLimit    RateLimitConfiguration `mapstructure:"rate_limit"`
	AuditTimeout time.Duration          `mapstructure:"audit_timeout"`
	CacheFile    string                 `mapstructure:"cache_file"`
}

// DefaultConfiguration returns the baseline server settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		Host: defaultHostConstant,
		Port: defaultPortConstant,
		RateLimit: RateLimitConfiguration{
			MaxRequests:  ratelimit.DefaultMaxRequests,
			RefillPeriod: ratelimit.DefaultRefillPeriod,
		},
		AuditTimeout: defaultAuditTimeoutConstant,
		CacheFile:    reportcache.DefaultFileNameConstant,
	}
}

// DefaultConfigurationValues returns the defaults keyed for a configuration loader under keyPrefix.
func DefaultConfigurationValues(keyPrefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		keyPrefix + "host":                     defaults.Host,
		keyPrefix + "port":                     defaults.Port,
		keyPrefix + "api_key":                  defaults.APIKey,
		keyPrefix + "rate_limit.max_requests":  defaults.RateLimit.MaxRequests,
		keyPrefix + "rate_limit.refill_period": defaults.RateLimit.RefillPeriod.String(),
		keyPrefix + "audit_timeout":            defaults.AuditTimeout.String(),
		keyPrefix + "cache_file":               defaults.CacheFile,
	}
}

// Sanitize trims values and fills unset ones from the defaults.
// A zero max_requests is kept and disables throttling.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.Host = strings.TrimSpace(configuration.Host)
	if len(sanitized.Host) == 0 {
		sanitized.Host = defaults.Host
	}
	if sanitized.Port <= 0 {
		sanitized.Port = defaults.Port
	}
	sanitized.APIKey = strings.TrimSpace(configuration.APIKey)
	if sanitized.RateLimit.RefillPeriod <= 0 {
		sanitized.RateLimit.RefillPeriod = defaults.RateLimit.RefillPeriod
	}
	if sanitized.AuditTimeout <= 0 {
		sanitized.AuditTimeout = defaults.AuditTimeout
	}
	sanitized.CacheFile = strings.TrimSpace(configuration.CacheFile)
	if len(sanitized.CacheFile) == 0 {
		sanitized.CacheFile = defaults.CacheFile
	}
	return sanitized
}

// Address joins host and port.
func (configuration Configuration) Address() string {
	return fmt.Sprintf(addressTemplateConstant, configuration.Host, configuration.Port)
}

package server_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/server"
)

func TestConfigurationSanitize(testInstance *testing.T) {
	testCases := []struct {
		name            string
		input           server.Configuration
		expectedAddress string
		expectedMax     int
		expectedTimeout time.Duration
		expectedCache   string
	}{
		{
			name:            "defaults",
			input:           server.Configuration{},
			expectedAddress: "0.0.0.0:8000",
			expectedMax:     0,
			expectedTimeout: 2 * time.Minute,
			expectedCache:   "cache.json",
		},
		{
			name: "explicit_values",
			input: server.Configuration{
				Host:         " 127.0.0.1 ",
				Port:         9090,
				APIKey:       " secret ",
				RateLimit:    server.RateLimitConfiguration{MaxRequests: 3, RefillPeriod: time.Second},
				AuditTimeout: time.Second,
				CacheFile:    "/var/cache/roleaudit.json",
			},
			expectedAddress: "127.0.0.1:9090",
			expectedMax:     3,
			expectedTimeout: time.Second,
			expectedCache:   "/var/cache/roleaudit.json",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			sanitized := testCase.input.Sanitize()
			require.Equal(subTest, testCase.expectedAddress, sanitized.Address())
			require.Equal(subTest, testCase.expectedMax, sanitized.RateLimit.MaxRequests)
			require.Equal(subTest, testCase.expectedTimeout, sanitized.AuditTimeout)
			require.Equal(subTest, testCase.expectedCache, sanitized.CacheFile)
		})
	}
}

func TestDefaultConfiguration(testInstance *testing.T) {
	defaults := server.DefaultConfiguration()
	require.Equal(testInstance, 5, defaults.RateLimit.MaxRequests)
	require.Equal(testInstance, time.Minute, defaults.RateLimit.RefillPeriod)
	require.Equal(testInstance, "1m0s", server.DefaultConfigurationValues("server.")["server.rate_limit.refill_period"])
}

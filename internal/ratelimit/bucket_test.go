package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/ratelimit"
)

func TestTokenBucketAllowAt(testInstance *testing.T) {
	startTime := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name         string
		maxRequests  int
		refillPeriod time.Duration
		attempts     []time.Duration
		expected     []bool
	}{
		{
			name:         "capacity_then_throttled",
			maxRequests:  3,
			refillPeriod: 30 * time.Second,
			attempts:     []time.Duration{0, 0, 0, 0},
			expected:     []bool{true, true, true, false},
		},
		{
			name:         "refills_one_token_per_interval",
			maxRequests:  2,
			refillPeriod: 10 * time.Second,
			attempts:     []time.Duration{0, 0, time.Second, 6 * time.Second, 6 * time.Second},
			expected:     []bool{true, true, false, true, false},
		},
		{
			name:         "full_refill_after_period",
			maxRequests:  2,
			refillPeriod: 10 * time.Second,
			attempts:     []time.Duration{0, 0, 11 * time.Second, 11 * time.Second, 11 * time.Second},
			expected:     []bool{true, true, true, true, false},
		},
		{
			name:        "non_positive_capacity_is_unlimited",
			maxRequests: 0,
			attempts:    []time.Duration{0, 0, 0, 0, 0, 0},
			expected:    []bool{true, true, true, true, true, true},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			bucket := ratelimit.NewTokenBucket(testCase.maxRequests, testCase.refillPeriod)
			observed := make([]bool, 0, len(testCase.attempts))
			for _, offset := range testCase.attempts {
				observed = append(observed, bucket.AllowAt(startTime.Add(offset)))
			}
			require.Equal(subTest, testCase.expected, observed)
		})
	}
}

func TestNilTokenBucketAllows(testInstance *testing.T) {
	var bucket *ratelimit.TokenBucket
	require.True(testInstance, bucket.Allow())
}

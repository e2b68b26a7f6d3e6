// SPDX-License-Identifier: MPL-2.0

package fileops

import "time"

// DeletionPolicy controls how DeleteFile retries.
type DeletionPolicy struct {
	RetryAttempts        int
	SleepBetweenAttempts time.Duration
	// ThrowOnFailure makes DeleteFile return the last error once all
	// attempts are exhausted. When false the failure is swallowed.
	ThrowOnFailure bool
}

var (
	// TryThreeTimes retries three times and returns the error on exhaustion.
	TryThreeTimes = DeletionPolicy{
		RetryAttempts:        3,
		SleepBetweenAttempts: 100 * time.Millisecond,
		ThrowOnFailure:       true,
	}

	// TryThreeTimesIgnoreFailure retries three times and swallows the error.
	TryThreeTimesIgnoreFailure = DeletionPolicy{
		RetryAttempts:        3,
		SleepBetweenAttempts: 100 * time.Millisecond,
		ThrowOnFailure:       false,
	}
)

// attempts never goes below one.
func (p DeletionPolicy) attempts() int {
	return max(p.RetryAttempts, 1)
}

// copyBackoff is the sleep after a failed copy attempt (zero based):
// 100ms after the first, then attempt*1s.
func copyBackoff(attempt int) time.Duration {
	if attempt == 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(attempt) * time.Second
}

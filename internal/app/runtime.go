package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// testModeEnv makes the binaries return before touching postgres or redis.
const testModeEnv = "STOREFRONT_TEST_MODE"

const (
	testModeUnknown int32 = iota
	testModeOff
	testModeOn
)

var testMode atomic.Int32

// InTestMode reports whether the binaries should skip runtime side effects.
// The environment is read once; RefreshTestMode forces a re-read.
func InTestMode() bool {
	if state := testMode.Load(); state != testModeUnknown {
		return state == testModeOn
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new state.
func RefreshTestMode() bool {
	enabled, err := strconv.ParseBool(os.Getenv(testModeEnv))
	on := err == nil && enabled
	if on {
		testMode.Store(testModeOn)
	} else {
		testMode.Store(testModeOff)
	}
	return on
}

package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// Test mode suppresses runtime side effects such as opening listeners or
// dialing external services. It is keyed off BRANDED_TEST_MODE=1 and sampled
// lazily on first use.

const testModeEnv = "BRANDED_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func sampleTestMode() {
	v, _ := os.LookupEnv(testModeEnv)
	testModeFlag.Store(v == "1")
}

// InTestMode reports whether the process runs under the test harness.
func InTestMode() bool {
	testModeOnce.Do(sampleTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode re-samples the flag. Tests that toggle the environment via
// t.Setenv call this to make the change visible.
func RefreshTestMode() {
	sampleTestMode()
}

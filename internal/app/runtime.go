package app

import (
	"os"
	"sync/atomic"
)

// testModeEnv, when "1", makes main return before touching PostgreSQL, Redis
// or the network.
const testModeEnv = "STOCKROOM_TEST_MODE"

var testMode atomic.Bool

func init() {
	RefreshTestMode()
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	return testMode.Load()
}

// RefreshTestMode re-reads the environment, for callers that set the flag
// after package initialisation.
func RefreshTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}

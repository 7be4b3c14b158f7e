// Package guard flips the runtime into test mode as soon as it is imported.
// Test packages blank-import it so binaries under test never start servers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BRANDED_TEST_MODE") == "" {
			_ = os.Setenv("BRANDED_TEST_MODE", "1")
		}
	})
}

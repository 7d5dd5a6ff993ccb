// Package guard flags the process as a test run so application entry
// points skip runtime side effects. Blank-import it from test files.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BEATRIX_TEST_MODE") == "" {
			_ = os.Setenv("BEATRIX_TEST_MODE", "1")
		}
	})
}

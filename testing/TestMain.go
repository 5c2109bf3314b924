// Package testing prepares the environment for test binaries that import it:
// cmd entry points see JMS_TEST_MODE and return early, and config loading
// never picks up a developer's .env file.
package testing

import (
	"os"
	"path/filepath"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func prepare() {
	once.Do(func() {
		_ = os.Setenv("JMS_TEST_MODE", "1")
		if os.Getenv("ENV_FILE") == "" {
			_ = os.Setenv("ENV_FILE", filepath.Join(os.TempDir(), "jms-test-no-such.env"))
		}
	})
}

func init() {
	prepare()
}

func TestMain(m *stdtesting.M) {
	prepare()
	os.Exit(m.Run())
}

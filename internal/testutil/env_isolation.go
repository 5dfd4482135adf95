package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// includeVariables are read when resolving project and component includes.
var includeVariables = []string{"CI_API_V4_URL", "ACCESS_TOKEN", "CI_SERVER_FQDN"}

// IsolateEnvironment points HOME and the user configuration directory at a
// fresh temp directory and blanks every CONSIGLIERE_* and include variable,
// so neither the developer's configuration nor CI credentials leak into a
// test. It returns the temp directory.
//
// Tests calling it use t.Setenv and therefore cannot call t.Parallel().
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    home := testutil.IsolateEnvironment(t)
//	    // config.Load now only sees defaults and files below home
//	}
func IsolateEnvironment(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "CONSIGLIERE_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	for _, name := range includeVariables {
		t.Setenv(name, "")
	}
	return dir
}

// Env returns a getenv function backed by vars.
func Env(vars map[string]string) func(string) string {
	return func(name string) string {
		return vars[name]
	}
}

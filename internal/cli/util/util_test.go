// Package util tests the rules, config and version commands.
// Related: internal/cli/util/rules.go, internal/cli/util/config.go, internal/cli/util/version.go
// Tags: cli, rules, config, version
package util

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smurf667/pipeline-consigliere/internal/cli/shared"
	"github.com/smurf667/pipeline-consigliere/internal/lint"
	"github.com/smurf667/pipeline-consigliere/internal/testutil"
)

// run executes a utility command below a minimal root. The user config
// directory is isolated, so callers cannot use t.Parallel().
func run(t *testing.T, localConfig string, args ...string) string {
	t.Helper()
	dir := testutil.IsolateEnvironment(t)
	configPath := filepath.Join(dir, "config.json")
	if localConfig != "" {
		testutil.WriteFiles(t, dir, map[string]string{"config.json": localConfig})
	}

	root := &cobra.Command{Use: "pipeline-consigliere"}
	root.AddGroup(&cobra.Group{ID: shared.GroupInformation, Title: "Information:"})
	root.PersistentFlags().String(shared.ConfigFlagName, "", "")
	Register(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(append(args, "--"+shared.ConfigFlagName, configPath))
	require.NoError(t, root.Execute())
	return out.String()
}

func ids(output string) []string {
	var got []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			got = append(got, fields[0])
		}
	}
	return got
}

func TestRulesCmd(t *testing.T) {
	tests := map[string]struct {
		config   string
		args     []string
		expected []string
	}{
		"defaults": {
			args:     []string{"rules"},
			expected: []string{"jobs-artifacts-expire", "jobs-have-rules", "jobs-interruptible", "jobs-timeout", "pipeline-workflow"},
		},
		"configured": {
			config:   `{"enabled_rules": ["example-kebab-case"], "disabled_rules": ["jobs-timeout"]}`,
			args:     []string{"rules"},
			expected: []string{"example-kebab-case", "jobs-artifacts-expire", "jobs-have-rules", "jobs-interruptible", "pipeline-workflow"},
		},
		"all": {
			config:   `{"disabled_rules": ["jobs-timeout"]}`,
			args:     []string{"rules", "--all"},
			expected: []string{"example-kebab-case", "jobs-artifacts-expire", "jobs-have-rules", "jobs-interruptible", "jobs-timeout", "pipeline-workflow"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(run(t, tt.config, tt.args...)))
		})
	}
}

func TestPrintRules(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	PrintRules(&out, []*lint.Rule{
		{ID: "short", Title: "Short rule"},
		{ID: "a-longer-id", Title: "Longer rule", OptIn: true},
	})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "short")
	assert.Contains(t, lines[0], "Short rule")
	assert.Contains(t, lines[1], "Longer rule (opt-in)")
	assert.Equal(t, strings.Index(lines[0], "Short rule"), strings.Index(lines[1], "Longer rule"))
}

func TestConfigCmd(t *testing.T) {
	out := run(t, `{"level": "error", "cache_size": 5}`, "config")

	assert.Contains(t, out, "level = error")
	assert.Contains(t, out, "cache_size = 5")
	assert.Contains(t, out, "file = .gitlab-ci.yml")
	assert.Contains(t, out, "CONSIGLIERE_FETCH_TIMEOUT")
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	dir := testutil.IsolateEnvironment(t)
	testutil.WriteFiles(t, dir, map[string]string{"config.json": `{"level": "loud"}`})
	path := filepath.Join(dir, "config.json")

	cmd := &cobra.Command{}
	cmd.Flags().String(shared.ConfigFlagName, path, "")

	_, err := LoadConfig(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestVersionGlobalVariable(t *testing.T) {
	// These subtests modify global state and must run sequentially
	t.Run("IsDevBuild", func(t *testing.T) {
		tests := map[string]struct {
			version string
			want    bool
		}{
			"dev version":     {version: "dev", want: true},
			"release version": {version: "v1.2.0", want: false},
		}

		for name, tt := range tests {
			t.Run(name, func(t *testing.T) {
				origVersion := Version
				Version = tt.version
				defer func() { Version = origVersion }()

				assert.Equal(t, tt.want, IsDevBuild())
			})
		}
	})

	t.Run("PlainOutput", func(t *testing.T) {
		origVersion := Version
		Version = "v1.2.0"
		defer func() { Version = origVersion }()

		var out bytes.Buffer
		printPlainVersion(&out)

		assert.Contains(t, out.String(), "pipeline-consigliere v1.2.0\n")
		assert.Contains(t, out.String(), "go: "+runtime.Version())
		assert.Contains(t, out.String(), "platform: "+runtime.GOOS+"/"+runtime.GOARCH)
	})
}

func TestVersionCmd_Pretty(t *testing.T) {
	out := run(t, "", "version")

	assert.Contains(t, out, "pipeline-consigliere")
	assert.Contains(t, out, Version)
}

func TestDoctorCmd(t *testing.T) {
	pipeline := testutil.WritePipeline(t, t.TempDir(), "build:\n  script: make\n")

	out := run(t, "", "doctor", pipeline)

	assert.Contains(t, out, "✓ Configuration")
	assert.Contains(t, out, "✓ Pipeline file "+pipeline)
	assert.Contains(t, out, "! Warning: CI_API_V4_URL is not set")
}

func TestDoctorCmd_MissingFile(t *testing.T) {
	testutil.IsolateEnvironment(t)

	cmd := newDoctorCmd()
	cmd.Flags().String(shared.ConfigFlagName, "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{filepath.Join(t.TempDir(), "missing.yml")})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Equal(t, shared.ExitFailure, shared.ExitCode(err))
	assert.Contains(t, out.String(), "✗ Error: cannot read")
}

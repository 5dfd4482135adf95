// Package health_test tests the configuration, pipeline file and include
// environment checks.
// Related: internal/health/health.go
// Tags: health, doctor, config, environment

package health

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smurf667/pipeline-consigliere/internal/testutil"
)

func TestCheckPipelineFile(t *testing.T) {
	t.Parallel()

	dir := testutil.TempTree(t, map[string]string{
		"good.yml": "build:\n  script: make\n",
		"bad.yml":  "build: [unclosed\n",
	})

	tests := map[string]struct {
		file     string
		passed   bool
		contains string
	}{
		"valid yaml":   {file: "good.yml", passed: true, contains: "valid YAML"},
		"syntax error": {file: "bad.yml", passed: false, contains: "parsing errors exist"},
		"missing file": {file: "missing.yml", passed: false, contains: "cannot read"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			result := CheckPipelineFile(filepath.Join(dir, tt.file))
			assert.Equal(t, tt.passed, result.Passed)
			assert.Contains(t, result.Message, tt.contains)
			assert.False(t, result.Optional)
		})
	}
}

func TestCheckVariable(t *testing.T) {
	t.Parallel()

	getenv := testutil.Env(map[string]string{"ACCESS_TOKEN": "secret", "BLANK": "  "})

	assert.True(t, CheckVariable(getenv, "ACCESS_TOKEN").Passed)
	blank := CheckVariable(getenv, "BLANK")
	assert.False(t, blank.Passed)
	assert.True(t, blank.Optional)
	assert.Contains(t, blank.Message, "includes will be skipped")
}

func TestRunHealthChecks(t *testing.T) {
	dir := testutil.IsolateEnvironment(t)
	pipeline := testutil.WritePipeline(t, dir, "build:\n  script: make\n")

	report := RunHealthChecks(Options{
		ConfigPath: filepath.Join(dir, "none.json"),
		File:       pipeline,
		Getenv:     testutil.Env(nil),
	})

	require.Len(t, report.Checks, 4)
	assert.True(t, report.Passed, "missing credentials must not fail the report")
	assert.Equal(t, "CI_API_V4_URL", report.Checks[2].Name)
	assert.False(t, report.Checks[3].Passed)
}

func TestRunHealthChecks_InvalidConfiguration(t *testing.T) {
	dir := testutil.IsolateEnvironment(t)
	testutil.WriteFiles(t, dir, map[string]string{
		"config.json":    `{"level": "loud"}`,
		".gitlab-ci.yml": "build:\n  script: make\n",
	})

	report := RunHealthChecks(Options{
		ConfigPath: filepath.Join(dir, "config.json"),
		File:       filepath.Join(dir, ".gitlab-ci.yml"),
		Getenv:     testutil.Env(map[string]string{"CI_API_V4_URL": "x", "ACCESS_TOKEN": "y"}),
	})

	assert.False(t, report.Passed)
	assert.False(t, report.Checks[0].Passed)
	assert.True(t, report.Checks[1].Passed)
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report   *HealthReport
		expected []string
	}{
		"All checks pass": {
			report: &HealthReport{Passed: true, Checks: []CheckResult{
				{Name: "Configuration", Passed: true},
				{Name: "ACCESS_TOKEN", Passed: true, Optional: true},
			}},
			expected: []string{"✓ Configuration", "✓ ACCESS_TOKEN"},
		},
		"Failures and warnings": {
			report: &HealthReport{Checks: []CheckResult{
				{Name: "Configuration", Message: "config validation failed"},
				{Name: "ACCESS_TOKEN", Message: "ACCESS_TOKEN is not set", Optional: true},
			}},
			expected: []string{"✗ Error: config validation failed", "! Warning: ACCESS_TOKEN is not set"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			lines := strings.Split(strings.TrimSpace(FormatReport(tt.report)), "\n")
			assert.Equal(t, tt.expected, lines)
		})
	}
}

// Package health checks the prerequisites of a lint run before it starts.
package health

import (
	"fmt"
	"os"
	"strings"

	"github.com/smurf667/pipeline-consigliere/internal/config"
	"github.com/smurf667/pipeline-consigliere/internal/document"
	"github.com/smurf667/pipeline-consigliere/internal/include"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks are reported but do not fail the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options configures RunHealthChecks.
type Options struct {
	// ConfigPath is the local configuration file.
	ConfigPath string
	// File overrides the configured pipeline file when set.
	File   string
	Getenv func(string) string
}

// RunHealthChecks runs all health checks and returns a report
func RunHealthChecks(opts Options) *HealthReport {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 4),
		Passed: true,
	}
	add := func(check CheckResult) {
		report.Checks = append(report.Checks, check)
		if !check.Passed && !check.Optional {
			report.Passed = false
		}
	}

	cfg, check := CheckConfiguration(opts.ConfigPath)
	add(check)

	file := opts.File
	if file == "" {
		file = config.KnownKeys["file"].Default.(string)
		if cfg != nil {
			file = cfg.File
		}
	}
	add(CheckPipelineFile(file))
	add(CheckVariable(opts.Getenv, include.EnvAPIURL))
	add(CheckVariable(opts.Getenv, include.EnvToken))

	return report
}

// CheckConfiguration loads and validates the configuration.
func CheckConfiguration(path string) (*config.Configuration, CheckResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, CheckResult{
			Name:    "Configuration",
			Passed:  false,
			Message: err.Error(),
		}
	}

	return cfg, CheckResult{
		Name:    "Configuration",
		Passed:  true,
		Message: "Configuration is valid",
	}
}

// CheckPipelineFile checks that path exists and is valid YAML.
func CheckPipelineFile(path string) CheckResult {
	name := "Pipeline file " + path
	data, err := os.ReadFile(path)
	if err != nil {
		return CheckResult{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}
	if _, err := document.Parse(path, data); err != nil {
		return CheckResult{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("parsing errors exist in %s: %v", path, err),
		}
	}

	return CheckResult{
		Name:    name,
		Passed:  true,
		Message: "Pipeline file is valid YAML",
	}
}

// CheckVariable checks that an environment variable needed for project and
// component includes is set.
func CheckVariable(getenv func(string) string, name string) CheckResult {
	if strings.TrimSpace(getenv(name)) == "" {
		return CheckResult{
			Name:     name,
			Passed:   false,
			Message:  name + " is not set; project and component includes will be skipped",
			Optional: true,
		}
	}

	return CheckResult{
		Name:     name,
		Passed:   true,
		Message:  name + " is set",
		Optional: true,
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var output strings.Builder

	for _, check := range report.Checks {
		switch {
		case check.Passed:
			fmt.Fprintf(&output, "✓ %s\n", check.Name)
		case check.Optional:
			fmt.Fprintf(&output, "! Warning: %s\n", check.Message)
		default:
			fmt.Fprintf(&output, "✗ Error: %s\n", check.Message)
		}
	}

	return output.String()
}

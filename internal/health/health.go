// Package health provides dependency health checks for openapi-diagram. It
// validates that java, graphviz and the renderer cache are usable, returning
// structured reports used by the 'openapi-diagram doctor' command.
package health

import (
	"fmt"
	"os"
	"strings"
)

// Dependencies locates the external tools. *renderer.Invoker implements it.
type Dependencies interface {
	JavaPath() (string, error)
	GraphvizInstalled() bool
}

// Cache is the renderer jar cache. *artifact.Cache implements it.
type Cache interface {
	Root() string
	Has(version string) bool
	Path(version string) string
}

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

// RunHealthChecks runs all health checks and returns a report.
func RunHealthChecks(deps Dependencies, cache Cache, version string) *HealthReport {
	report := &HealthReport{
		Checks: make([]CheckResult, 0, 4),
		Passed: true,
	}

	for _, check := range []CheckResult{
		CheckJava(deps),
		CheckGraphviz(deps),
		CheckCacheDir(cache.Root()),
		CheckRenderer(cache, version),
	} {
		report.Checks = append(report.Checks, check)
		if !check.Passed && !check.Optional {
			report.Passed = false
		}
	}
	return report
}

// CheckJava checks that a java executable can be found.
func CheckJava(deps Dependencies) CheckResult {
	path, err := deps.JavaPath()
	if err != nil {
		return CheckResult{
			Name:    "Java",
			Passed:  false,
			Message: "java not found (set JAVA_HOME or add java to PATH)",
		}
	}
	return CheckResult{
		Name:    "Java",
		Passed:  true,
		Message: fmt.Sprintf("found at %s", path),
	}
}

// CheckGraphviz checks for the dot binary. Only some formats need it.
func CheckGraphviz(deps Dependencies) CheckResult {
	if !deps.GraphvizInstalled() {
		return CheckResult{
			Name:     "Graphviz",
			Passed:   false,
			Message:  "dot not found in PATH, some output formats might not be available",
			Optional: true,
		}
	}
	return CheckResult{
		Name:     "Graphviz",
		Passed:   true,
		Message:  "dot found",
		Optional: true,
	}
}

// CheckCacheDir checks that the cache directory exists and is writable.
func CheckCacheDir(root string) CheckResult {
	name := "Cache directory"
	info, err := os.Stat(root)
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("%s: %v", root, err)}
	}
	if !info.IsDir() {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("%s is not a directory", root)}
	}

	probe, err := os.CreateTemp(root, ".doctor-*")
	if err != nil {
		return CheckResult{Name: name, Passed: false, Message: fmt.Sprintf("%s is not writable: %v", root, err)}
	}
	probe.Close()
	os.Remove(probe.Name())

	return CheckResult{Name: name, Passed: true, Message: root}
}

// CheckRenderer reports whether the renderer jar is already cached. A missing
// jar is downloaded on first use, so the check is optional.
func CheckRenderer(cache Cache, version string) CheckResult {
	name := fmt.Sprintf("Renderer %s", version)
	if cache.Has(version) {
		return CheckResult{Name: name, Passed: true, Message: cache.Path(version), Optional: true}
	}
	return CheckResult{
		Name:     name,
		Passed:   false,
		Message:  fmt.Sprintf("not cached, run 'openapi-diagram cache get --version %s'", version),
		Optional: true,
	}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var b strings.Builder
	for _, check := range report.Checks {
		b.WriteString(FormatCheck(check))
	}
	return b.String()
}

// FormatCheck formats a single check. Failed optional checks get a hollow
// marker instead of a cross.
func FormatCheck(check CheckResult) string {
	switch {
	case check.Passed:
		return fmt.Sprintf("✓ %s: %s\n", check.Name, check.Message)
	case check.Optional:
		return fmt.Sprintf("○ %s: %s\n", check.Name, check.Message)
	default:
		return fmt.Sprintf("✗ %s: %s\n", check.Name, check.Message)
	}
}

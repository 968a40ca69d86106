package health

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeps struct {
	java     string
	graphviz bool
}

func (f fakeDeps) JavaPath() (string, error) {
	if f.java == "" {
		return "", errors.New("java missing")
	}
	return f.java, nil
}

func (f fakeDeps) GraphvizInstalled() bool { return f.graphviz }

type fakeCache struct {
	root   string
	cached map[string]bool
}

func (f fakeCache) Root() string            { return f.root }
func (f fakeCache) Has(version string) bool { return f.cached[version] }
func (f fakeCache) Path(version string) string {
	return filepath.Join(f.root, "openapi-to-plantuml-"+version+".jar")
}

func TestRunHealthChecks(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		deps       fakeDeps
		cached     bool
		missingDir bool
		wantPassed bool
		wantFailed []string
	}{
		"all good": {
			deps:       fakeDeps{java: "/usr/bin/java", graphviz: true},
			cached:     true,
			wantPassed: true,
		},
		"optional checks failing still pass": {
			deps:       fakeDeps{java: "/usr/bin/java"},
			wantPassed: true,
			wantFailed: []string{"Graphviz", "Renderer 0.1.28"},
		},
		"java missing fails": {
			deps:       fakeDeps{graphviz: true},
			cached:     true,
			wantPassed: false,
			wantFailed: []string{"Java"},
		},
		"cache dir missing fails": {
			deps:       fakeDeps{java: "/usr/bin/java", graphviz: true},
			cached:     true,
			missingDir: true,
			wantPassed: false,
			wantFailed: []string{"Cache directory"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			if tt.missingDir {
				root = filepath.Join(root, "missing")
			}
			cache := fakeCache{root: root, cached: map[string]bool{"0.1.28": tt.cached}}

			report := RunHealthChecks(tt.deps, cache, "0.1.28")
			require.Len(t, report.Checks, 4)
			assert.Equal(t, tt.wantPassed, report.Passed)

			var failed []string
			for _, check := range report.Checks {
				if !check.Passed {
					failed = append(failed, check.Name)
				}
			}
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

func TestCheckCacheDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result := CheckCacheDir(dir)
	assert.True(t, result.Passed)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file must be removed")

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	result = CheckCacheDir(file)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Message, "not a directory")

	if runtime.GOOS != "windows" && os.Geteuid() != 0 {
		readOnly := filepath.Join(dir, "ro")
		require.NoError(t, os.Mkdir(readOnly, 0o555))
		result = CheckCacheDir(readOnly)
		assert.False(t, result.Passed)
		assert.Contains(t, result.Message, "not writable")
	}
}

func TestFormatReport(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report   *HealthReport
		expected []string
	}{
		"All checks pass": {
			report: &HealthReport{
				Checks: []CheckResult{
					{Name: "Java", Passed: true, Message: "found at /usr/bin/java"},
					{Name: "Graphviz", Passed: true, Message: "dot found", Optional: true},
				},
				Passed: true,
			},
			expected: []string{
				"✓ Java: found at /usr/bin/java",
				"✓ Graphviz: dot found",
			},
		},
		"Mixed results": {
			report: &HealthReport{
				Checks: []CheckResult{
					{Name: "Java", Passed: false, Message: "java not found"},
					{Name: "Renderer 0.1.28", Passed: false, Message: "not cached", Optional: true},
				},
			},
			expected: []string{
				"✗ Java: java not found",
				"○ Renderer 0.1.28: not cached",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			output := FormatReport(tt.report)
			for _, want := range tt.expected {
				assert.Contains(t, output, want)
			}
			assert.Equal(t, len(tt.report.Checks), strings.Count(output, "\n"))
		})
	}
}

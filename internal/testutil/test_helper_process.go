// Package testutil provides test helpers, most notably a fake
// openapi-to-plantuml renderer that runs as a helper process of the test
// binary so renderer tests need no java installation.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ariel-frischer/openapi-diagram/internal/specdoc"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

// HelperProcessConfig configures the behavior of the fake renderer.
type HelperProcessConfig struct {
	// ExitCode is the exit code to return (default 0). A non-zero exit code
	// skips writing any output.
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
	// CallLog, when set, is a YAML file every invocation is appended to.
	CallLog string `json:"call_log"`
	// Sleep delays the process before it does anything.
	Sleep time.Duration `json:"sleep"`
}

// Environment variables used by the helper process.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// TestHelperProcess turns the running test binary into the fake renderer when
// GO_WANT_HELPER_PROCESS=1 and exits. Otherwise it returns immediately.
//
// Usage in a test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := parseHelperConfig()
	os.Exit(runFakeRenderer(config, helperArgs(os.Args)))
}

// helperArgs returns the arguments following "--".
func helperArgs(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args[i+1:]
		}
	}
	return nil
}

// parseHelperConfig parses HelperProcessConfig from environment variable.
func parseHelperConfig() HelperProcessConfig {
	config := HelperProcessConfig{}
	if configJSON := os.Getenv(EnvHelperProcessConfig); configJSON != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(configJSON), &config)
	}
	return config
}

// runFakeRenderer mimics `java -jar <jar> <mode> <spec> <FORMAT> <output>`.
// Single mode copies the staged spec to the output file. Split mode writes one
// file per operation, named <operation>.<format>, into the output directory.
func runFakeRenderer(config HelperProcessConfig, args []string) int {
	if config.Sleep > 0 {
		time.Sleep(config.Sleep)
	}
	if config.Stdout != "" {
		fmt.Fprint(os.Stdout, config.Stdout)
	}
	if config.Stderr != "" {
		fmt.Fprint(os.Stderr, config.Stderr)
	}

	exitCode := config.ExitCode
	var renderErr error
	if exitCode == 0 {
		if renderErr = render(args); renderErr != nil {
			fmt.Fprintln(os.Stderr, renderErr)
			exitCode = 2
		}
	}

	if config.CallLog != "" {
		record := CallRecord{Args: args, Timestamp: time.Now(), ExitCode: exitCode, Error: renderErr}
		if err := AppendCallLog(config.CallLog, record); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	return exitCode
}

func render(args []string) error {
	if err := ValidateRendererArgs(args); err != nil {
		return err
	}
	mode, spec, format, output := args[2], args[3], args[4], args[5]

	data, err := os.ReadFile(spec)
	if err != nil {
		return err
	}
	ext := "." + strings.ToLower(format)

	if mode == "single" {
		return os.WriteFile(output, data, 0o644)
	}

	doc, err := specdoc.ParseJSON(data)
	if err != nil {
		return err
	}
	ops, err := staging.Operations(doc)
	if err != nil {
		return err
	}
	for _, op := range ops {
		name := strings.NewReplacer("/", "_", " ", "_").Replace(op) + ext
		if err := os.WriteFile(filepath.Join(output, name), []byte(op), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// FakeRendererCommand returns a command builder that runs the test binary as
// the fake renderer instead of java. testName must name a test function that
// calls TestHelperProcess.
func FakeRendererCommand(t *testing.T, testName string, config HelperProcessConfig) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}
	configJSON, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("encoding helper config: %v", err)
	}

	return func(ctx context.Context, _ string, args ...string) *exec.Cmd {
		cmdArgs := append([]string{"-test.run=^" + testName + "$", "--"}, args...)
		cmd := exec.CommandContext(ctx, testBinary, cmdArgs...)
		cmd.Env = append(os.Environ(),
			EnvWantHelperProcess+"=1",
			EnvHelperProcessConfig+"="+string(configJSON),
		)
		return cmd
	}
}

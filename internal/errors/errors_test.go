package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/fetch"
	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  *CLIError
		want string
	}{
		"message only": {
			err:  NewRuntimeError("boom"),
			want: "Error [Runtime Error]: boom\n",
		},
		"with usage and remediation": {
			err:  NewArgumentErrorWithUsage("bad mode", "openapi-diagram create --mode single", "use single", "or split"),
			want: "Error [Argument Error]: bad mode\n\nUsage: openapi-diagram create --mode single\n\nTo fix this:\n  • use single\n  • or split\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatErrorPlain(tt.err))
		})
	}

	assert.Empty(t, FormatErrorPlain(nil))
	assert.Empty(t, FormatError(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	wrapped := WrapWithMessage(cause, Runtime, "writing cache")
	assert.Equal(t, "writing cache: disk full", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, WrapWithMessage(nil, Runtime, "x"))

	outer := fmt.Errorf("command: %w", NewConfigError("bad"))
	assert.True(t, IsCLIError(outer))
	assert.Equal(t, Configuration, AsCLIError(outer).Category)
	assert.False(t, IsCLIError(cause))
}

func TestFromError(t *testing.T) {
	t.Parallel()

	_, modeErr := renderer.ParseMode("both")
	_, formatErr := renderer.ParseFormat("pdf")

	tests := map[string]struct {
		err          error
		wantCategory ErrorCategory
		wantMessage  string
	}{
		"unsupported file": {
			err:          fmt.Errorf("staging: %w", &staging.UnsupportedFileFormatError{Suffix: ".txt"}),
			wantCategory: Argument,
			wantMessage:  "File type: *.txt is not supported.",
		},
		"invalid mode": {
			err:          modeErr,
			wantCategory: Argument,
			wantMessage:  `invalid mode: "both"`,
		},
		"invalid format": {
			err:          formatErr,
			wantCategory: Argument,
			wantMessage:  `invalid diagram format: "pdf"`,
		},
		"java missing": {
			err:          &renderer.MissingDependencyError{Dependency: "java", Message: renderer.JavaMissingMessage},
			wantCategory: Prerequisite,
			wantMessage:  renderer.JavaMissingMessage,
		},
		"checksum mismatch": {
			err:          fmt.Errorf("resolving: %w", &artifact.VerificationError{}),
			wantCategory: Runtime,
			wantMessage:  "resolving: Downloaded openapi-to-plantuml jar has invalid hash.",
		},
		"renderer failed": {
			err:          &renderer.ExecutionError{ExitCode: 1},
			wantCategory: Runtime,
			wantMessage:  "rendering failed: openapi-to-plantuml failed with exit code 1",
		},
		"timeout": {
			err:          fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantCategory: Runtime,
			wantMessage:  "operation timed out: fetch: context deadline exceeded",
		},
		"server rejected spec": {
			err:          fmt.Errorf("fetching: %w", &fetch.StatusError{StatusCode: 422, Detail: "bad spec"}),
			wantCategory: Argument,
			wantMessage:  "diagram server returned 422: bad spec",
		},
		"server failed": {
			err:          &fetch.StatusError{StatusCode: 500},
			wantCategory: Runtime,
			wantMessage:  "diagram server returned 500",
		},
		"unknown": {
			err:          stderrors.New("strange"),
			wantCategory: Runtime,
			wantMessage:  "strange",
		},
		"already a cli error": {
			err:          NothingCached("0.1.1"),
			wantCategory: Argument,
			wantMessage:  "Nothing cached for version '0.1.1'.",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := FromError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.Nil(t, FromError(nil))
}

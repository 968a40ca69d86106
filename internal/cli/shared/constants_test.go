package shared

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupConstantsUniqueness(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, g := range []string{GroupGettingStarted, GroupDiagrams, GroupCache, GroupConfiguration} {
		assert.False(t, seen[g], "duplicate group %q", g)
		seen[g] = true
	}
}

func TestEnvConstantsShareConfigPrefix(t *testing.T) {
	t.Parallel()

	for _, env := range []string{EnvSpecFilePath, EnvOutputPath, EnvMode, EnvFormat} {
		assert.True(t, strings.HasPrefix(env, "OPENAPI_DIAGRAM_"), env)
	}
}

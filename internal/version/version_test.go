package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "openapi-diagram/"+Version, UserAgent())
	assert.Equal(t, Version == "dev", IsDevBuild())
}

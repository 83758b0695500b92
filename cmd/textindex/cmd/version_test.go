package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/textindex/pkg/version"
)

func TestVersionCmd_DefaultOutput(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "textindex")
	assert.Contains(t, stdout, version.Version)
	assert.Contains(t, stdout, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, "", "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, version.Version, strings.TrimSpace(stdout))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, "", "version", "--json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &info))
	assert.Equal(t, version.Version, info["version"])
	for _, key := range []string{"commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, info, key)
	}
}

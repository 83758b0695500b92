package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/textindex/internal/config"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
	assert.True(t, names["path"])
}

func TestConfigPathCmd(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, "", "config", "path")

	require.NoError(t, err)
	assert.Equal(t, config.GetUserConfigPath(), strings.TrimSpace(stdout))
}

func TestConfigInitCmd_CreatesThenBacksUp(t *testing.T) {
	// Given: no user configuration
	isolate(t)
	path := config.GetUserConfigPath()

	// When: initializing
	stdout, _, err := executeCmd(t, "", "config", "init")

	// Then: the file holds the defaults
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created user configuration")
	require.FileExists(t, path)

	// When: initializing again without --force
	stdout, _, err = executeCmd(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")

	// When: forcing
	require.NoError(t, os.WriteFile(path, []byte("index:\n  workers: 2\n"), 0o644))
	stdout, _, err = executeCmd(t, "", "config", "init", "--force")

	// Then: the previous file is backed up and replaced
	require.NoError(t, err)
	assert.Contains(t, stdout, "Backup:")
	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "index:\n  workers: 2\n", string(data))
}

func TestConfigShowCmd_MergesProjectFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".textindex.yaml"), []byte("index:\n  workers: 3\n"), 0o644))

	stdout, _, err := executeCmd(t, "", "config", "show", "--json")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(stdout), &cfg))
	assert.Equal(t, 3, cfg.Index.Workers)
}

func TestConfigShowCmd_YAML(t *testing.T) {
	isolate(t)

	stdout, _, err := executeCmd(t, "", "config", "show", "--token", "x")

	require.NoError(t, err)
	assert.Contains(t, stdout, "token: x")
	assert.Contains(t, stdout, "event_buffer_size: 1000")
}

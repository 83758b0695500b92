package cmd

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

func TestIndexCmd_PrintsStats(t *testing.T) {
	// Given: a directory with two text files
	dir := isolate(t)
	writeFiles(t, dir, map[string]string{
		"a.txt":     "This is a test file.",
		"sub/b.txt": "another test",
	})

	// When: indexing the current directory
	stdout, _, err := executeCmd(t, "", "index")

	// Then: both files are reported
	require.NoError(t, err)
	assert.Contains(t, stdout, "Indexed 2 files")
	assert.Contains(t, stdout, "Words:")
}

func TestIndexCmd_JSON(t *testing.T) {
	dir := isolate(t)
	writeFiles(t, dir, map[string]string{
		"a.txt": "This is a test file.",
		"b.txt": "another test",
	})

	stdout, _, err := executeCmd(t, "", "index", dir, "--json")
	require.NoError(t, err)

	var summary indexSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 2, summary.Stats.Files)
	assert.Equal(t, 6, summary.Stats.Words, "this is a test file. another")
	assert.Equal(t, 0, summary.Failures)
}

func TestIndexCmd_CustomToken(t *testing.T) {
	dir := isolate(t)
	writeFiles(t, dir, map[string]string{"a.csv": "alpha,beta,,gamma"})

	stdout, _, err := executeCmd(t, "", "index", "--token", ",", "--json")
	require.NoError(t, err)

	var summary indexSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 3, summary.Stats.Words)
}

func TestIndexCmd_InvalidToken(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, "", "index", "--token", "[")

	require.Error(t, err)
}

func TestIndexCmd_MissingPathIsSkipped(t *testing.T) {
	dir := isolate(t)
	writeFiles(t, dir, map[string]string{"a.txt": "word"})

	stdout, _, err := executeCmd(t, "", "index", "a.txt", "missing.txt", "--json")
	require.NoError(t, err)

	var summary indexSummary
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 1, summary.Stats.Files)
}

func TestCountFailures(t *testing.T) {
	assert.Equal(t, 0, countFailures(nil))
	assert.Equal(t, 1, countFailures(ierrors.IOError("/a", errors.New("boom"))))
	assert.Equal(t, 2, countFailures(errors.Join(
		ierrors.IOError("/a", errors.New("boom")),
		ierrors.IOError("/b", errors.New("boom")),
	)))
}

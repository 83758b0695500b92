package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/textindex/pkg/searcher"
)

func TestSearchCmd_ListsMatchingFiles(t *testing.T) {
	// Given: three files, two containing "test"
	dir := isolate(t)
	paths := writeFiles(t, dir, map[string]string{
		"a.txt": "This is a test file.",
		"b.txt": "another TEST",
		"c.txt": "nothing here",
	})

	// When: searching case-insensitively
	stdout, _, err := executeCmd(t, "", "search", "Test", dir)

	// Then: matching files are listed in path order
	require.NoError(t, err)
	assert.Equal(t, []string{paths["a.txt"], paths["b.txt"]}, strings.Fields(stdout))
}

func TestSearchCmd_NoMatch(t *testing.T) {
	dir := isolate(t)
	writeFiles(t, dir, map[string]string{"a.txt": "alpha"})

	stdout, stderr, err := executeCmd(t, "", "search", "beta")

	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, `No files contain "beta"`)
}

func TestSearchCmd_JSON(t *testing.T) {
	dir := isolate(t)
	paths := writeFiles(t, dir, map[string]string{"a.txt": "alpha beta"})

	stdout, _, err := executeCmd(t, "", "search", "beta", "--json")
	require.NoError(t, err)

	var got []string
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []string{paths["a.txt"]}, got)
}

func TestSearchCmd_RequiresWord(t *testing.T) {
	isolate(t)

	_, _, err := executeCmd(t, "", "search")
	require.Error(t, err)

	_, _, err = executeCmd(t, "", "search", "   ")
	require.Error(t, err, "blank word is invalid")
}

func TestFindCmd_ReportsPositions(t *testing.T) {
	// Given: two files containing "test" at known columns
	dir := isolate(t)
	paths := writeFiles(t, dir, map[string]string{
		"a.txt": "This is a test file.\nno match\ntest test",
		"b.txt": "another test",
	})

	// When: locating the pattern as JSON
	stdout, _, err := executeCmd(t, "", "find", "test", dir, "--json")
	require.NoError(t, err)

	// Then: every occurrence is reported with zero-based line and column
	var got []searcher.PathWithPosition
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, []searcher.PathWithPosition{
		{Path: paths["a.txt"], Positions: []searcher.Position{{Line: 0, Column: 10}, {Line: 2, Column: 0}, {Line: 2, Column: 5}}},
		{Path: paths["b.txt"], Positions: []searcher.Position{{Line: 0, Column: 8}}},
	}, got)
}

func TestFindCmd_TextOutput(t *testing.T) {
	dir := isolate(t)
	paths := writeFiles(t, dir, map[string]string{"a.txt": "one two"})

	stdout, _, err := executeCmd(t, "", "find", "two")

	require.NoError(t, err)
	assert.Equal(t, paths["a.txt"]+"\n  0:4\n", stdout)
}

func TestFindCmd_CaseMismatchKeepsCandidate(t *testing.T) {
	dir := isolate(t)
	paths := writeFiles(t, dir, map[string]string{"a.txt": "Error"})

	stdout, _, err := executeCmd(t, "", "find", "error")

	require.NoError(t, err)
	assert.Equal(t, paths["a.txt"]+" (no occurrences)\n", stdout)
}

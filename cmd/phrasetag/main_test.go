package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrasetag/phrasetag/internal/report"
)

func writeTagConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "places.txt"), []byte("new york\nyork\n"), 0o600))
	path := filepath.Join(dir, "phrasetag.yaml")
	doc := `
configVersion: 1
normalize:
  lowercase: true
logging:
  level: error
  matchLog: logs/match.jsonl
sets:
  - name: places
    phrasesFile: places.txt
    output: chunks
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path, dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTagTextFormat(t *testing.T) {
	path, _ := writeTagConfig(t)

	out, err := execute(t, "I love New York\nnothing here\n", "tag", "-c", path, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "1\tplaces\ti love [new york]\n2\tplaces\tnothing here\n", out)
}

func TestTagJSONWritesMatchLog(t *testing.T) {
	path, dir := writeTagConfig(t)

	out, err := execute(t, "york\nNew York\n", "tag", "-c", path)
	require.NoError(t, err)

	var lines []tagLine
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		var line tagLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, 1, lines[0].Line)
	require.Len(t, lines[1].Sets, 1)
	require.Len(t, lines[1].Sets[0].Hits, 1)
	assert.Equal(t, []string{"new", "york"}, lines[1].Sets[0].Hits[0].Phrase)

	data, err := os.ReadFile(filepath.Join(dir, "logs", "match.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestTagUnknownSet(t *testing.T) {
	path, _ := writeTagConfig(t)

	_, err := execute(t, "york\n", "tag", "-c", path, "--sets", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestValidateCommand(t *testing.T) {
	path, _ := writeTagConfig(t)

	out, err := execute(t, "", "validate", "-c", path)
	require.NoError(t, err)
	assert.Equal(t, "config ok\n", out)

	_, err = execute(t, "", "validate", "-c", path, "--serve")
	require.Error(t, err)
}

func TestValidateCompilesPhrases(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phrasetag.yaml")
	doc := `
configVersion: 1
sets:
  - name: punctuation
    phrases: ["!!!"]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := execute(t, "", "validate", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tokens")
	assert.Empty(t, out)
}

func TestReportRanksTaggedPhrases(t *testing.T) {
	path, dir := writeTagConfig(t)

	_, err := execute(t, "york\nnew york\nyork city\n", "tag", "-c", path)
	require.NoError(t, err)

	logPath := filepath.Join(dir, "logs", "match.jsonl")
	out, err := execute(t, "", "report", "--log", logPath, "--top", "1", "--format", "json")
	require.NoError(t, err)

	var summary report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Hits)
	require.Len(t, summary.TopPhrases, 1)
	assert.Equal(t, report.CountItem{Key: "york", Count: 2}, summary.TopPhrases[0])

	_, err = execute(t, "", "report", "--log", logPath, "--top", "0")
	require.Error(t, err)
}

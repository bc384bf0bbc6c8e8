package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"gator-social/internal/engine"
	"gator-social/internal/scenario"
	"gator-social/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memory(context.Context) (storage.Backend, error) {
	return storage.NewMemoryBackend(), nil
}

func TestReplayScenarioFiles(t *testing.T) {
	files, err := filepath.Glob("../../internal/scenario/testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		res := replayFile(context.Background(), file, memory, engine.DefaultParams(), zap.NewNop())
		assert.True(t, res.Passed, "%s: %s", file, res.Error)
		assert.Positive(t, res.Events, file)
	}
}

func TestReplayReportsFailedCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: broken
steps:
  - as: alice
    op: create_space
    args: {handle: broken_space}
    save: s
checks:
  - space: s
    field: followers_count
    equals: 5
`), 0o600))

	res := replayFile(context.Background(), path, memory, engine.DefaultParams(), zap.NewNop())
	assert.False(t, res.Passed)
	assert.Contains(t, res.Error, "check 1")
}

func TestReplayMissingFile(t *testing.T) {
	res := replayFile(context.Background(), "does-not-exist.yaml", memory, engine.DefaultParams(), zap.NewNop())
	assert.False(t, res.Passed)
	assert.NotEmpty(t, res.Error)
}

func TestPrintResultsText(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)

	err := printResults(cmd, "text", []replayResult{
		{File: "a.yaml", Name: "a", Steps: 2, Passed: true},
		{File: "b.yaml", Name: "b", Error: "boom"},
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "PASS  a (a.yaml)")
	assert.Contains(t, out.String(), "FAIL  b (b.yaml)")
	assert.Contains(t, out.String(), "boom")
}

func TestResolveAccount(t *testing.T) {
	id := uuid.New()
	got, err := resolveAccount(id.String(), false)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = resolveAccount("alice", true)
	require.NoError(t, err)
	assert.Equal(t, scenario.AccountID("alice"), got)

	_, err = resolveAccount("alice", false)
	assert.Error(t, err)
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--format", "xml", "token", uuid.NewString()})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	assert.ErrorContains(t, err, "invalid format")
}

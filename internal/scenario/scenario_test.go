package scenario

import (
	"context"
	"path/filepath"
	"testing"

	"gator-social/internal/engine"
	"gator-social/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, sc *Scenario) (*Runner, error) {
	t.Helper()
	e := engine.New(storage.NewMemoryBackend(), engine.Options{Params: sc.Params.Apply(engine.DefaultParams())})
	r := NewRunner(e)
	return r, r.Run(context.Background(), sc)
}

func TestScenarioFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			sc, err := Load(path)
			require.NoError(t, err)
			_, err = run(t, sc)
			assert.NoError(t, err)
		})
	}
}

func TestRunnerReportsMismatch(t *testing.T) {
	sc, err := Parse([]byte(`
name: wrong expectations
steps:
  - {as: alice, op: create_space, args: {handle: somewhere}, save: s}
checks:
  - {space: s, field: followers_count, equals: 5}
`))
	require.NoError(t, err)
	r, err := run(t, sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "followers_count = 1, want 5")
	id, ok := r.Ref("s")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), id)

	sc, err = Parse([]byte(`
name: unexpected success
steps:
  - {as: alice, op: create_space, args: {handle: somewhere}, expect_error: VALIDATION}
`))
	require.NoError(t, err)
	_, err = run(t, sc)
	assert.ErrorContains(t, err, "expected VALIDATION error, got success")

	sc, err = Parse([]byte(`
name: unknown op
steps:
  - {as: alice, op: launch_rocket}
`))
	require.NoError(t, err)
	_, err = run(t, sc)
	assert.ErrorContains(t, err, "unknown op")

	_, err = Parse([]byte("name: empty\n"))
	assert.Error(t, err)
}

func TestAccountIDIsStable(t *testing.T) {
	assert.Equal(t, AccountID("alice"), AccountID("alice"))
	assert.NotEqual(t, AccountID("alice"), AccountID("bob"))
}

package simulator

import (
	"context"
	"testing"
	"time"

	"gator-social/internal/engine"
	"gator-social/internal/engine/actors"
	"gator-social/internal/models"
	"gator-social/internal/storage"
	"gator-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSimulator(t *testing.T, config SimConfig) *Simulator {
	t.Helper()
	system := actor.NewActorSystem()
	metrics := utils.NewMetricsCollector()
	e := engine.New(storage.NewMemoryBackend(), engine.Options{Params: engine.DefaultParams(), Metrics: metrics})
	pid := actors.Spawn(system, e, metrics, nil)
	t.Cleanup(func() { system.Root.Stop(pid) })
	return NewSimulator(config, system.Root, pid, e, nil)
}

func TestSimulationKeepsStoreConsistent(t *testing.T) {
	config := DefaultSimConfig()
	config.NumAccounts = 20
	config.NumSpaces = 4
	config.Operations = 600
	config.Workers = 4
	config.ShareProbability = 0.2

	sim := newTestSimulator(t, config)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, sim.Run(ctx))

	summary := sim.GetSummary()
	assert.Equal(t, summary.TotalRequests, summary.SuccessRequests+summary.FailedRequests)
	assert.Positive(t, summary.Posts)
	assert.Positive(t, summary.SuccessRequests)

	violations, err := sim.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestSimulationRejectsTinyPopulation(t *testing.T) {
	config := DefaultSimConfig()
	config.NumAccounts = 1

	sim := newTestSimulator(t, config)
	err := sim.Run(context.Background())
	assert.ErrorContains(t, err, "initialization failed")
}

func TestSimulationStopsOnCancel(t *testing.T) {
	config := DefaultSimConfig()
	config.Operations = 1_000_000

	sim := newTestSimulator(t, config)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sim.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerifyReportsUnexpectedRejections(t *testing.T) {
	config := DefaultSimConfig()
	config.NumAccounts = 4
	config.NumSpaces = 1
	config.Operations = 0

	sim := newTestSimulator(t, config)
	ctx := context.Background()
	require.NoError(t, sim.Run(ctx))

	stranger := models.AccountActor(sim.accounts[3].ID)
	hidden := true
	_, err := sim.send(&actors.UpdateSpaceMsg{
		Actor:   stranger,
		SpaceID: sim.spaces[0],
		Update:  models.SpaceUpdate{Hidden: &hidden},
	})
	require.Error(t, err)

	_, err = sim.send(&actors.FollowSpaceMsg{Actor: models.AccountActor(sim.accounts[0].ID), SpaceID: sim.spaces[0]})
	require.Error(t, err)

	summary := sim.GetSummary()
	assert.Equal(t, int64(2), summary.FailedRequests)
	assert.Equal(t, 1, summary.Unexpected)

	violations, err := sim.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "FORBIDDEN")
}

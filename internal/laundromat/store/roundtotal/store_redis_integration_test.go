//go:build integration

package roundtotal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"launder/internal/game"
	"launder/pkg/testutil/containers"
)

func TestRedisStore(t *testing.T) {
	redis := containers.NewRedisContainer(t)
	suite.Run(t, &ContractSuite{newStore: func(*testing.T) Store {
		return NewRedis(redis.Client, "launder-test")
	}})
}

func TestRedisReplicasShareOneRound(t *testing.T) {
	redis := containers.NewRedisContainer(t)
	ctx := context.Background()
	first := NewRedis(redis.Client, "launder-replicas")
	second := NewRedis(redis.Client, "launder-replicas")
	require.NoError(t, first.Reset(ctx))

	_, ok, err := first.Commit(ctx, record("Syndicate1", game.StrategyAggressive), 25_000, 45_000)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = second.Commit(ctx, record("Syndicate2", game.StrategyAggressive), 25_000, 45_000)
	require.NoError(t, err)
	assert.False(t, ok, "the threshold is shared")

	day, records, err := second.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, day)
	require.Len(t, records, 2)
	assert.Equal(t, "Syndicate1", records[0].Syndicate)
	assert.True(t, records[1].Busted)

	day, records, err = first.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, day, "the day count is shared too")
	assert.Empty(t, records)
}

package narrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/internal/game"
	"launder/internal/laundromat/models"
	"launder/internal/platform/llm"
	"launder/internal/platform/logger"
)

func TestScripted(t *testing.T) {
	ctx := context.Background()
	n := Scripted{}

	t.Run("first day is neutral", func(t *testing.T) {
		got, err := n.Narrate(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, OpeningAbstract, got)
	})

	t.Run("quiet day", func(t *testing.T) {
		got, _ := n.Narrate(ctx, 3, nil)
		assert.Equal(t, QuietAbstract, got)
	})

	t.Run("busts are named without amounts", func(t *testing.T) {
		got, _ := n.Narrate(ctx, 2, []models.Record{
			{Syndicate: "Syndicate1", Strategy: game.StrategyAggressive},
			{Syndicate: "Syndicate4", Strategy: game.StrategyAggressive, Busted: true},
			{Syndicate: "Syndicate2", Strategy: game.StrategyModerate, Busted: true},
			{Syndicate: "Syndicate3", Strategy: game.StrategyPlayNice, Taxed: true},
		})
		assert.Contains(t, got, "high alert")
		assert.Contains(t, got, "Syndicate4 and Syndicate2 were")
		assert.Contains(t, got, "taxes")
		assert.NotContains(t, got, "000")
	})

	t.Run("heavy but clean day raises suspicion", func(t *testing.T) {
		got, _ := n.Narrate(ctx, 2, []models.Record{{Syndicate: "Syndicate1", Strategy: game.StrategyAggressive}})
		assert.Contains(t, got, "suspicious")
	})

	t.Run("light day", func(t *testing.T) {
		got, _ := n.Narrate(ctx, 2, []models.Record{{Syndicate: "Syndicate1", Strategy: game.StrategyConservative}})
		assert.Contains(t, got, "slow")
	})
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(context.Context, []llm.Message, float64) (string, error) {
	f.calls++
	return f.reply, f.err
}

func TestLLM(t *testing.T) {
	ctx := context.Background()
	records := []models.Record{{Syndicate: "Syndicate1", Strategy: game.StrategyConservative}}

	t.Run("uses the model", func(t *testing.T) {
		c := &fakeCompleter{reply: "Quiet streets, relaxed cops."}
		got, err := NewLLM(c, logger.Discard()).Narrate(ctx, 2, records)
		require.NoError(t, err)
		assert.Equal(t, "Quiet streets, relaxed cops.", got)
	})

	t.Run("numbers are never leaked", func(t *testing.T) {
		c := &fakeCompleter{reply: "Exactly 40000 dollars were laundered."}
		got, err := NewLLM(c, logger.Discard()).Narrate(ctx, 2, records)
		require.NoError(t, err)
		assert.Contains(t, got, "slow")
	})

	t.Run("syndicate names are not numbers", func(t *testing.T) {
		named := []models.Record{
			{Syndicate: "Syndicate3", BossName: "Tony", Strategy: game.StrategyAggressive, Busted: true},
			{Syndicate: "Syndicate12", BossName: "Boss of Syndicate12", Strategy: game.StrategyModerate},
		}
		reply := "Police raided Syndicate3 last night while Syndicate12 slipped away."
		got, err := NewLLM(&fakeCompleter{reply: reply}, logger.Discard()).Narrate(ctx, 2, named)
		require.NoError(t, err)
		assert.Equal(t, reply, got)
	})

	t.Run("amounts next to names are still rejected", func(t *testing.T) {
		named := []models.Record{{Syndicate: "Syndicate3", Strategy: game.StrategyAggressive}}
		c := &fakeCompleter{reply: "Syndicate3 moved 25000 through the laundromat."}
		got, err := NewLLM(c, logger.Discard()).Narrate(ctx, 2, named)
		require.NoError(t, err)
		assert.Contains(t, got, "suspicious")
	})

	t.Run("model failure falls back", func(t *testing.T) {
		c := &fakeCompleter{err: errors.New("timeout")}
		got, err := NewLLM(c, logger.Discard()).Narrate(ctx, 2, records)
		require.NoError(t, err)
		assert.Contains(t, got, "slow")
	})

	t.Run("no records skips the model", func(t *testing.T) {
		c := &fakeCompleter{}
		got, _ := NewLLM(c, logger.Discard()).Narrate(ctx, 1, nil)
		assert.Equal(t, OpeningAbstract, got)
		assert.Zero(t, c.calls)
	})
}

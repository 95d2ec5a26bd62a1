package oracle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/internal/game"
	"launder/internal/platform/llm"
	"launder/internal/platform/logger"
	dErrors "launder/pkg/domain-errors"
)

type fakeCompleter struct {
	replies  []string
	err      error
	requests [][]llm.Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []llm.Message, _ float64) (string, error) {
	f.requests = append(f.requests, messages)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func TestLLM_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("parses the field format and keeps history", func(t *testing.T) {
		c := &fakeCompleter{replies: []string{"Strategy: aggressive", "Strategy: play_nice"}}
		o := NewLLM(c, "Syndicate1", "Tony", WithLogger(logger.Discard()))

		got, err := o.Decide(ctx, "quiet day")
		require.NoError(t, err)
		assert.Equal(t, game.StrategyAggressive, got)

		got, err = o.Decide(ctx, "police on alert")
		require.NoError(t, err)
		assert.Equal(t, game.StrategyPlayNice, got)

		second := c.requests[1]
		require.Len(t, second, 4, "system, first prompt, first answer, second prompt")
		assert.Equal(t, llm.RoleAssistant, second[2].Role)
		assert.Contains(t, second[3].Content, "police on alert")
	})

	t.Run("malformed output is retried", func(t *testing.T) {
		c := &fakeCompleter{replies: []string{"I would rather not say", "Strategy: moderate"}}
		got, err := NewLLM(c, "S", "B", WithLogger(logger.Discard())).Decide(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, game.StrategyModerate, got)
		assert.Len(t, c.requests, 2)
	})

	t.Run("gives up after the bound", func(t *testing.T) {
		c := &fakeCompleter{replies: []string{"launder everything!"}}
		_, err := NewLLM(c, "S", "B", WithMaxAttempts(2), WithLogger(logger.Discard())).Decide(ctx, "x")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOracleInvalidOutput))
		assert.Len(t, c.requests, 2)
	})

	t.Run("transport errors surface", func(t *testing.T) {
		c := &fakeCompleter{err: errors.New("connection refused")}
		_, err := NewLLM(c, "S", "B").Decide(ctx, "x")
		assert.Error(t, err)
		assert.Len(t, c.requests, 1)
	})
}

func TestRandom_IsSeeded(t *testing.T) {
	a, b := NewRandom(7), NewRandom(7)
	for range 20 {
		x, _ := a.Decide(context.Background(), "")
		y, _ := b.Decide(context.Background(), "")
		assert.Equal(t, x, y)
		_, err := game.ProfileFor(x)
		assert.NoError(t, err)
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted("aggressive", "nonsense")
	got, err := s.Decide(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, game.StrategyAggressive, got)

	_, err = s.Decide(context.Background(), "")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownStrategy))

	_, err = s.Decide(context.Background(), "")
	assert.Error(t, err, "last answer repeats")
}

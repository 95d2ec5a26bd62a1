package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/internal/platform/logger"
	dErrors "launder/pkg/domain-errors"
)

type fakeTarget struct {
	url       string
	healthyAt int32
	calls     atomic.Int32
}

func (f *fakeTarget) URL() string { return f.url }

func (f *fakeTarget) Health(context.Context) error {
	if n := f.calls.Add(1); f.healthyAt > 0 && n >= f.healthyAt {
		return nil
	}
	return errors.New("connection refused")
}

func TestAwait(t *testing.T) {
	t.Run("all healthy on first poll", func(t *testing.T) {
		a := &fakeTarget{url: "http://a", healthyAt: 1}
		b := &fakeTarget{url: "http://b", healthyAt: 1}
		m := New([]Target{a, b}, "@every 1s", logger.Discard())

		require.NoError(t, m.Await(context.Background(), time.Second))
		assert.Equal(t, int32(1), a.calls.Load())
	})

	t.Run("late agent is picked up by the schedule", func(t *testing.T) {
		a := &fakeTarget{url: "http://a", healthyAt: 1}
		late := &fakeTarget{url: "http://late", healthyAt: 2}
		m := New([]Target{a, late}, "@every 1s", logger.Discard())

		require.NoError(t, m.Await(context.Background(), 5*time.Second))
		assert.Equal(t, int32(1), a.calls.Load(), "healthy agents are not polled again")
		assert.Equal(t, int32(2), late.calls.Load())
	})

	t.Run("deadline names the missing agents", func(t *testing.T) {
		down := &fakeTarget{url: "http://down"}
		m := New([]Target{&fakeTarget{url: "http://up", healthyAt: 1}, down}, "@every 1s", logger.Discard())

		err := m.Await(context.Background(), 50*time.Millisecond)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
		assert.Contains(t, err.Error(), "http://down")
		assert.NotContains(t, err.Error(), "http://up")
	})

	t.Run("bad schedule", func(t *testing.T) {
		m := New([]Target{&fakeTarget{url: "http://a"}}, "whenever", logger.Discard())
		assert.Error(t, m.Await(context.Background(), time.Second))
	})
}

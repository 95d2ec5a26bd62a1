package logstore

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/pkg/platform/audit"
)

func TestAppend(t *testing.T) {
	var buf bytes.Buffer
	store := New(slog.New(slog.NewJSONHandler(&buf, nil)), slog.LevelInfo)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Append(context.Background(), audit.Event{
		Category:  audit.CategoryEnforcement,
		Timestamp: ts,
		Action:    string(audit.EventSyndicateBusted),
		Subject:   "Syndicate3",
		Strategy:  "aggressive",
		Lost:      25_000,
	}))

	var line struct {
		Msg   string         `json:"msg"`
		Event map[string]any `json:"event"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line.Msg)
	assert.Equal(t, "syndicate_busted", line.Event["action"])
	assert.Equal(t, "Syndicate3", line.Event["subject"])
	assert.EqualValues(t, 25_000, line.Event["lost"])
	assert.NotContains(t, line.Event, "amount", "zero fields are left out")
}

func TestAppendBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	store := New(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})), slog.LevelInfo)
	require.NoError(t, store.Append(context.Background(), audit.Event{Action: "day_completed"}))
	assert.Zero(t, buf.Len())
}

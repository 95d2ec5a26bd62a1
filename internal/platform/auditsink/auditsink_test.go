package auditsink

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launder/internal/platform/config"
	"launder/pkg/platform/audit"
)

func TestOpenWithoutBrokersLogsEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	sink, err := Open(context.Background(), config.AuditConfig{Topic: "launder.audit"}, "laundromat", prometheus.NewRegistry(), logger)
	require.NoError(t, err)

	require.NoError(t, sink.Emit(context.Background(), audit.Event{Action: string(audit.EventTaxesPaid), Subject: "Syndicate2"}))
	sink.Close()

	assert.Contains(t, buf.String(), `"action":"taxes_paid"`)
	assert.Contains(t, buf.String(), `"agent":"laundromat"`)
}

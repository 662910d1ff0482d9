package observability

import (
	"context"
	"strings"
	"testing"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-bot/internal/common/logger"
)

func familyNames(t *testing.T, reg *promclient.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func hasPrefix(names []string, prefix string) bool {
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			return true
		}
	}
	return false
}

func TestObservability_RecordsReplies(t *testing.T) {
	reg := promclient.NewRegistry()
	obs := New("stock-bot-test", reg, logger.NewNoOpLogger())
	defer obs.Shutdown()

	ctx := context.Background()
	obs.RecordReply(ctx, "single", 3*time.Millisecond)
	obs.RecordReply(ctx, "list", time.Millisecond)
	obs.RecordDisconnect(ctx, "reconnect")

	names := familyNames(t, reg)
	assert.True(t, hasPrefix(names, "replies_processed"), names)
	assert.True(t, hasPrefix(names, "reply_duration"), names)
	assert.True(t, hasPrefix(names, "session_reconnects"), names)
	for _, n := range names {
		assert.NotContains(t, n, ".")
	}
}

func TestObservability_NilIsSafe(t *testing.T) {
	var obs *Observability
	assert.NotPanics(t, func() {
		obs.RecordReply(context.Background(), "single", time.Millisecond)
		obs.RecordDisconnect(context.Background(), "logged_out")
		obs.Shutdown()
	})
}

package logger

import (
	"context"
	"testing"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level types.LogLevel
		want  string
	}{
		{types.LogLevelDebug, "debug"},
		{types.LogLevelInfo, "info"},
		{types.LogLevelWarn, "warn"},
		{types.LogLevelError, "error"},
		{"", "info"},
	}
	for _, tt := range tests {
		cfg := config.GetDefaultConfig()
		cfg.Logging.Level = tt.level
		assert.Equal(t, tt.want, parseLevel(cfg).String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	ctx := types.SetTenantID(context.Background(), "tenant_1")
	ctx = types.SetRunID(ctx, "run_1")
	l.WithContext(ctx).Infow("billing run started", "selected", 3)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "tenant_1", fields["tenant_id"])
	assert.Equal(t, "run_1", fields["run_id"])
	assert.Equal(t, int64(3), fields["selected"])
}

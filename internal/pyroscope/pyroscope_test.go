package pyroscope

import (
	"context"
	"testing"

	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/logger"
	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileTypes(t *testing.T) {
	log := logger.NewNoopLogger()

	assert.Len(t, ProfileTypes(nil, log), 6)
	assert.Equal(t,
		[]pyroscope.ProfileType{pyroscope.ProfileCPU, pyroscope.ProfileMutexCount},
		ProfileTypes([]string{"CPU", "heap", " mutex_count"}, log),
	)
}

func TestDisabledService(t *testing.T) {
	svc := NewPyroscopeService(config.GetDefaultConfig(), logger.NewNoopLogger())

	require.NoError(t, svc.Start())
	assert.False(t, svc.IsEnabled())

	called := false
	svc.TagWrapper(context.Background(), map[string]string{"run": "r1"}, func(context.Context) {
		called = true
	})
	assert.True(t, called)
	assert.NoError(t, svc.Stop())
}

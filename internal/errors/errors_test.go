package errors

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkedErrorsMatchSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{
			name:   "transient provider",
			err:    NewError("stripe 503").WithHint("provider unavailable").Mark(ErrTransientProvider),
			check:  IsTransientProvider,
			status: http.StatusBadGateway,
		},
		{
			name:   "permanent provider",
			err:    NewError("stripe 400").Mark(ErrPermanentProvider),
			check:  IsPermanentProvider,
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "configuration",
			err:    NewErrorf("missing %s", "stripe.secret_key").Mark(ErrConfiguration),
			check:  IsConfiguration,
			status: http.StatusInternalServerError,
		},
		{
			name:   "conflict wrapped by fmt",
			err:    fmt.Errorf("advance: %w", NewError("stale version").Mark(ErrVersionConflict)),
			check:  IsVersionConflict,
			status: http.StatusConflict,
		},
		{
			name:   "lock",
			err:    WithError(fmt.Errorf("held")).Mark(ErrLockNotObtained),
			check:  IsLockNotObtained,
			status: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.Equal(t, tt.status, HTTPStatusFromErr(tt.err))
		})
	}
}

func TestSentinelsDoNotCrossMatch(t *testing.T) {
	err := NewError("boom").Mark(ErrTransientProvider)
	assert.False(t, IsPermanentProvider(err))
	assert.False(t, IsConfiguration(err))
	assert.False(t, IsNotFound(err))
}

func TestIsContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.True(t, IsContextDone(fmt.Errorf("call: %w", ctx.Err())))
	assert.False(t, IsContextDone(NewError("x").Mark(ErrSystem)))
}

func TestNewErrorResponseUsesHints(t *testing.T) {
	err := NewError("db down").WithHint("Billing store is unavailable").Mark(ErrDatabase)
	resp := NewErrorResponse(err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Billing store is unavailable", resp.Error.Display)
}

func TestNewErrorResponseDetails(t *testing.T) {
	err := NewError("lock held").
		WithHint("A billing run for this cycle is already in progress").
		WithReportableDetails(map[string]any{"key": "billing-run:all:2024-03-01"}).
		Mark(ErrLockNotObtained)

	resp := NewErrorResponse(err)
	assert.Equal(t, "A billing run for this cycle is already in progress", resp.Error.Display)
	assert.Equal(t, "billing-run:all:2024-03-01", resp.Error.Details["key"])

	plain := NewErrorResponse(NewError("boom").Mark(ErrSystem))
	assert.Equal(t, "An unexpected error occurred", plain.Error.Display)
	assert.Nil(t, plain.Error.Details)
}

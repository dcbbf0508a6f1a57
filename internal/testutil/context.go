package testutil

import (
	"context"

	"github.com/flexprice/leasebill/internal/types"
)

func SetupContext() context.Context {
	ctx := context.Background()
	ctx = types.SetTenantID(ctx, types.DefaultTenantID)
	ctx = types.SetRequestID(ctx, types.GenerateUUID())
	return ctx
}

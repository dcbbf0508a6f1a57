package types

import (
	"context"
)

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxTenantID  ContextKey = "ctx_tenant_id"
	CtxRunID     ContextKey = "ctx_run_id"
	CtxLeaseID   ContextKey = "ctx_lease_id"

	HeaderRequestID = "X-Request-ID"

	// Default values
	DefaultTenantID = "00000000-0000-0000-0000-000000000000"
)

func GetTenantID(ctx context.Context) string {
	if tenantID, ok := ctx.Value(CtxTenantID).(string); ok {
		return tenantID
	}
	return ""
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(CtxRunID).(string); ok {
		return runID
	}
	return ""
}

func GetLeaseID(ctx context.Context) string {
	if leaseID, ok := ctx.Value(CtxLeaseID).(string); ok {
		return leaseID
	}
	return ""
}

// SetTenantID sets the tenant ID in the context
func SetTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, CtxTenantID, tenantID)
}

// SetRequestID sets the request ID in the context
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, CtxRequestID, requestID)
}

// SetRunID sets the billing run ID in the context
func SetRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, CtxRunID, runID)
}

// SetLeaseID sets the lease being processed in the context
func SetLeaseID(ctx context.Context, leaseID string) context.Context {
	return context.WithValue(ctx, CtxLeaseID, leaseID)
}

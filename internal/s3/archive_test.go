package s3

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
	"github.com/flexprice/leasebill/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func testReport(tenantID string) *billingrun.Report {
	return &billingrun.Report{
		ID:        "run_01",
		TenantID:  tenantID,
		CycleDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		Status:    types.BillingRunStatusCompleted,
		Selected:  2,
		Created:   2,
	}
}

func TestReportArchive_Put(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		wantKey  string
	}{
		{name: "tenant scope", tenantID: "t1", wantKey: "billing-runs/t1/2024-03-01/run_01.json"},
		{name: "all tenants", wantKey: "billing-runs/all/2024-03-01/run_01.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakePutter{}
			archive := newReportArchive(client, config.S3Config{Bucket: "runs", KeyPrefix: "billing-runs"})

			require.NoError(t, archive.Put(context.Background(), testReport(tt.tenantID)))

			require.Len(t, client.inputs, 1)
			assert.Equal(t, "runs", aws.ToString(client.inputs[0].Bucket))
			assert.Equal(t, tt.wantKey, aws.ToString(client.inputs[0].Key))
			assert.Equal(t, "application/json", aws.ToString(client.inputs[0].ContentType))

			var got billingrun.Report
			require.NoError(t, json.Unmarshal(client.bodies[0], &got))
			assert.Equal(t, 2, got.Created)
		})
	}
}

func TestReportArchive_PutFailure(t *testing.T) {
	archive := newReportArchive(&fakePutter{err: errors.New("access denied")}, config.S3Config{Bucket: "runs"})

	err := archive.Put(context.Background(), testReport("t1"))
	require.Error(t, err)
	assert.True(t, ierr.IsHTTPClient(err))
}

func TestNewReportArchiveDisabled(t *testing.T) {
	archive, err := NewReportArchive(context.Background(), config.GetDefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, archive)
}

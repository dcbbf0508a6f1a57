package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/flexprice/leasebill/internal/config"
	"github.com/flexprice/leasebill/internal/domain/billingrun"
	ierr "github.com/flexprice/leasebill/internal/errors"
)

const contentTypeJSON = "application/json"

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchive writes each finished billing run report to a bucket under
// {key_prefix}/{tenant|all}/{cycle date}/{run id}.json
type ReportArchive struct {
	client objectPutter
	cfg    config.S3Config
}

// NewReportArchive returns nil when s3 is disabled
func NewReportArchive(ctx context.Context, cfg *config.Configuration) (*ReportArchive, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to load aws config").
			Mark(ierr.ErrConfiguration)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newReportArchive(client, cfg.S3), nil
}

func newReportArchive(client objectPutter, cfg config.S3Config) *ReportArchive {
	return &ReportArchive{client: client, cfg: cfg}
}

var _ billingrun.Archive = (*ReportArchive)(nil)

func (a *ReportArchive) Put(ctx context.Context, report *billingrun.Report) error {
	body, err := json.Marshal(report)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to encode billing run report").
			Mark(ierr.ErrSystem)
	}

	key := a.objectKey(report)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentTypeJSON),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to archive billing run report").
			WithReportableDetails(map[string]any{"bucket": a.cfg.Bucket, "key": key}).
			Mark(ierr.ErrHTTPClient)
	}
	return nil
}

func (a *ReportArchive) objectKey(report *billingrun.Report) string {
	scope := report.TenantID
	if scope == "" {
		scope = "all"
	}
	return path.Join(a.cfg.KeyPrefix, scope, report.CycleDate.Format(time.DateOnly), report.ID+".json")
}

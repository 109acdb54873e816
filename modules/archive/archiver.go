// Package archive writes the final roster of a closed event to object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"go-event-roster/core/constants"
	"go-event-roster/core/logger"
	"go-event-roster/modules/event/entity"
	"go-event-roster/modules/venue/view"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const DriverS3 = "s3"

// Record is the archived form of an event.
type Record struct {
	EventID        string           `json:"event_id"`
	SeriesParentID *string          `json:"series_parent_id,omitempty"`
	CreatorID      string           `json:"creator_id"`
	Roster         view.RosterView  `json:"roster"`
	Attendees      entity.Attendees `json:"attendees"`
	ArchivedAt     time.Time        `json:"archived_at"`
}

func NewRecord(e *entity.Event, at time.Time) Record {
	r := Record{
		EventID:    e.ID.String(),
		CreatorID:  e.CreatorID,
		Roster:     view.Build(e, true),
		Attendees:  e.Attendees,
		ArchivedAt: at.UTC(),
	}
	if e.SeriesParentID != nil {
		parent := e.SeriesParentID.String()
		r.SeriesParentID = &parent
	}
	return r
}

// Key is "<prefix>/<yyyy>/<mm>/<event id>.json", dated by the event start in UTC.
func Key(prefix string, e *entity.Event) string {
	start := e.StartAt.UTC()
	return path.Join(strings.Trim(prefix, "/"), start.Format("2006"), start.Format("01"), e.ID.String()+".json")
}

type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// S3Archiver puts one JSON object per event into an S3-compatible bucket.
type S3Archiver struct {
	client  *s3.Client
	bucket  string
	prefix  string
	timeout time.Duration
	now     func() time.Time
}

func NewS3Archiver(cfg S3Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:                     region,
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	}
	if cfg.AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return &S3Archiver{
		client:  s3.New(opts),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		timeout: constants.ExternalCallTimeout,
		now:     time.Now,
	}, nil
}

func (a *S3Archiver) ArchiveEvent(ctx context.Context, e *entity.Event) error {
	body, err := json.Marshal(NewRecord(e, a.now()))
	if err != nil {
		return fmt.Errorf("encode archive record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	key := Key(a.prefix, e)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", a.bucket, key, err)
	}
	logger.Info("S3Archiver:ArchiveEvent", "event_id", e.ID.String(), "key", key, "bytes", len(body))
	return nil
}

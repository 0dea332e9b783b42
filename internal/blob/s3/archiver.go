package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Archiver uploads one JSON document per scan run.
//
// Key schema:
//
//	runs/{yyyy}/{mm}/{dd}/{runID}.json
type Archiver struct {
	client *s3.Client
	bucket string
}

// NewArchiver creates an Archiver writing to the client's bucket.
func NewArchiver(c *Client) *Archiver {
	return &Archiver{client: c.s3, bucket: c.bucket}
}

// RunKey returns the object key of a run started at startedAt.
func RunKey(runID string, startedAt time.Time) string {
	return fmt.Sprintf("runs/%s/%s.json", startedAt.UTC().Format("2006/01/02"), runID)
}

// ArchiveRun marshals run and uploads it. Returns the object key.
func (a *Archiver) ArchiveRun(ctx context.Context, runID string, startedAt time.Time, run any) (string, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return "", fmt.Errorf("s3blob: marshal run %s: %w", runID, err)
	}

	key := RunKey(runID, startedAt)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return key, nil
}

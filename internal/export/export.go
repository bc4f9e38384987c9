// Package export writes run reports to blob storage as JSON or CSV,
// supporting S3, GCS, Azure Blob Storage, and S3-compatible stores.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"gocloud.dev/blob"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/procflow/engine/pkg/api"
)

// Exporter uploads run reports to a gocloud.dev bucket
type Exporter struct {
	bucket *blob.Bucket
	prefix string
}

func New(
	ctx context.Context, bucketURL, prefix string,
) (*Exporter, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open export bucket: %w", err)
	}
	return NewWithBucket(bucket, prefix), nil
}

// NewWithBucket wraps an already-open bucket. The exporter takes
// ownership and closes it.
func NewWithBucket(bucket *blob.Bucket, prefix string) *Exporter {
	return &Exporter{bucket: bucket, prefix: prefix}
}

// JSON uploads the complete run report as a JSON document and returns
// the object key
func (e *Exporter) JSON(
	ctx context.Context, report *api.RunReport,
) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}
	key := e.keyFor(report.RunID, "json")
	if err := e.bucket.WriteAll(ctx, key, data, nil); err != nil {
		return "", fmt.Errorf("failed to export run report: %w", err)
	}
	return key, nil
}

// CSV uploads a tabular view of the run report. Each row is one piece
// of equipment in execution order; the columns are the requested result
// paths, extracted from each raw engine document.
func (e *Exporter) CSV(
	ctx context.Context, report *api.RunReport, paths []string,
) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append([]string{"equipment"}, paths...)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}
	for _, name := range report.Order {
		row := make([]string, 0, len(header))
		row = append(row, string(name))
		rec := report.Result(name)
		for _, path := range paths {
			if rec == nil {
				row = append(row, "")
				continue
			}
			row = append(row, rec.Get(path).String())
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to encode run report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to encode run report: %w", err)
	}

	key := e.keyFor(report.RunID, "csv")
	if err := e.bucket.WriteAll(ctx, key, buf.Bytes(), nil); err != nil {
		return "", fmt.Errorf("failed to export run report: %w", err)
	}
	return key, nil
}

func (e *Exporter) Close() error {
	return e.bucket.Close()
}

func (e *Exporter) keyFor(runID, ext string) string {
	return fmt.Sprintf("%s%s.%s", e.prefix, runID, ext)
}

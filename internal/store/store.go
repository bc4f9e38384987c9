// Package store persists run reports in Redis so they can be retrieved
// after the flowsheet context that produced them is gone.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/procflow/engine/pkg/api"
	"github.com/procflow/engine/pkg/log"
)

type (
	// Options configures the Redis connection and key namespace
	Options struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}

	// Store is a Redis-backed run report archive
	Store struct {
		rdb    *redis.Client
		prefix string
	}
)

const DefaultPrefix = "procflow"

var ErrReportNotFound = errors.New("run report not found")

// New connects to Redis using the provided options
func New(opts *Options) *Store {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: prefix,
	}
}

// SaveReport stores a run report and adds its ID to the run index. The
// report document and index entry are written atomically.
func (s *Store) SaveReport(
	ctx context.Context, report *api.RunReport,
) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.reportKey(report.RunID), data, 0)
	pipe.LPush(ctx, s.indexKey(), report.RunID)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Error("failed to save run report",
			log.RunID(report.RunID),
			log.Error(err),
		)
		return fmt.Errorf("failed to save run report: %w", err)
	}
	return nil
}

// GetReport retrieves a run report by its run ID
func (s *Store) GetReport(
	ctx context.Context, runID string,
) (*api.RunReport, error) {
	data, err := s.rdb.Get(ctx, s.reportKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run report: %w", err)
	}
	var report api.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode run report: %w", err)
	}
	return &report, nil
}

// ListRuns returns the most recent run IDs, newest first
func (s *Store) ListRuns(
	ctx context.Context, limit int64,
) ([]string, error) {
	if limit <= 0 {
		limit = 1
	}
	ids, err := s.rdb.LRange(ctx, s.indexKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return ids, nil
}

// Ping verifies the Redis connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close releases the underlying Redis client
func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) reportKey(runID string) string {
	return fmt.Sprintf("%s:report:%s", s.prefix, runID)
}

func (s *Store) indexKey() string {
	return s.prefix + ":runs"
}

package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/storage"
)

const parquetContentType = "application/vnd.apache.parquet"

type Config struct {
	// ServiceName becomes a path component of every archive object.
	ServiceName string
	// Prune clears the history store after a successful upload.
	Prune bool
}

type Result struct {
	Key         string `json:"key"`
	RecordCount int64  `json:"record_count"`
	SizeBytes   int64  `json:"size_bytes"`
	Pruned      int64  `json:"pruned"`
}

type Service struct {
	cfg     Config
	store   history.Store
	objects storage.ObjectStore
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(cfg Config, store history.Store, objects storage.ObjectStore, logger *slog.Logger) (*Service, error) {
	if cfg.ServiceName == "" {
		return nil, fmt.Errorf("service name is required")
	}
	if store == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if objects == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, store: store, objects: objects, logger: logger, now: time.Now}, nil
}

// Run uploads the current history as one parquet object. An empty history is
// not an error; it returns a zero Result without touching the object store.
func (s *Service) Run(ctx context.Context) (Result, error) {
	records, err := s.store.List(ctx, 0)
	if err != nil {
		return Result{}, fmt.Errorf("load history for archive: %w", err)
	}
	if len(records) == 0 {
		return Result{}, nil
	}

	encoded, err := EncodeRecords(records)
	if err != nil {
		return Result{}, err
	}

	key, err := storage.BuildArchivePath(s.cfg.ServiceName, s.now(), encoded.FirstID, encoded.LastID)
	if err != nil {
		return Result{}, err
	}

	info, err := s.objects.Put(ctx, key, encoded.Data, parquetContentType)
	if err != nil {
		return Result{}, fmt.Errorf("upload archive %q: %w", key, err)
	}

	result := Result{
		Key:         info.Key,
		RecordCount: encoded.RecordCount,
		SizeBytes:   int64(len(encoded.Data)),
	}

	if s.cfg.Prune {
		pruned, err := s.store.Clear(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("prune history after archive: %w", err)
		}
		result.Pruned = pruned
	}

	s.logger.Info("history archived",
		slog.String("key", result.Key),
		slog.Int64("records", result.RecordCount),
		slog.Int64("size_bytes", result.SizeBytes),
		slog.Int64("pruned", result.Pruned),
	)
	return result, nil
}

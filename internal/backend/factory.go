package backend

import (
	"context"
	"fmt"

	"tracker/internal/log"
	"tracker/internal/persist"
	"tracker/internal/persist/file"
	"tracker/internal/persist/memory"
	"tracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		kv      persist.KV
		cleanup CleanupFunc
		err     error
	)
	switch config.Type {
	case FileBackend:
		kv, err = f.createFileBackend(ctx, config)
	case SQLiteBackend:
		var db *storage.SQLiteKV
		db, err = f.createSQLiteBackend(ctx, config)
		if err == nil {
			kv, cleanup = db, db.Close
		}
	case MemoryBackend:
		kv = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend, data is not kept across restarts",
			log.FieldBackend, config.Type.String())
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	return &BackendResult{
		KV:      kv,
		Adapter: persist.NewAdapter(kv, config.StorageKey, f.logger),
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*file.KV, error) {
	kv, err := file.New(config.DataDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized file backend",
		log.FieldBackend, config.Type.String(),
		"data_directory", kv.Dir())
	return kv, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*storage.SQLiteKV, error) {
	kv, err := storage.NewSQLiteKV(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldBackend, config.Type.String(),
		"db_path", config.SQLiteDBPath)
	return kv, nil
}

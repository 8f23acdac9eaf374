package persist

import (
	"context"
	"fmt"

	"tracker/internal/core"
	"tracker/internal/log"
)

// Adapter reads and writes the full ledger under one key of a KV.
type Adapter struct {
	kv     KV
	key    string
	logger *log.Logger
}

// NewAdapter returns an Adapter storing under key, or DefaultKey when key
// is empty. A nil logger falls back to slog.Default.
func NewAdapter(kv KV, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}
	return &Adapter{kv: kv, key: key, logger: logger.WithComponent(log.ComponentStorage)}
}

// Key returns the storage key.
func (a *Adapter) Key() string {
	return a.key
}

// Load returns the stored ledger. A missing, unreadable or malformed value
// yields an empty ledger; the problem is logged and never returned.
func (a *Adapter) Load(ctx context.Context) []core.Transaction {
	data, found, err := a.kv.Get(ctx, a.key)
	if err != nil {
		a.logger.WarnContext(ctx, "Stored ledger unreadable, starting empty",
			log.FieldStorageKey, a.key,
			log.FieldOperation, log.OpLoad,
			log.FieldErrorType, log.ErrorTypePersistRead,
			log.FieldError, err)
		return []core.Transaction{}
	}
	if !found {
		a.logger.DebugContext(ctx, "No stored ledger yet", log.FieldStorageKey, a.key)
		return []core.Transaction{}
	}

	txs, err := Decode(data)
	if err != nil {
		a.logger.WarnContext(ctx, "Stored ledger malformed, starting empty",
			log.FieldStorageKey, a.key,
			log.FieldOperation, log.OpLoad,
			log.FieldErrorType, log.ErrorTypePersistRead,
			log.FieldError, err)
		return []core.Transaction{}
	}

	a.logger.DebugContext(ctx, "Ledger loaded", log.FieldStorageKey, a.key, log.FieldCount, len(txs))
	return txs
}

// Save overwrites the stored ledger with txs.
func (a *Adapter) Save(ctx context.Context, txs []core.Transaction) error {
	data, err := Encode(txs)
	if err != nil {
		return &WriteError{Key: a.key, Err: fmt.Errorf("encode: %w", err)}
	}
	if err := a.kv.Set(ctx, a.key, data); err != nil {
		return &WriteError{Key: a.key, Err: err}
	}
	return nil
}

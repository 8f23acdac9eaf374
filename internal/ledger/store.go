// Package ledger owns the in-memory transaction sequence and keeps its
// persisted copy current after every mutation.
package ledger

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/core"
	"tracker/internal/log"
	"tracker/internal/persist"
)

// Persister loads and saves the whole ledger. *persist.Adapter satisfies it.
type Persister interface {
	Load(ctx context.Context) []core.Transaction
	Save(ctx context.Context, txs []core.Transaction) error
}

// Notifier receives an event after each effective mutation.
type Notifier interface {
	Notify(ctx context.Context, ev core.Event) error
}

// Snapshot is a point-in-time copy of the ledger and its totals.
type Snapshot struct {
	Transactions []core.Transaction
	Totals       core.Totals
	// Unsaved is set when the most recent write to storage failed.
	Unsaved bool
}

// Store is the single owner of the transaction sequence. All methods are
// safe for concurrent use; a mutation holds the lock until its save has
// returned. Events are published after the lock is released, so readers
// never wait on the notifier.
type Store struct {
	mu       sync.Mutex
	txs      []core.Transaction
	unsaved  bool
	persist  Persister
	notifier Notifier
	logger   *log.Logger
	newID    func() string
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier publishes ledger events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithLogger sets the logger, scoped to the ledger component.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

// WithIDGenerator replaces uuid.NewString. Used by tests.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(f func() time.Time) Option {
	return func(s *Store) { s.now = f }
}

// Open hydrates a Store from p. A missing or unreadable stored ledger
// yields an empty Store.
func Open(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		persist: p,
		logger:  log.Default(log.ComponentLedger),
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.txs = p.Load(ctx)
	if s.txs == nil {
		s.txs = []core.Transaction{}
	}
	s.logger.InfoContext(ctx, "Ledger opened",
		log.FieldOperation, log.OpLoad,
		log.FieldCount, len(s.txs))
	return s
}

// Add validates the input, appends a new transaction and persists the
// ledger. Validation failures return a *core.ValidationError and leave the
// ledger untouched. A failed save does not fail the call; it is reported
// through Snapshot.Unsaved.
func (s *Store) Add(ctx context.Context, description, amount, typ string) (core.Transaction, Snapshot, error) {
	desc, err := core.ValidateDescription(description)
	if err != nil {
		return core.Transaction{}, Snapshot{}, err
	}
	amt, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, Snapshot{}, err
	}
	t, err := core.ParseType(typ)
	if err != nil {
		return core.Transaction{}, Snapshot{}, err
	}

	s.mu.Lock()
	tx := core.Transaction{
		ID:          s.uniqueID(),
		Description: desc,
		Amount:      amt,
		Type:        t,
	}
	s.txs = append(s.txs, tx)
	s.save(ctx, log.OpAdd)
	totals := core.Summarize(s.txs)
	snap := s.snapshotLocked(totals)
	s.mu.Unlock()

	fields := log.NewFields().
		WithOperation(log.OpAdd).
		WithTransaction(tx.ID, tx.Description, tx.Amount.String(), tx.Type.String())
	fields[log.FieldBalance] = totals.Balance.String()
	s.logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)

	s.notify(ctx, core.Event{
		Kind:          core.EventTransactionAdded,
		TransactionID: tx.ID,
		Transaction:   tx,
		Totals:        totals,
		At:            s.now(),
	})
	return tx, snap, nil
}

// Remove deletes the transaction with the given id. An unknown id is a
// no-op: nothing is written, no event is sent, and the bool is false.
func (s *Store) Remove(ctx context.Context, id string) (Snapshot, bool) {
	s.mu.Lock()
	i := slices.IndexFunc(s.txs, func(tx core.Transaction) bool { return tx.ID == id })
	if i < 0 {
		snap := s.snapshotLocked(core.Summarize(s.txs))
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Remove of unknown transaction ignored",
			log.FieldOperation, log.OpRemove,
			log.FieldTransactionID, id)
		return snap, false
	}

	s.txs = slices.Delete(s.txs, i, i+1)
	s.save(ctx, log.OpRemove)
	totals := core.Summarize(s.txs)
	snap := s.snapshotLocked(totals)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Transaction removed",
		log.FieldOperation, log.OpRemove,
		log.FieldTransactionID, id,
		log.FieldBalance, totals.Balance.String())

	s.notify(ctx, core.Event{
		Kind:          core.EventTransactionRemoved,
		TransactionID: id,
		Totals:        totals,
		At:            s.now(),
	})
	return snap, true
}

// List returns a copy of the ledger in insertion order.
func (s *Store) List() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.txs)
}

// Aggregates recomputes the totals from the current ledger.
func (s *Store) Aggregates() core.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Summarize(s.txs)
}

// Snapshot returns a copy of the ledger with its totals.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(core.Summarize(s.txs))
}

// Len returns the number of transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func (s *Store) snapshotLocked(totals core.Totals) Snapshot {
	return Snapshot{
		Transactions: slices.Clone(s.txs),
		Totals:       totals,
		Unsaved:      s.unsaved,
	}
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && !slices.ContainsFunc(s.txs, func(tx core.Transaction) bool { return tx.ID == id }) {
			return id
		}
	}
}

func (s *Store) save(ctx context.Context, op string) {
	err := s.persist.Save(ctx, s.txs)
	if err == nil {
		s.unsaved = false
		return
	}
	s.unsaved = true

	key := ""
	var we *persist.WriteError
	if errors.As(err, &we) {
		key = we.Key
	}
	fields := log.NewFields().
		WithOperation(op).
		WithErrorType(log.ErrorTypePersistWrite).
		WithError(err)
	fields[log.FieldStorageKey] = key
	s.logger.ErrorContext(ctx, "Ledger not saved, changes kept in memory only", fields.ToSlice()...)
}

func (s *Store) notify(ctx context.Context, ev core.Event) {
	if s.notifier == nil {
		return
	}
	// Don't fail the mutation - the ledger is already saved locally.
	// Called without s.mu held.
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldOperation, log.OpPublish,
			log.FieldTransactionID, ev.TransactionID,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
	}
}

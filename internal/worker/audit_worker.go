// Package worker consumes ledger events published by the tracker.
package worker

import (
	"context"
	"sync"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
)

// Stats summarises what the audit worker has seen since it started.
type Stats struct {
	Added        int
	Removed      int
	Inconsistent int
	LastTotals   core.Totals
	LastEventAt  time.Time
}

// AuditWorker logs every ledger event and checks the totals it carries.
type AuditWorker struct {
	logger *log.Logger

	mu    sync.Mutex
	stats Stats
}

func NewAuditWorker(logger *log.Logger) *AuditWorker {
	if logger == nil {
		logger = log.Default(log.ComponentAudit)
	}
	return &AuditWorker{logger: logger.WithComponent(log.ComponentAudit)}
}

// HandleEvent processes a single ledger event from AMQP. It never returns
// an error: a bad event is logged, requeueing it would not fix it.
func (w *AuditWorker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	ev := msg.Event()

	args := []any{
		log.FieldOperation, log.OpConsume,
		"kind", string(ev.Kind),
		log.FieldTransactionID, ev.TransactionID,
		log.FieldBalance, ev.Totals.Balance.StringFixed(2),
		"income", ev.Totals.Income.StringFixed(2),
		"expenses", ev.Totals.Expenses.StringFixed(2),
	}
	if ev.Kind == core.EventTransactionAdded {
		args = append(args,
			log.FieldDescription, ev.Transaction.Description,
			log.FieldAmount, ev.Transaction.Amount.String(),
			log.FieldType, ev.Transaction.Type.String())
	}
	w.logger.InfoContext(ctx, "Ledger event", args...)

	consistent := balanced(ev.Totals)
	if !consistent {
		w.logger.WarnContext(ctx, "Ledger event totals do not add up",
			log.FieldTransactionID, ev.TransactionID,
			log.FieldBalance, ev.Totals.Balance.String(),
			"expected", ev.Totals.Income.Sub(ev.Totals.Expenses).String())
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch ev.Kind {
	case core.EventTransactionAdded:
		w.stats.Added++
	case core.EventTransactionRemoved:
		w.stats.Removed++
	}
	if !consistent {
		w.stats.Inconsistent++
	}
	if !ev.At.Before(w.stats.LastEventAt) {
		w.stats.LastTotals = ev.Totals
		w.stats.LastEventAt = ev.At
	}
	return nil
}

// Stats returns a copy of the counters.
func (w *AuditWorker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// LogStats writes the counters at info level.
func (w *AuditWorker) LogStats(ctx context.Context) {
	s := w.Stats()
	w.logger.InfoContext(ctx, "Audit summary",
		"added", s.Added,
		"removed", s.Removed,
		"inconsistent", s.Inconsistent,
		log.FieldBalance, s.LastTotals.Balance.StringFixed(2))
}

func balanced(t core.Totals) bool {
	return t.Balance.Equal(t.Income.Sub(t.Expenses))
}

package worker

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/log"
)

func totals(balance, income, expenses string) core.Totals {
	return core.Totals{
		Balance:  decimal.RequireFromString(balance),
		Income:   decimal.RequireFromString(income),
		Expenses: decimal.RequireFromString(expenses),
	}
}

func TestHandleEventCounts(t *testing.T) {
	w := NewAuditWorker(log.Discard())
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	added := amqp.NewEventMessage(core.Event{
		Kind:          core.EventTransactionAdded,
		TransactionID: "a",
		Transaction: core.Transaction{
			ID: "a", Description: "Salary", Amount: decimal.RequireFromString("1000"), Type: core.Income,
		},
		Totals: totals("1000", "1000", "0"),
		At:     start,
	})
	removed := amqp.NewEventMessage(core.Event{
		Kind:          core.EventTransactionRemoved,
		TransactionID: "a",
		Totals:        totals("0", "0", "0"),
		At:            start.Add(time.Minute),
	})

	require.NoError(t, w.HandleEvent(ctx, added))
	require.NoError(t, w.HandleEvent(ctx, removed))

	s := w.Stats()
	assert.Equal(t, 1, s.Added)
	assert.Equal(t, 1, s.Removed)
	assert.Zero(t, s.Inconsistent)
	assert.True(t, s.LastTotals.Balance.IsZero())
	assert.Equal(t, start.Add(time.Minute), s.LastEventAt)
}

func TestHandleEventFlagsBadTotals(t *testing.T) {
	w := NewAuditWorker(log.Discard())

	msg := amqp.NewEventMessage(core.Event{
		Kind:          core.EventTransactionRemoved,
		TransactionID: "x",
		Totals:        totals("5", "10", "4"),
		At:            time.Now(),
	})
	// never requeued
	assert.NoError(t, w.HandleEvent(context.Background(), msg))
	assert.Equal(t, 1, w.Stats().Inconsistent)
}

func TestHandleEventKeepsNewestTotals(t *testing.T) {
	w := NewAuditWorker(log.Discard())
	now := time.Now()

	newer := amqp.NewEventMessage(core.Event{
		Kind: core.EventTransactionRemoved, TransactionID: "b",
		Totals: totals("-400", "0", "400"), At: now,
	})
	older := amqp.NewEventMessage(core.Event{
		Kind: core.EventTransactionRemoved, TransactionID: "a",
		Totals: totals("600", "1000", "400"), At: now.Add(-time.Second),
	})

	require.NoError(t, w.HandleEvent(context.Background(), newer))
	require.NoError(t, w.HandleEvent(context.Background(), older))
	assert.Equal(t, "-400", w.Stats().LastTotals.Balance.String())
}

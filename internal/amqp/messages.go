package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

// EventMessage is the wire form of a core.Event. Amounts travel as decimal
// strings so consumers never see float rounding.
type EventMessage struct {
	Kind          core.EventKind      `json:"kind"`
	TransactionID string              `json:"transaction_id"`
	Transaction   *TransactionPayload `json:"transaction,omitempty"`
	Totals        TotalsPayload       `json:"totals"`
	Timestamp     time.Time           `json:"timestamp"`
}

type TransactionPayload struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        core.Type       `json:"type"`
}

type TotalsPayload struct {
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// NewEventMessage converts ev. The transaction is only carried for
// additions.
func NewEventMessage(ev core.Event) *EventMessage {
	msg := &EventMessage{
		Kind:          ev.Kind,
		TransactionID: ev.TransactionID,
		Totals: TotalsPayload{
			Balance:  ev.Totals.Balance,
			Income:   ev.Totals.Income,
			Expenses: ev.Totals.Expenses,
		},
		Timestamp: ev.At,
	}
	if ev.Kind == core.EventTransactionAdded {
		msg.Transaction = &TransactionPayload{
			ID:          ev.Transaction.ID,
			Description: ev.Transaction.Description,
			Amount:      ev.Transaction.Amount,
			Type:        ev.Transaction.Type,
		}
	}
	return msg
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON decodes and validates a message body.
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *EventMessage) Validate() error {
	switch m.Kind {
	case core.EventTransactionAdded:
		if m.Transaction == nil {
			return errors.New("added event without transaction")
		}
		if !m.Transaction.Type.IsValid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidType, m.Transaction.Type)
		}
	case core.EventTransactionRemoved:
	default:
		return fmt.Errorf("unknown event kind %q", m.Kind)
	}
	if m.TransactionID == "" {
		return errors.New("missing transaction_id")
	}
	return nil
}

// Event converts the message back into a core.Event.
func (m *EventMessage) Event() core.Event {
	ev := core.Event{
		Kind:          m.Kind,
		TransactionID: m.TransactionID,
		Totals: core.Totals{
			Balance:  m.Totals.Balance,
			Income:   m.Totals.Income,
			Expenses: m.Totals.Expenses,
		},
		At: m.Timestamp,
	}
	if m.Transaction != nil {
		ev.Transaction = core.Transaction{
			ID:          m.Transaction.ID,
			Description: m.Transaction.Description,
			Amount:      m.Transaction.Amount,
			Type:        m.Transaction.Type,
		}
	}
	return ev
}

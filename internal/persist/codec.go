package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

// record is the stored shape of a transaction. Amount is a JSON number
// carried as text so decimals survive the round trip exactly.
type record struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
}

// Encode serialises txs as a JSON array, preserving order.
func Encode(txs []core.Transaction) ([]byte, error) {
	recs := make([]record, len(txs))
	for i, tx := range txs {
		recs[i] = record{
			ID:          tx.ID,
			Description: tx.Description,
			Amount:      json.Number(tx.Amount.String()),
			Type:        string(tx.Type),
		}
	}
	return json.Marshal(recs)
}

// Decode parses a blob written by Encode. Any element that does not look
// like a transaction makes the whole blob invalid.
func Decode(data []byte) ([]core.Transaction, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty blob")
	}

	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txs := make([]core.Transaction, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for i, rec := range recs {
		amount, err := decimal.NewFromString(rec.Amount.String())
		if err != nil {
			return nil, fmt.Errorf("element %d: amount %q: %w", i, rec.Amount, err)
		}
		if err := core.CheckAmountRange(amount); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		tx := core.Transaction{
			ID:          rec.ID,
			Description: rec.Description,
			Amount:      amount,
			Type:        core.Type(rec.Type),
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if _, dup := seen[tx.ID]; dup {
			return nil, fmt.Errorf("element %d: duplicate id %q", i, tx.ID)
		}
		seen[tx.ID] = struct{}{}
		txs = append(txs, tx)
	}
	return txs, nil
}

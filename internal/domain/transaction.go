package domain

import (
	"fmt"
	"strings"
	"time"
)

// TxType is the direction of a stock movement.
type TxType string

const (
	TxIn  TxType = "in"
	TxOut TxType = "out"
)

// ParseTxType accepts in/out and a few spreadsheet spellings.
func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "stock_in", "stock-in", "inbound":
		return TxIn, nil
	case "out", "stock_out", "stock-out", "outbound":
		return TxOut, nil
	}
	return "", fmt.Errorf("%w: transaction type %q", ErrInvalidInput, s)
}

// Transaction is a single stock-in or stock-out entry.
type Transaction struct {
	ID          string    `json:"id,omitempty"`
	ProductID   string    `json:"productId,omitempty" validate:"required_without=ProductCode"`
	ProductCode string    `json:"productCode,omitempty" validate:"required_without=ProductID"`
	ProductName string    `json:"productName,omitempty"`
	Type        TxType    `json:"type" validate:"required,oneof=in out"`
	Quantity    int       `json:"quantity" validate:"gt=0"`
	UnitPrice   float64   `json:"unitPrice" validate:"gte=0"`
	OccurredAt  time.Time `json:"occurredAt"`
	Operator    string    `json:"operator,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Note        string    `json:"note,omitempty"`
}

// Signed returns the quantity with its direction applied.
func (t *Transaction) Signed() int {
	if t.Type == TxOut {
		return -t.Quantity
	}
	return t.Quantity
}

// Amount is quantity times unit price.
func (t *Transaction) Amount() float64 {
	return float64(t.Quantity) * t.UnitPrice
}

// Period is the YYYY-MM month the transaction falls in.
func (t *Transaction) Period() string {
	return t.OccurredAt.Format(PeriodLayout)
}

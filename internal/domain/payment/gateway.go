// Package payment describes the boundary to the external payment gateway.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCard         Method = "card"
	MethodBankTransfer Method = "bank_transfer"
	MethodPayPal       Method = "paypal"
)

func (m Method) Known() bool {
	switch m {
	case MethodCard, MethodBankTransfer, MethodPayPal:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomePending means the payer must finish an external flow; a capture
	// callback settles it later.
	OutcomePending Outcome = "pending"
)

type ChargeRequest struct {
	Reference string
	DonorID   string
	Amount    decimal.Decimal
	Method    Method
	Details   map[string]any
}

type ChargeResult struct {
	Outcome       Outcome
	TransactionID string
	RedirectURL   string
	Message       string
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error
}

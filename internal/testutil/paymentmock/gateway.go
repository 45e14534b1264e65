// Package paymentmock provides a function-field payment.Gateway.
package paymentmock

import (
	"context"
	"sync"

	"scholarfund-backend/internal/domain/payment"

	"github.com/shopspring/decimal"
)

type Gateway struct {
	ChargeFn func(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
	RefundFn func(ctx context.Context, transactionID string, amount decimal.Decimal) error

	mu      sync.Mutex
	charges int
	refunds []string
}

func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	g.mu.Lock()
	g.charges++
	g.mu.Unlock()
	if g.ChargeFn != nil {
		return g.ChargeFn(ctx, req)
	}
	return &payment.ChargeResult{Outcome: payment.OutcomeCompleted, TransactionID: "txn_" + req.Reference}, nil
}

func (g *Gateway) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error {
	g.mu.Lock()
	g.refunds = append(g.refunds, transactionID)
	g.mu.Unlock()
	if g.RefundFn != nil {
		return g.RefundFn(ctx, transactionID, amount)
	}
	return nil
}

func (g *Gateway) Charges() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.charges
}

func (g *Gateway) Refunds() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.refunds...)
}

// Respond returns a ChargeFn that always yields outcome with a fresh id.
func Respond(outcome payment.Outcome, message string) func(context.Context, payment.ChargeRequest) (*payment.ChargeResult, error) {
	return func(_ context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
		res := &payment.ChargeResult{Outcome: outcome, TransactionID: "txn_" + req.Reference, Message: message}
		if outcome == payment.OutcomePending {
			res.RedirectURL = "https://pay.example.test/checkout/" + res.TransactionID
		}
		return res, nil
	}
}

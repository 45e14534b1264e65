// Package payment holds the in-process gateway used until a real processor
// adapter is plugged in. It behaves like the hosted checkout flows the
// platform supports: cards settle immediately, PayPal and bank transfers
// come back pending and settle through the capture callback.
package payment

import (
	"context"
	"strings"
	"sync"

	domain "scholarfund-backend/internal/domain/payment"
	"scholarfund-backend/pkg/id"

	"github.com/shopspring/decimal"
)

// DeclineToken in card details makes a card charge fail, for demos and tests.
const DeclineToken = "tok_decline"

type Simulated struct {
	redirectBase string

	mu       sync.Mutex
	refunded map[string]bool
}

func NewSimulated(redirectBase string) *Simulated {
	return &Simulated{redirectBase: strings.TrimRight(redirectBase, "/"), refunded: map[string]bool{}}
}

func (s *Simulated) Charge(ctx context.Context, req domain.ChargeRequest) (*domain.ChargeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txID := id.NewTransactionID()

	switch req.Method {
	case domain.MethodCard:
		if tok, _ := req.Details["token"].(string); tok == DeclineToken {
			return &domain.ChargeResult{Outcome: domain.OutcomeFailed, TransactionID: txID, Message: "card declined"}, nil
		}
		return &domain.ChargeResult{Outcome: domain.OutcomeCompleted, TransactionID: txID}, nil
	case domain.MethodPayPal, domain.MethodBankTransfer:
		return &domain.ChargeResult{
			Outcome:       domain.OutcomePending,
			TransactionID: txID,
			RedirectURL:   s.redirectBase + "/checkout/" + txID,
		}, nil
	}
	return &domain.ChargeResult{Outcome: domain.OutcomeFailed, TransactionID: txID, Message: "unsupported method"}, nil
}

func (s *Simulated) Refund(ctx context.Context, transactionID string, _ decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.refunded[transactionID] = true
	s.mu.Unlock()
	return nil
}

func (s *Simulated) Refunded(transactionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refunded[transactionID]
}

// Package ledger owns the per-scholarship funding counters. Every mutation is
// a single conditional statement in the store, never load-add-save, so
// concurrent donations to one scholarship cannot lose updates.
package ledger

import (
	"context"

	"scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/domain/uow"
	"scholarfund-backend/internal/infrastructure/metrics"

	"github.com/shopspring/decimal"
)

type Ledger struct {
	scholarships scholarship.Repository
	donations    donation.Repository
	metrics      *metrics.Metrics
}

func New(scholarships scholarship.Repository, donations donation.Repository, m *metrics.Metrics) *Ledger {
	return &Ledger{scholarships: scholarships, donations: donations, metrics: m}
}

// ApplyDonation runs inside the caller's transaction so the donation row and
// the aggregate commit together.
func (l *Ledger) ApplyDonation(ctx context.Context, r uow.Repos, scholarshipID, donorID string, amount decimal.Decimal) (*scholarship.Scholarship, error) {
	if !amount.IsPositive() {
		return nil, donation.ErrInvalidAmount
	}

	newDonor, err := r.Scholarships.AddDonor(ctx, scholarshipID, donorID)
	if err != nil {
		return nil, err
	}
	if err := r.Scholarships.IncrementFunding(ctx, scholarshipID, amount, newDonor); err != nil {
		return nil, err
	}
	l.metrics.LedgerMutation("apply")

	return r.Scholarships.GetByScholarshipID(ctx, scholarshipID)
}

// ReverseDonation undoes one completed donation. The caller must already have
// moved the donation out of completed within r, so the remaining-donation
// count below excludes it.
func (l *Ledger) ReverseDonation(ctx context.Context, r uow.Repos, scholarshipID, donorID string, amount decimal.Decimal) (*scholarship.Scholarship, error) {
	if !amount.IsPositive() {
		return nil, donation.ErrInvalidAmount
	}

	remaining, err := r.Donations.CountCompletedByDonor(ctx, scholarshipID, donorID)
	if err != nil {
		return nil, err
	}
	lostDonor := false
	if remaining == 0 {
		if lostDonor, err = r.Scholarships.RemoveDonor(ctx, scholarshipID, donorID); err != nil {
			return nil, err
		}
	}
	if err := r.Scholarships.DecrementFunding(ctx, scholarshipID, amount, lostDonor); err != nil {
		return nil, err
	}
	l.metrics.LedgerMutation("reverse")

	return r.Scholarships.GetByScholarshipID(ctx, scholarshipID)
}

// Stats is read-only.
func (l *Ledger) Stats(ctx context.Context, scholarshipID string) (*StatsDTO, error) {
	s, err := l.scholarships.GetByScholarshipID(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}
	agg, err := l.donations.CompletedStats(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}
	return &StatsDTO{
		ScholarshipID: s.ScholarshipID,
		DonationCount: agg.Count,
		DonorCount:    s.DonorCount,
		FundsRaised:   s.FundsRaised,
		TotalFunds:    s.TotalFunds,
		Total:         agg.Total,
		Average:       agg.Average,
		Min:           agg.Min,
		Max:           agg.Max,
	}, nil
}

package donation

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, d *Donation) error
	GetByDonationID(ctx context.Context, donationID string) (*Donation, error)
	GetByDonationIDForUpdate(ctx context.Context, donationID string) (*Donation, error)
	GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*Donation, error)
	// UpdateStatus persists status and its settlement timestamps only.
	UpdateStatus(ctx context.Context, d *Donation) error
	CountCompletedByDonor(ctx context.Context, scholarshipID, donorID string) (int64, error)
	CompletedStats(ctx context.Context, scholarshipID string) (*Stats, error)
	// CancelStalePending cancels pending/processing donations untouched since before.
	CancelStalePending(ctx context.Context, before time.Time) (int64, error)
}

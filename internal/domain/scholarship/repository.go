package scholarship

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, s *Scholarship) error
	GetByScholarshipID(ctx context.Context, scholarshipID string) (*Scholarship, error)
	GetByScholarshipIDForUpdate(ctx context.Context, scholarshipID string) (*Scholarship, error)
	UpdateStatus(ctx context.Context, scholarshipID string, status Status) error
	ListActivePastDeadline(ctx context.Context, now time.Time) ([]Scholarship, error)

	// Ledger primitives. Each is a single statement against the store.

	// AddDonor reports whether the donor was newly added to the set.
	AddDonor(ctx context.Context, scholarshipID, donorID string) (bool, error)
	// RemoveDonor reports whether a membership row was deleted.
	RemoveDonor(ctx context.Context, scholarshipID, donorID string) (bool, error)
	IncrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, newDonor bool) error
	DecrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, lostDonor bool) error
	// CommitAward reports false when the funds guard rejects the award.
	CommitAward(ctx context.Context, scholarshipID string, award decimal.Decimal) (bool, error)
	IncrementApplicationCount(ctx context.Context, scholarshipID string) error
}

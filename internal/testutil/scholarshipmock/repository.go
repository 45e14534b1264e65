package scholarshipmock

import (
	"context"
	"errors"
	"time"

	domain "scholarfund-backend/internal/domain/scholarship"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("scholarshipmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to a no-op; reads default to errUnimplemented.
type Repo struct {
	CreateFn                      func(ctx context.Context, s *domain.Scholarship) error
	GetByScholarshipIDFn          func(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)
	GetByScholarshipIDForUpdateFn func(ctx context.Context, scholarshipID string) (*domain.Scholarship, error)
	UpdateStatusFn                func(ctx context.Context, scholarshipID string, status domain.Status) error
	ListActivePastDeadlineFn      func(ctx context.Context, now time.Time) ([]domain.Scholarship, error)
	AddDonorFn                    func(ctx context.Context, scholarshipID, donorID string) (bool, error)
	RemoveDonorFn                 func(ctx context.Context, scholarshipID, donorID string) (bool, error)
	IncrementFundingFn            func(ctx context.Context, scholarshipID string, amount decimal.Decimal, newDonor bool) error
	DecrementFundingFn            func(ctx context.Context, scholarshipID string, amount decimal.Decimal, lostDonor bool) error
	CommitAwardFn                 func(ctx context.Context, scholarshipID string, award decimal.Decimal) (bool, error)
	IncrementApplicationCountFn   func(ctx context.Context, scholarshipID string) error
}

func (m *Repo) Create(ctx context.Context, s *domain.Scholarship) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, s)
	}
	return nil
}

func (m *Repo) GetByScholarshipID(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	if m.GetByScholarshipIDFn != nil {
		return m.GetByScholarshipIDFn(ctx, scholarshipID)
	}
	return nil, errUnimplemented
}

func (m *Repo) GetByScholarshipIDForUpdate(ctx context.Context, scholarshipID string) (*domain.Scholarship, error) {
	if m.GetByScholarshipIDForUpdateFn != nil {
		return m.GetByScholarshipIDForUpdateFn(ctx, scholarshipID)
	}
	return nil, errUnimplemented
}

func (m *Repo) UpdateStatus(ctx context.Context, scholarshipID string, status domain.Status) error {
	if m.UpdateStatusFn != nil {
		return m.UpdateStatusFn(ctx, scholarshipID, status)
	}
	return nil
}

func (m *Repo) ListActivePastDeadline(ctx context.Context, now time.Time) ([]domain.Scholarship, error) {
	if m.ListActivePastDeadlineFn != nil {
		return m.ListActivePastDeadlineFn(ctx, now)
	}
	return nil, nil
}

func (m *Repo) AddDonor(ctx context.Context, scholarshipID, donorID string) (bool, error) {
	if m.AddDonorFn != nil {
		return m.AddDonorFn(ctx, scholarshipID, donorID)
	}
	return false, errUnimplemented
}

func (m *Repo) RemoveDonor(ctx context.Context, scholarshipID, donorID string) (bool, error) {
	if m.RemoveDonorFn != nil {
		return m.RemoveDonorFn(ctx, scholarshipID, donorID)
	}
	return false, errUnimplemented
}

func (m *Repo) IncrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, newDonor bool) error {
	if m.IncrementFundingFn != nil {
		return m.IncrementFundingFn(ctx, scholarshipID, amount, newDonor)
	}
	return errUnimplemented
}

func (m *Repo) DecrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, lostDonor bool) error {
	if m.DecrementFundingFn != nil {
		return m.DecrementFundingFn(ctx, scholarshipID, amount, lostDonor)
	}
	return errUnimplemented
}

func (m *Repo) CommitAward(ctx context.Context, scholarshipID string, award decimal.Decimal) (bool, error) {
	if m.CommitAwardFn != nil {
		return m.CommitAwardFn(ctx, scholarshipID, award)
	}
	return false, errUnimplemented
}

func (m *Repo) IncrementApplicationCount(ctx context.Context, scholarshipID string) error {
	if m.IncrementApplicationCountFn != nil {
		return m.IncrementApplicationCountFn(ctx, scholarshipID)
	}
	return errUnimplemented
}

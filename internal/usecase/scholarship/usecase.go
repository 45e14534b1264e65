// Package scholarship covers the administrative side of scholarships:
// creation, status changes and the deadline sweep.
package scholarship

import (
	"context"
	"strings"
	"time"

	"scholarfund-backend/internal/domain/apperr"
	"scholarfund-backend/internal/domain/notify"
	domain "scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/usecase/dispatch"
	"scholarfund-backend/internal/usecase/ledger"
	"scholarfund-backend/pkg/id"

	"github.com/rs/zerolog"
)

var (
	errTitleRequired  = apperr.New(apperr.ErrValidation, "title is required")
	errTotalFunds     = apperr.New(apperr.ErrValidation, "total_funds must be greater than zero")
	errAwardAmount    = apperr.New(apperr.ErrValidation, "award_amount must be between 0 and total_funds")
	errDeadlineInPast = apperr.New(apperr.ErrValidation, "deadline must be in the future")
)

type Deps struct {
	Scholarships domain.Repository
	Ledger       *ledger.Ledger
	Dispatcher   *dispatch.Dispatcher
	Log          zerolog.Logger
}

type Usecase struct {
	Deps
	now func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	return &Usecase{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*ScholarshipDTO, error) {
	status := domain.StatusDraft
	if in.Status != "" {
		st, err := domain.ParseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		status = st
	}
	switch {
	case strings.TrimSpace(in.Title) == "":
		return nil, errTitleRequired
	case !in.TotalFunds.IsPositive():
		return nil, errTotalFunds
	case in.AwardAmount.IsNegative() || in.AwardAmount.GreaterThan(in.TotalFunds):
		return nil, errAwardAmount
	case !in.Deadline.After(u.now()):
		return nil, errDeadlineInPast
	}

	s := &domain.Scholarship{
		ScholarshipID:  id.NewID32(),
		AdminID:        in.AdminID,
		Title:          strings.TrimSpace(in.Title),
		TotalFunds:     in.TotalFunds.Round(2),
		AvailableFunds: in.TotalFunds.Round(2),
		AwardAmount:    in.AwardAmount.Round(2),
		Status:         status,
		Deadline:       in.Deadline.UTC(),
	}
	if err := u.Scholarships.Create(ctx, s); err != nil {
		return nil, err
	}

	if s.IsActive() {
		u.Dispatcher.Push(notify.ToEveryone(notify.TypeNewScholarship, summary(s)))
	}
	u.Dispatcher.Publish(ctx, notify.KeyScholarshipCreated, summary(s))
	return toDTO(s), nil
}

func (u *Usecase) SetStatus(ctx context.Context, scholarshipID, status string) (*ScholarshipDTO, error) {
	st, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	if err := u.Scholarships.UpdateStatus(ctx, scholarshipID, st); err != nil {
		return nil, err
	}
	s, err := u.Scholarships.GetByScholarshipID(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}
	u.Dispatcher.Push(notify.ToEveryone(notify.TypeScholarshipUpdated, summary(s)))
	return toDTO(s), nil
}

func (u *Usecase) Get(ctx context.Context, scholarshipID string) (*ScholarshipDTO, error) {
	s, err := u.Scholarships.GetByScholarshipID(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}
	return toDTO(s), nil
}

func (u *Usecase) Stats(ctx context.Context, scholarshipID string) (*ledger.StatsDTO, error) {
	return u.Ledger.Stats(ctx, scholarshipID)
}

// CloseExpired deactivates active scholarships whose deadline has passed and
// returns how many were closed.
func (u *Usecase) CloseExpired(ctx context.Context) (int64, error) {
	expired, err := u.Scholarships.ListActivePastDeadline(ctx, u.now())
	if err != nil {
		return 0, err
	}
	var closed int64
	for i := range expired {
		s := &expired[i]
		if err := u.Scholarships.UpdateStatus(ctx, s.ScholarshipID, domain.StatusInactive); err != nil {
			u.Log.Warn().Err(err).Str("scholarship_id", s.ScholarshipID).Msg("close expired scholarship failed")
			continue
		}
		s.Status = domain.StatusInactive
		closed++
		u.Dispatcher.Push(notify.ToEveryone(notify.TypeScholarshipUpdated, summary(s)))
	}
	return closed, nil
}

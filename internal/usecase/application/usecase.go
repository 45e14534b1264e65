// Package application runs the application lifecycle: submission and the
// closed set of status transitions, each committed with its history entry
// and any scholarship counter change in one transaction.
package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"scholarfund-backend/internal/domain/apperr"
	domain "scholarfund-backend/internal/domain/application"
	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/domain/student"
	"scholarfund-backend/internal/domain/uow"
	"scholarfund-backend/internal/infrastructure/metrics"
	"scholarfund-backend/internal/usecase/dispatch"
	"scholarfund-backend/pkg/id"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	errStudentRequired     = apperr.New(apperr.ErrValidation, "student_id is required")
	errScholarshipRequired = apperr.New(apperr.ErrValidation, "scholarship_id is required")
	errInvalidGPA          = apperr.New(apperr.ErrValidation, "gpa must be between 0 and 4")
	errNegativeRequest     = apperr.New(apperr.ErrValidation, "requested_amount must not be negative")
	errReviewTarget        = apperr.New(apperr.ErrValidation, "review may set under_review, shortlisted or rejected")
	errDecisionTarget      = apperr.New(apperr.ErrValidation, "decision must be approved or rejected")
)

type Deps struct {
	UoW          uow.UnitOfWork
	Applications domain.Repository
	Dispatcher   *dispatch.Dispatcher
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

type Usecase struct {
	Deps
	now func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	return &Usecase{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*ApplicationDTO, error) {
	switch {
	case strings.TrimSpace(in.StudentID) == "":
		return nil, errStudentRequired
	case strings.TrimSpace(in.ScholarshipID) == "":
		return nil, errScholarshipRequired
	case in.GPA < 0 || in.GPA > 4:
		return nil, errInvalidGPA
	case in.RequestedAmount.IsNegative():
		return nil, errNegativeRequest
	}

	var docs datatypes.JSON
	if len(in.Documents) > 0 {
		b, err := json.Marshal(in.Documents)
		if err != nil {
			return nil, err
		}
		docs = b
	}

	now := u.now()
	a := &domain.Application{
		ApplicationID:   id.NewID32(),
		StudentID:       in.StudentID,
		ScholarshipID:   in.ScholarshipID,
		Status:          domain.StatusSubmitted,
		Essay:           in.Essay,
		GPA:             in.GPA,
		Major:           in.Major,
		YearOfStudy:     in.YearOfStudy,
		Documents:       docs,
		RequestedAmount: in.RequestedAmount.Round(2),
		StatusUpdatedAt: now,
	}

	var (
		stu *student.Student
		sch *scholarship.Scholarship
	)
	err := u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		// profiles live in the auth service; the first submission registers the id here
		if err := r.Students.Ensure(ctx, in.StudentID); err != nil {
			return err
		}
		var err error
		if stu, err = r.Students.GetByStudentID(ctx, in.StudentID); err != nil {
			return err
		}
		if sch, err = r.Scholarships.GetByScholarshipID(ctx, in.ScholarshipID); err != nil {
			return err
		}
		if !sch.IsActive() {
			return scholarship.ErrInactive
		}
		if sch.DeadlinePassed(now) {
			return scholarship.ErrDeadlinePassed
		}
		exists, err := r.Applications.ExistsForPair(ctx, in.StudentID, in.ScholarshipID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicate
		}

		// the unique index still catches a concurrent duplicate here
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		h := domain.StatusHistory{
			ApplicationID: a.ID,
			Status:        a.Status,
			ChangedBy:     in.StudentID,
			Notes:         "application submitted",
			ChangedAt:     now,
		}
		if err := r.Applications.AppendHistory(ctx, &h); err != nil {
			return err
		}
		a.History = append(a.History, h)

		if err := r.Students.IncrementApplicationCount(ctx, in.StudentID); err != nil {
			return err
		}
		return r.Scholarships.IncrementApplicationCount(ctx, in.ScholarshipID)
	})
	if err != nil {
		return nil, err
	}

	u.Metrics.Transition("", string(a.Status))
	payload := newApplicationPayload{
		ApplicationID:   a.ApplicationID,
		ScholarshipID:   sch.ScholarshipID,
		ScholarshipName: sch.Title,
		StudentName:     stu.FullName,
		SubmittedAt:     now,
	}
	u.Dispatcher.Push(notify.ToRole(notify.RoleAdmin, notify.TypeNewApplication, payload))
	u.Dispatcher.Push(notify.ToRole(notify.RoleReviewer, notify.TypeNewApplication, payload))
	u.Dispatcher.Publish(ctx, notify.KeyApplicationSubmitted, submittedEvent{
		ApplicationID: a.ApplicationID,
		StudentID:     stu.StudentID,
		StudentEmail:  stu.Email,
		ScholarshipID: sch.ScholarshipID,
		Scholarship:   sch.Title,
		At:            now,
	})
	return toDTO(a), nil
}

// Review is the reviewer path: under_review, shortlisted or rejected.
func (u *Usecase) Review(ctx context.Context, in TransitionInput) (*ApplicationDTO, error) {
	to, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	switch to {
	case domain.StatusUnderReview, domain.StatusShortlisted, domain.StatusRejected:
	default:
		return nil, errReviewTarget
	}
	return u.transition(ctx, in, to, true)
}

// Decide is the administrator path: approved (funds guarded) or rejected.
func (u *Usecase) Decide(ctx context.Context, in TransitionInput) (*ApplicationDTO, error) {
	to, err := domain.ParseStatus(in.Status)
	if err != nil {
		return nil, err
	}
	if to != domain.StatusApproved && to != domain.StatusRejected {
		return nil, errDecisionTarget
	}
	return u.transition(ctx, in, to, false)
}

func (u *Usecase) transition(ctx context.Context, in TransitionInput, to domain.Status, byReviewer bool) (*ApplicationDTO, error) {
	if strings.TrimSpace(in.ActorID) == "" {
		return nil, apperr.New(apperr.ErrValidation, "actor is required")
	}

	var (
		a    *domain.Application
		from domain.Status
		sch  *scholarship.Scholarship
		stu  *student.Student
	)
	err := u.UoW.WithinApplicationTx(ctx, in.ApplicationID, func(r uow.Repos, locked *domain.Application) error {
		a, from = locked, locked.Status
		if err := domain.CheckTransition(from, to); err != nil {
			return err
		}

		var err error
		if domain.NeedsActiveScholarship(to) {
			sch, err = r.Scholarships.GetByScholarshipIDForUpdate(ctx, a.ScholarshipID)
		} else {
			sch, err = r.Scholarships.GetByScholarshipID(ctx, a.ScholarshipID)
		}
		if err != nil {
			return err
		}
		if domain.NeedsActiveScholarship(to) && !sch.IsActive() {
			return scholarship.ErrInactive
		}

		if to == domain.StatusApproved {
			award := awardFor(a, sch)
			if !award.IsPositive() {
				return domain.ErrNoAwardAmount
			}
			ok, err := r.Scholarships.CommitAward(ctx, a.ScholarshipID, award)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrFundsExhausted
			}
			a.AwardedAmount = award
		}

		now := u.now()
		a.Status = to
		a.StatusUpdatedAt = now
		if byReviewer {
			actor := in.ActorID
			a.ReviewerID = &actor
			if in.Notes != "" {
				a.ReviewerNotes = in.Notes
			}
		} else if in.Notes != "" {
			a.AdminNotes = in.Notes
		}
		if err := r.Applications.UpdateDecision(ctx, a); err != nil {
			return err
		}
		h := domain.StatusHistory{
			ApplicationID: a.ID,
			Status:        to,
			ChangedBy:     in.ActorID,
			Notes:         in.Notes,
			ChangedAt:     now,
		}
		if err := r.Applications.AppendHistory(ctx, &h); err != nil {
			return err
		}
		a.History = append(a.History, h)

		// the student's name only decorates notifications
		stu, err = r.Students.GetByStudentID(ctx, a.StudentID)
		switch {
		case errors.Is(err, student.ErrNotFound):
			stu = &student.Student{StudentID: a.StudentID}
		case err != nil:
			u.Log.Warn().Err(err).Str("student_id", a.StudentID).Msg("student lookup failed; notifying without name")
			stu = &student.Student{StudentID: a.StudentID}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.Metrics.Transition(string(from), string(to))
	u.Log.Info().Str("application_id", a.ApplicationID).Str("from", string(from)).
		Str("to", string(to)).Str("actor", in.ActorID).Msg("application transitioned")

	u.Dispatcher.Push(notify.ToIdentity(a.StudentID, notify.TypeApplicationStatusUpdate, statusUpdatePayload{
		ApplicationID:   a.ApplicationID,
		ScholarshipName: sch.Title,
		NewStatus:       string(to),
		UpdatedAt:       a.StatusUpdatedAt,
	}))
	u.Dispatcher.Push(notify.ToRole(notify.RoleAdmin, notify.TypeApplicationReviewed, reviewedPayload{
		ApplicationID:   a.ApplicationID,
		ScholarshipName: sch.Title,
		StudentName:     stu.FullName,
		NewStatus:       string(to),
		Notes:           in.Notes,
		ChangedBy:       in.ActorID,
		UpdatedAt:       a.StatusUpdatedAt,
	}))
	u.Dispatcher.Publish(ctx, notify.KeyApplicationStatusChanged, statusChangedEvent{
		ApplicationID: a.ApplicationID,
		StudentID:     a.StudentID,
		StudentEmail:  stu.Email,
		ScholarshipID: a.ScholarshipID,
		From:          string(from),
		To:            string(to),
		ChangedBy:     in.ActorID,
		Notes:         in.Notes,
		AwardedAmount: a.AwardedAmount,
		At:            a.StatusUpdatedAt,
	})
	return toDTO(a), nil
}

func (u *Usecase) Get(ctx context.Context, applicationID string) (*ApplicationDTO, error) {
	a, err := u.Applications.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

// awardFor prefers the amount the student asked for over the scholarship default.
func awardFor(a *domain.Application, s *scholarship.Scholarship) decimal.Decimal {
	if a.RequestedAmount.IsPositive() {
		return a.RequestedAmount
	}
	return s.AwardAmount
}

package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"scholarfund-backend/internal/domain/application"
	"scholarfund-backend/internal/domain/uow"
	"scholarfund-backend/internal/testutil/dbtest"
	"scholarfund-backend/pkg/id"

	"github.com/shopspring/decimal"
)

func TestGormUoW_WithinTx_Commit(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	schRepo := NewScholarshipRepository(db)
	s := seedScholarship(t, schRepo, 500, 0)

	var appID string
	err := guow.WithinTx(ctx, func(r uow.Repos) error {
		a := makeApplication(id.NewID32(), s.ScholarshipID)
		appID = a.ApplicationID
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Applications.AppendHistory(ctx, &application.StatusHistory{
			ApplicationID: a.ID, Status: a.Status, ChangedBy: a.StudentID, ChangedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return r.Scholarships.IncrementApplicationCount(ctx, s.ScholarshipID)
	})
	if err != nil {
		t.Fatalf("WithinTx commit err: %v", err)
	}

	got, err := NewApplicationRepository(db).GetByApplicationID(ctx, appID)
	if err != nil || len(got.History) != 1 {
		t.Fatalf("application not visible after commit: %+v %v", got, err)
	}
	sch, _ := schRepo.GetByScholarshipID(ctx, s.ScholarshipID)
	if sch.ApplicationCount != 1 {
		t.Fatalf("application_count = %d", sch.ApplicationCount)
	}
}

func TestGormUoW_WithinTx_Rollback(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	schRepo := NewScholarshipRepository(db)
	s := seedScholarship(t, schRepo, 500, 0)
	sentinel := errors.New("boom")

	var appID string
	_ = guow.WithinTx(ctx, func(r uow.Repos) error {
		a := makeApplication(id.NewID32(), s.ScholarshipID)
		appID = a.ApplicationID
		if err := r.Applications.Create(ctx, a); err != nil {
			return err
		}
		if err := r.Scholarships.IncrementFunding(ctx, s.ScholarshipID, decimal.NewFromInt(10), true); err != nil {
			return err
		}
		return sentinel // force rollback
	})

	if _, err := NewApplicationRepository(db).GetByApplicationID(ctx, appID); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected application absent after rollback, got %v", err)
	}
	sch, _ := schRepo.GetByScholarshipID(ctx, s.ScholarshipID)
	if !sch.FundsRaised.IsZero() || sch.DonationCount != 0 {
		t.Fatalf("funding leaked past rollback: %+v", sch)
	}
}

func TestGormUoW_WithinApplicationTx(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	guow := NewGormUoW(db)
	appRepo := NewApplicationRepository(db)

	a := makeApplication(id.NewID32(), id.NewID32())
	if err := appRepo.Create(ctx, a); err != nil {
		t.Fatal(err)
	}

	if err := guow.WithinApplicationTx(ctx, a.ApplicationID, func(r uow.Repos, locked *application.Application) error {
		if locked.ApplicationID != a.ApplicationID {
			t.Fatalf("unexpected application passed to fn: %+v", locked)
		}
		locked.Status = application.StatusUnderReview
		return r.Applications.UpdateDecision(ctx, locked)
	}); err != nil {
		t.Fatalf("WithinApplicationTx: %v", err)
	}
	got, _ := appRepo.GetByApplicationID(ctx, a.ApplicationID)
	if got.Status != application.StatusUnderReview {
		t.Fatalf("status = %s", got.Status)
	}

	sentinel := errors.New("stop")
	_ = guow.WithinApplicationTx(ctx, a.ApplicationID, func(r uow.Repos, locked *application.Application) error {
		locked.Status = application.StatusRejected
		if err := r.Applications.UpdateDecision(ctx, locked); err != nil {
			return err
		}
		return sentinel
	})
	got, _ = appRepo.GetByApplicationID(ctx, a.ApplicationID)
	if got.Status != application.StatusUnderReview {
		t.Fatalf("expected under_review after rollback, got %s", got.Status)
	}

	err := guow.WithinApplicationTx(ctx, "missing", func(uow.Repos, *application.Application) error {
		t.Fatal("fn must not run for a missing application")
		return nil
	})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

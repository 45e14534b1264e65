package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/testutil/dbtest"
	"scholarfund-backend/pkg/id"

	"github.com/shopspring/decimal"
)

func makeDonation(scholarshipID *string, donorID string, amount int64, status donation.PaymentStatus) *donation.Donation {
	tx := "txn_" + id.NewID32()
	return &donation.Donation{
		DonationID:    id.NewID32(),
		DonorID:       donorID,
		ScholarshipID: scholarshipID,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: "card",
		PaymentStatus: status,
		TransactionID: &tx,
	}
}

func TestDonation_CreateGetAndUpdate(t *testing.T) {
	repo := NewDonationRepository(dbtest.Open(t))
	ctx := context.Background()
	sch := id.NewID32()

	d := makeDonation(&sch, id.NewID32(), 50, donation.StatusPending)
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByTransactionIDForUpdate(ctx, *d.TransactionID)
	if err != nil || got.DonationID != d.DonationID {
		t.Fatalf("GetByTransactionIDForUpdate: %+v %v", got, err)
	}

	now := time.Now().UTC()
	got.PaymentStatus = donation.StatusCompleted
	got.CompletedAt = &now
	if err := repo.UpdateStatus(ctx, got); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	again, _ := repo.GetByDonationID(ctx, d.DonationID)
	if again.PaymentStatus != donation.StatusCompleted || again.CompletedAt == nil {
		t.Fatalf("status not persisted: %+v", again)
	}

	if _, err := repo.GetByDonationIDForUpdate(ctx, "missing"); !errors.Is(err, donation.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDonation_GeneralFundHasNoScholarship(t *testing.T) {
	repo := NewDonationRepository(dbtest.Open(t))
	ctx := context.Background()

	d := makeDonation(nil, id.NewID32(), 10, donation.StatusCompleted)
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, _ := repo.GetByDonationID(ctx, d.DonationID)
	if got.ScholarshipID != nil {
		t.Fatalf("general fund donation has scholarship %q", *got.ScholarshipID)
	}
}

func TestDonation_CompletedStatsAndCounts(t *testing.T) {
	repo := NewDonationRepository(dbtest.Open(t))
	ctx := context.Background()
	sch := id.NewID32()
	donorA, donorB := id.NewID32(), id.NewID32()

	for _, d := range []*donation.Donation{
		makeDonation(&sch, donorA, 50, donation.StatusCompleted),
		makeDonation(&sch, donorA, 25, donation.StatusCompleted),
		makeDonation(&sch, donorB, 100, donation.StatusCompleted),
		makeDonation(&sch, donorB, 999, donation.StatusFailed),
	} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := repo.CompletedStats(ctx, sch)
	if err != nil {
		t.Fatalf("CompletedStats: %v", err)
	}
	if stats.Count != 3 || !stats.Total.Equal(decimal.NewFromInt(175)) {
		t.Fatalf("count=%d total=%s", stats.Count, stats.Total)
	}
	if !stats.Min.Equal(decimal.NewFromInt(25)) || !stats.Max.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("min=%s max=%s", stats.Min, stats.Max)
	}
	if !stats.Average.Equal(decimal.RequireFromString("58.33")) {
		t.Fatalf("average=%s", stats.Average)
	}

	n, err := repo.CountCompletedByDonor(ctx, sch, donorA)
	if err != nil || n != 2 {
		t.Fatalf("CountCompletedByDonor = %d, %v", n, err)
	}

	empty, err := repo.CompletedStats(ctx, id.NewID32())
	if err != nil || empty.Count != 0 || !empty.Total.IsZero() {
		t.Fatalf("empty stats: %+v %v", empty, err)
	}
}

func TestDonation_CancelStalePending(t *testing.T) {
	repo := NewDonationRepository(dbtest.Open(t))
	ctx := context.Background()
	sch := id.NewID32()

	pending := makeDonation(&sch, id.NewID32(), 10, donation.StatusPending)
	completed := makeDonation(&sch, id.NewID32(), 10, donation.StatusCompleted)
	for _, d := range []*donation.Donation{pending, completed} {
		if err := repo.Create(ctx, d); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.CancelStalePending(ctx, time.Now().UTC().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("fresh pending must survive: n=%d err=%v", n, err)
	}
	n, err = repo.CancelStalePending(ctx, time.Now().UTC().Add(time.Hour))
	if err != nil || n != 1 {
		t.Fatalf("CancelStalePending = %d, %v", n, err)
	}
	got, _ := repo.GetByDonationID(ctx, pending.DonationID)
	if got.PaymentStatus != donation.StatusCancelled {
		t.Fatalf("status = %s", got.PaymentStatus)
	}
	done, _ := repo.GetByDonationID(ctx, completed.DonationID)
	if done.PaymentStatus != donation.StatusCompleted {
		t.Fatalf("completed donation touched: %s", done.PaymentStatus)
	}
}

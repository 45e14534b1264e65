package mysql

import (
	"context"
	"errors"
	"time"

	"scholarfund-backend/internal/domain/donation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DonationRepository struct{ db *gorm.DB }

func NewDonationRepository(db *gorm.DB) *DonationRepository { return &DonationRepository{db: db} }

func (r *DonationRepository) Create(ctx context.Context, d *donation.Donation) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *DonationRepository) GetByDonationID(ctx context.Context, donationID string) (*donation.Donation, error) {
	return r.first(r.db.WithContext(ctx).Where("donation_id = ?", donationID))
}

func (r *DonationRepository) GetByDonationIDForUpdate(ctx context.Context, donationID string) (*donation.Donation, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("donation_id = ?", donationID))
}

func (r *DonationRepository) GetByTransactionIDForUpdate(ctx context.Context, transactionID string) (*donation.Donation, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("transaction_id = ?", transactionID))
}

func (r *DonationRepository) first(q *gorm.DB) (*donation.Donation, error) {
	var out donation.Donation
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, donation.ErrNotFound
	}
	return &out, err
}

func (r *DonationRepository) UpdateStatus(ctx context.Context, d *donation.Donation) error {
	res := r.db.WithContext(ctx).Model(&donation.Donation{}).
		Where("id = ?", d.ID).
		Updates(map[string]any{
			"payment_status": d.PaymentStatus,
			"transaction_id": d.TransactionID,
			"failure_reason": d.FailureReason,
			"completed_at":   d.CompletedAt,
			"refunded_at":    d.RefundedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return donation.ErrNotFound
	}
	return nil
}

func (r *DonationRepository) CountCompletedByDonor(ctx context.Context, scholarshipID, donorID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&donation.Donation{}).
		Where("scholarship_id = ? AND donor_id = ? AND payment_status = ?",
			scholarshipID, donorID, donation.StatusCompleted).
		Count(&n).Error
	return n, err
}

func (r *DonationRepository) CompletedStats(ctx context.Context, scholarshipID string) (*donation.Stats, error) {
	var row struct {
		Cnt     int64
		Total   decimal.Decimal
		Average decimal.Decimal
		Minimum decimal.Decimal
		Maximum decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&donation.Donation{}).
		Select("COUNT(*) AS cnt, COALESCE(SUM(amount), 0) AS total, COALESCE(AVG(amount), 0) AS average, "+
			"COALESCE(MIN(amount), 0) AS minimum, COALESCE(MAX(amount), 0) AS maximum").
		Where("scholarship_id = ? AND payment_status = ?", scholarshipID, donation.StatusCompleted).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &donation.Stats{
		Count:   row.Cnt,
		Total:   row.Total,
		Average: row.Average.Round(2),
		Min:     row.Minimum,
		Max:     row.Maximum,
	}, nil
}

func (r *DonationRepository) CancelStalePending(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&donation.Donation{}).
		Where("payment_status IN ? AND updated_at < ?",
			[]donation.PaymentStatus{donation.StatusPending, donation.StatusProcessing}, before.UTC()).
		Updates(map[string]any{
			"payment_status": donation.StatusCancelled,
			"failure_reason": "payment was not completed in time",
		})
	return res.RowsAffected, res.Error
}

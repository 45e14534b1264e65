package mysql

import (
	"context"
	"errors"
	"time"

	"scholarfund-backend/internal/domain/scholarship"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// amounts are cast so MySQL keeps DECIMAL arithmetic instead of DOUBLE
const castAmount = "CAST(? AS DECIMAL(18,2))"

type ScholarshipRepository struct{ db *gorm.DB }

func NewScholarshipRepository(db *gorm.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

func (r *ScholarshipRepository) Create(ctx context.Context, s *scholarship.Scholarship) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *ScholarshipRepository) GetByScholarshipID(ctx context.Context, scholarshipID string) (*scholarship.Scholarship, error) {
	var out scholarship.Scholarship
	err := r.db.WithContext(ctx).Where("scholarship_id = ?", scholarshipID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scholarship.ErrNotFound
	}
	return &out, err
}

func (r *ScholarshipRepository) GetByScholarshipIDForUpdate(ctx context.Context, scholarshipID string) (*scholarship.Scholarship, error) {
	var out scholarship.Scholarship
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("scholarship_id = ?", scholarshipID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, scholarship.ErrNotFound
	}
	return &out, err
}

func (r *ScholarshipRepository) UpdateStatus(ctx context.Context, scholarshipID string, status scholarship.Status) error {
	res := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ?", scholarshipID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.exists(ctx, scholarshipID)
	}
	return nil
}

func (r *ScholarshipRepository) ListActivePastDeadline(ctx context.Context, now time.Time) ([]scholarship.Scholarship, error) {
	var out []scholarship.Scholarship
	err := r.db.WithContext(ctx).
		Where("status = ? AND deadline < ?", scholarship.StatusActive, now.UTC()).
		Order("deadline ASC").
		Find(&out).Error
	return out, err
}

func (r *ScholarshipRepository) AddDonor(ctx context.Context, scholarshipID, donorID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&scholarship.Donor{ScholarshipID: scholarshipID, DonorID: donorID})
	return res.RowsAffected == 1, res.Error
}

func (r *ScholarshipRepository) RemoveDonor(ctx context.Context, scholarshipID, donorID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("scholarship_id = ? AND donor_id = ?", scholarshipID, donorID).
		Delete(&scholarship.Donor{})
	return res.RowsAffected == 1, res.Error
}

// IncrementFunding is one UPDATE so concurrent donations never lose an increment.
func (r *ScholarshipRepository) IncrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, newDonor bool) error {
	res := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ?", scholarshipID).
		Updates(map[string]any{
			"funds_raised":   gorm.Expr("funds_raised + "+castAmount, amount),
			"amount_funded":  gorm.Expr("amount_funded + "+castAmount, amount),
			"donation_count": gorm.Expr("donation_count + 1"),
			"donor_count":    gorm.Expr("donor_count + ?", boolToInt(newDonor)),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scholarship.ErrNotFound
	}
	return nil
}

func (r *ScholarshipRepository) DecrementFunding(ctx context.Context, scholarshipID string, amount decimal.Decimal, lostDonor bool) error {
	res := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ? AND funds_raised >= "+castAmount+" AND donation_count > 0", scholarshipID, amount).
		Updates(map[string]any{
			"funds_raised":   gorm.Expr("funds_raised - "+castAmount, amount),
			"amount_funded":  gorm.Expr("amount_funded - "+castAmount, amount),
			"donation_count": gorm.Expr("donation_count - 1"),
			"donor_count":    gorm.Expr("donor_count - ?", boolToInt(lostDonor)),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := r.exists(ctx, scholarshipID); err != nil {
			return err
		}
		return scholarship.ErrLedgerUnderflow
	}
	return nil
}

// CommitAward applies the funds guard and the commitment in the same statement.
func (r *ScholarshipRepository) CommitAward(ctx context.Context, scholarshipID string, award decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ? AND funds_raised + committed_funds + "+castAmount+" <= total_funds", scholarshipID, award).
		Updates(map[string]any{
			"committed_funds": gorm.Expr("committed_funds + "+castAmount, award),
			"available_funds": gorm.Expr("available_funds - "+castAmount, award),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ScholarshipRepository) IncrementApplicationCount(ctx context.Context, scholarshipID string) error {
	res := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ?", scholarshipID).
		Update("application_count", gorm.Expr("application_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scholarship.ErrNotFound
	}
	return nil
}

func (r *ScholarshipRepository) exists(ctx context.Context, scholarshipID string) error {
	var n int64
	if err := r.db.WithContext(ctx).Model(&scholarship.Scholarship{}).
		Where("scholarship_id = ?", scholarshipID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return scholarship.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package mysql

import (
	"context"
	"errors"

	"scholarfund-backend/internal/domain/application"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApplicationRepository struct{ db *gorm.DB }

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return application.ErrDuplicate
	}
	return err
}

func orderedHistory(db *gorm.DB) *gorm.DB { return db.Order("changed_at ASC, id ASC") }

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*application.Application, error) {
	return r.first(r.db.WithContext(ctx).
		Preload("History", orderedHistory).
		Where("application_id = ?", applicationID))
}

func (r *ApplicationRepository) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*application.Application, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("History", orderedHistory).
		Where("application_id = ?", applicationID))
}

func (r *ApplicationRepository) first(q *gorm.DB) (*application.Application, error) {
	var out application.Application
	err := q.First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, application.ErrNotFound
	}
	return &out, err
}

func (r *ApplicationRepository) ExistsForPair(ctx context.Context, studentID, scholarshipID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&application.Application{}).
		Where("student_id = ? AND scholarship_id = ?", studentID, scholarshipID).
		Count(&n).Error
	return n > 0, err
}

func (r *ApplicationRepository) UpdateDecision(ctx context.Context, a *application.Application) error {
	res := r.db.WithContext(ctx).Model(&application.Application{}).
		Where("id = ?", a.ID).
		Updates(map[string]any{
			"status":            a.Status,
			"status_updated_at": a.StatusUpdatedAt,
			"reviewer_id":       a.ReviewerID,
			"reviewer_notes":    a.ReviewerNotes,
			"admin_notes":       a.AdminNotes,
			"awarded_amount":    a.AwardedAmount,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return application.ErrNotFound
	}
	return nil
}

func (r *ApplicationRepository) AppendHistory(ctx context.Context, h *application.StatusHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

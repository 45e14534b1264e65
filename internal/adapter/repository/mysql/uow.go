package mysql

import (
	"context"

	"scholarfund-backend/internal/domain/application"
	"scholarfund-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

// Repos returns repositories bound to db (outside any transaction).
func Repos(db *gorm.DB) uow.Repos {
	return uow.Repos{
		Scholarships: &ScholarshipRepository{db: db},
		Donations:    &DonationRepository{db: db},
		Applications: &ApplicationRepository{db: db},
		Students:     &StudentRepository{db: db},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos(tx))
	})
}

func (u *GormUoW) WithinApplicationTx(ctx context.Context, applicationID string, fn func(r uow.Repos, a *application.Application) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := Repos(tx)
		// lock the application row up-front so concurrent reviewers serialize
		a, err := r.Applications.GetByApplicationIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}

package uow

import (
	"context"

	"scholarfund-backend/internal/domain/application"
	"scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/domain/student"
)

// Repos are bound to the same transaction when handed out by a UnitOfWork.
type Repos struct {
	Scholarships scholarship.Repository
	Donations    donation.Repository
	Applications application.Repository
	Students     student.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the application row first, then pass it in
	WithinApplicationTx(ctx context.Context, applicationID string, fn func(r Repos, a *application.Application) error) error
}

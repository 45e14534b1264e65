package application

import "context"

type Repository interface {
	Create(ctx context.Context, a *Application) error
	// GetByApplicationID loads the application with its history in order.
	GetByApplicationID(ctx context.Context, applicationID string) (*Application, error)
	GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*Application, error)
	ExistsForPair(ctx context.Context, studentID, scholarshipID string) (bool, error)
	// UpdateDecision persists status, annotations and awarded amount.
	UpdateDecision(ctx context.Context, a *Application) error
	AppendHistory(ctx context.Context, h *StatusHistory) error
}

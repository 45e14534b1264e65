package student

import "context"

type Repository interface {
	Create(ctx context.Context, s *Student) error
	// Ensure creates a bare row for studentID unless one exists.
	Ensure(ctx context.Context, studentID string) error
	GetByStudentID(ctx context.Context, studentID string) (*Student, error)
	IncrementApplicationCount(ctx context.Context, studentID string) error
}

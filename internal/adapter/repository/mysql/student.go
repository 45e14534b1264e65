package mysql

import (
	"context"
	"errors"

	"scholarfund-backend/internal/domain/student"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StudentRepository struct{ db *gorm.DB }

func NewStudentRepository(db *gorm.DB) *StudentRepository { return &StudentRepository{db: db} }

func (r *StudentRepository) Create(ctx context.Context, s *student.Student) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// Ensure relies on the student_id unique index, so concurrent first
// submissions from one student insert a single row.
func (r *StudentRepository) Ensure(ctx context.Context, studentID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "student_id"}}, DoNothing: true}).
		Create(&student.Student{StudentID: studentID}).Error
}

func (r *StudentRepository) GetByStudentID(ctx context.Context, studentID string) (*student.Student, error) {
	var out student.Student
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, student.ErrNotFound
	}
	return &out, err
}

func (r *StudentRepository) IncrementApplicationCount(ctx context.Context, studentID string) error {
	res := r.db.WithContext(ctx).Model(&student.Student{}).
		Where("student_id = ?", studentID).
		Update("application_count", gorm.Expr("application_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return student.ErrNotFound
	}
	return nil
}

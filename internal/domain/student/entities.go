package student

import (
	"time"

	"scholarfund-backend/internal/domain/apperr"
)

var ErrNotFound = apperr.New(apperr.ErrNotFound, "student not found")

// Student mirrors the identity owned by the auth service; only the
// application reference counter is maintained here.
type Student struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	StudentID        string    `gorm:"column:student_id;size:32;not null;uniqueIndex:ux_students_student_id" json:"student_id"`
	FullName         string    `gorm:"column:full_name;size:200;not null" json:"full_name"`
	Email            string    `gorm:"column:email;size:320" json:"email"`
	ApplicationCount int64     `gorm:"column:application_count;not null;default:0" json:"application_count"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Student) TableName() string { return "students" }

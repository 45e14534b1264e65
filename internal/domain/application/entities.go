package application

import (
	"time"

	"scholarfund-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var (
	ErrNotFound          = apperr.New(apperr.ErrNotFound, "application not found")
	ErrDuplicate         = apperr.New(apperr.ErrConflict, "application already submitted for this scholarship")
	ErrTerminalState     = apperr.New(apperr.ErrConflict, "application is already in a terminal state")
	ErrInvalidTransition = apperr.New(apperr.ErrConflict, "status transition is not allowed")
	ErrInvalidStatus     = apperr.New(apperr.ErrValidation, "unknown application status")
	ErrNoAwardAmount     = apperr.New(apperr.ErrValidation, "no award amount configured for approval")
	ErrFundsExhausted    = apperr.New(apperr.ErrInsufficientFunds, "approval exceeds the scholarship's total funds")
)

// Table: applications. One row per (student, scholarship).
type Application struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID   string          `gorm:"column:application_id;size:32;not null;uniqueIndex:ux_applications_application_id"`
	StudentID       string          `gorm:"column:student_id;size:32;not null;uniqueIndex:ux_applications_student_scholarship,priority:1"`
	ScholarshipID   string          `gorm:"column:scholarship_id;size:32;not null;uniqueIndex:ux_applications_student_scholarship,priority:2;index"`
	Status          Status          `gorm:"column:status;size:16;not null;index"`
	Essay           string          `gorm:"column:essay;type:text"`
	GPA             float64         `gorm:"column:gpa;type:decimal(3,2)"`
	Major           string          `gorm:"column:major;size:120"`
	YearOfStudy     int             `gorm:"column:year_of_study"`
	Documents       datatypes.JSON  `gorm:"column:documents"`
	RequestedAmount decimal.Decimal `gorm:"column:requested_amount;type:decimal(18,2);not null;default:0"`
	AwardedAmount   decimal.Decimal `gorm:"column:awarded_amount;type:decimal(18,2);not null;default:0"`
	ReviewerID      *string         `gorm:"column:reviewer_id;size:32"`
	ReviewerNotes   string          `gorm:"column:reviewer_notes;type:text"`
	AdminNotes      string          `gorm:"column:admin_notes;type:text"`
	StatusUpdatedAt time.Time       `gorm:"column:status_updated_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	History []StatusHistory `gorm:"foreignKey:ApplicationID;references:ID"`
}

func (Application) TableName() string { return "applications" }

// StatusHistory is append-only; rows are never updated or deleted.
type StatusHistory struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ApplicationID uint64    `gorm:"column:application_id;not null;index"`
	Status        Status    `gorm:"column:status;size:16;not null"`
	ChangedBy     string    `gorm:"column:changed_by;size:32;not null"`
	Notes         string    `gorm:"column:notes;type:text"`
	ChangedAt     time.Time `gorm:"column:changed_at;not null"`
}

func (StatusHistory) TableName() string { return "application_status_history" }

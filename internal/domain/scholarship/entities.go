package scholarship

import (
	"time"

	"scholarfund-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "scholarship not found")
	ErrInactive        = apperr.New(apperr.ErrConflict, "scholarship is not active")
	ErrDeadlinePassed  = apperr.New(apperr.ErrConflict, "scholarship deadline has passed")
	ErrInvalidStatus   = apperr.New(apperr.ErrValidation, "unknown scholarship status")
	ErrLedgerUnderflow = apperr.New(apperr.ErrConflict, "ledger reversal exceeds funds raised")
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusArchived Status = "archived"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusDraft, StatusActive, StatusInactive, StatusArchived:
		return st, nil
	}
	return "", ErrInvalidStatus
}

// Scholarship is the funding aggregate. Funding counters are only ever
// changed through single-statement increments in the repository.
type Scholarship struct {
	ID            uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ScholarshipID string `gorm:"column:scholarship_id;size:32;not null;uniqueIndex:ux_scholarships_scholarship_id" json:"scholarship_id"`
	AdminID       string `gorm:"column:admin_id;size:32;not null;index" json:"admin_id"`
	Title         string `gorm:"column:title;size:200;not null" json:"title"`

	TotalFunds     decimal.Decimal `gorm:"column:total_funds;type:decimal(18,2);not null;default:0" json:"total_funds"`
	AvailableFunds decimal.Decimal `gorm:"column:available_funds;type:decimal(18,2);not null;default:0" json:"available_funds"`
	AwardAmount    decimal.Decimal `gorm:"column:award_amount;type:decimal(18,2);not null;default:0" json:"award_amount"`
	CommittedFunds decimal.Decimal `gorm:"column:committed_funds;type:decimal(18,2);not null;default:0" json:"committed_funds"`
	FundsRaised    decimal.Decimal `gorm:"column:funds_raised;type:decimal(18,2);not null;default:0" json:"funds_raised"`
	AmountFunded   decimal.Decimal `gorm:"column:amount_funded;type:decimal(18,2);not null;default:0" json:"amount_funded"`

	DonorCount       int64 `gorm:"column:donor_count;not null;default:0" json:"donor_count"`
	DonationCount    int64 `gorm:"column:donation_count;not null;default:0" json:"donation_count"`
	ApplicationCount int64 `gorm:"column:application_count;not null;default:0" json:"application_count"`

	Status    Status         `gorm:"column:status;size:16;not null;default:'draft';index" json:"status"`
	Deadline  time.Time      `gorm:"column:deadline;not null" json:"deadline"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Scholarship) TableName() string { return "scholarships" }

func (s *Scholarship) IsActive() bool { return s.Status == StatusActive }

func (s *Scholarship) DeadlinePassed(now time.Time) bool {
	return !s.Deadline.IsZero() && now.After(s.Deadline)
}

// Donor is one row per distinct donor with at least one completed donation.
type Donor struct {
	ID            uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ScholarshipID string    `gorm:"column:scholarship_id;size:32;not null;uniqueIndex:ux_scholarship_donors_pair"`
	DonorID       string    `gorm:"column:donor_id;size:32;not null;uniqueIndex:ux_scholarship_donors_pair"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Donor) TableName() string { return "scholarship_donors" }

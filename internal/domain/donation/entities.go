package donation

import (
	"time"

	"scholarfund-backend/internal/domain/apperr"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = apperr.New(apperr.ErrNotFound, "donation not found")
	ErrInvalidAmount   = apperr.New(apperr.ErrValidation, "amount must be greater than zero")
	ErrUnknownMethod   = apperr.New(apperr.ErrValidation, "unknown payment method")
	ErrNotRefundable   = apperr.New(apperr.ErrConflict, "only completed donations can be refunded")
	ErrNotCapturable   = apperr.New(apperr.ErrConflict, "donation is not awaiting capture")
	ErrCaptureInFlight = apperr.New(apperr.ErrConflict, "capture for this transaction is already in progress")
	ErrPaymentDeclined = apperr.New(apperr.ErrUpstream, "payment was declined")
	ErrGatewayFailure  = apperr.New(apperr.ErrUpstream, "payment gateway unavailable")
	ErrInvalidOutcome  = apperr.New(apperr.ErrValidation, "capture outcome must be completed or failed")
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusProcessing PaymentStatus = "processing"
	StatusCompleted  PaymentStatus = "completed"
	StatusFailed     PaymentStatus = "failed"
	StatusRefunded   PaymentStatus = "refunded"
	StatusCancelled  PaymentStatus = "cancelled"
)

// AwaitingCapture is true for donations a later gateway callback may settle.
func (s PaymentStatus) AwaitingCapture() bool {
	return s == StatusPending || s == StatusProcessing
}

// CapturableAs reports whether a callback settling to target may move a
// donation out of s. A late completion still settles a donation the stale
// sweep cancelled, because the donor has been charged.
func (s PaymentStatus) CapturableAs(target PaymentStatus) bool {
	return s.AwaitingCapture() || (s == StatusCancelled && target == StatusCompleted)
}

// Donation is a ledger entry. Immutable once completed except for refund.
type Donation struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	DonationID    string          `gorm:"column:donation_id;size:32;not null;uniqueIndex:ux_donations_donation_id" json:"donation_id"`
	DonorID       string          `gorm:"column:donor_id;size:32;not null;index:idx_donations_scholarship_donor,priority:2" json:"donor_id"`
	ScholarshipID *string         `gorm:"column:scholarship_id;size:32;index:idx_donations_scholarship_donor,priority:1" json:"scholarship_id"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PaymentMethod string          `gorm:"column:payment_method;size:32;not null" json:"payment_method"`
	PaymentStatus PaymentStatus   `gorm:"column:payment_status;size:16;not null;index" json:"payment_status"`
	// TransactionID is issued by the payment gateway, unique per attempt.
	TransactionID  *string        `gorm:"column:transaction_id;size:128;uniqueIndex:ux_donations_transaction_id" json:"transaction_id"`
	PaymentDetails datatypes.JSON `gorm:"column:payment_details" json:"-"`
	RedirectURL    string         `gorm:"column:redirect_url;type:text" json:"redirect_url,omitempty"`
	FailureReason  string         `gorm:"column:failure_reason;type:text" json:"failure_reason,omitempty"`
	CompletedAt    *time.Time     `gorm:"column:completed_at" json:"completed_at,omitempty"`
	RefundedAt     *time.Time     `gorm:"column:refunded_at" json:"refunded_at,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Donation) TableName() string { return "donations" }

// Stats aggregates completed donations for one scholarship.
type Stats struct {
	Count   int64
	Total   decimal.Decimal
	Average decimal.Decimal
	Min     decimal.Decimal
	Max     decimal.Decimal
}

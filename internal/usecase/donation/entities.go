package donation

import (
	"time"

	domain "scholarfund-backend/internal/domain/donation"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	DonorID        string          `json:"donor_id"`
	ScholarshipID  string          `json:"scholarship_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentDetails map[string]any  `json:"payment_details"`
}

type CaptureInput struct {
	TransactionID string `json:"transaction_id"`
	Outcome       string `json:"outcome"`
	Message       string `json:"message"`
}

type DonationDTO struct {
	DonationID    string          `json:"donation_id"`
	DonorID       string          `json:"donor_id"`
	ScholarshipID *string         `json:"scholarship_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	TransactionID *string         `json:"transaction_id"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	RefundedAt    *time.Time      `json:"refunded_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toDTO(d *domain.Donation) *DonationDTO {
	return &DonationDTO{
		DonationID:    d.DonationID,
		DonorID:       d.DonorID,
		ScholarshipID: d.ScholarshipID,
		Amount:        d.Amount,
		PaymentMethod: d.PaymentMethod,
		PaymentStatus: string(d.PaymentStatus),
		TransactionID: d.TransactionID,
		RedirectURL:   d.RedirectURL,
		FailureReason: d.FailureReason,
		CompletedAt:   d.CompletedAt,
		RefundedAt:    d.RefundedAt,
		CreatedAt:     d.CreatedAt,
	}
}

// event payloads

type donationCompletedPayload struct {
	DonationID    string          `json:"donationId"`
	ScholarshipID *string         `json:"scholarshipId"`
	Amount        decimal.Decimal `json:"amount"`
	CompletedAt   *time.Time      `json:"completedAt"`
}

type scholarshipFundingPayload struct {
	ScholarshipID string          `json:"scholarshipId"`
	Title         string          `json:"title"`
	FundsRaised   decimal.Decimal `json:"fundsRaised"`
	TotalFunds    decimal.Decimal `json:"totalFunds"`
	DonorCount    int64           `json:"donorCount"`
	DonationCount int64           `json:"donationCount"`
}

type donationEvent struct {
	DonationID    string          `json:"donation_id"`
	DonorID       string          `json:"donor_id"`
	ScholarshipID *string         `json:"scholarship_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID *string         `json:"transaction_id"`
	At            time.Time       `json:"at"`
}

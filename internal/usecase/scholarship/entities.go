package scholarship

import (
	"time"

	domain "scholarfund-backend/internal/domain/scholarship"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	AdminID     string          `json:"-"`
	Title       string          `json:"title"`
	TotalFunds  decimal.Decimal `json:"total_funds"`
	AwardAmount decimal.Decimal `json:"award_amount"`
	Deadline    time.Time       `json:"deadline"`
	Status      string          `json:"status"`
}

type ScholarshipDTO struct {
	ScholarshipID    string          `json:"scholarship_id"`
	AdminID          string          `json:"admin_id"`
	Title            string          `json:"title"`
	Status           string          `json:"status"`
	Deadline         time.Time       `json:"deadline"`
	TotalFunds       decimal.Decimal `json:"total_funds"`
	AvailableFunds   decimal.Decimal `json:"available_funds"`
	AwardAmount      decimal.Decimal `json:"award_amount"`
	CommittedFunds   decimal.Decimal `json:"committed_funds"`
	FundsRaised      decimal.Decimal `json:"funds_raised"`
	AmountFunded     decimal.Decimal `json:"amount_funded"`
	DonorCount       int64           `json:"donor_count"`
	DonationCount    int64           `json:"donation_count"`
	ApplicationCount int64           `json:"application_count"`
	CreatedAt        time.Time       `json:"created_at"`
}

func toDTO(s *domain.Scholarship) *ScholarshipDTO {
	return &ScholarshipDTO{
		ScholarshipID:    s.ScholarshipID,
		AdminID:          s.AdminID,
		Title:            s.Title,
		Status:           string(s.Status),
		Deadline:         s.Deadline,
		TotalFunds:       s.TotalFunds,
		AvailableFunds:   s.AvailableFunds,
		AwardAmount:      s.AwardAmount,
		CommittedFunds:   s.CommittedFunds,
		FundsRaised:      s.FundsRaised,
		AmountFunded:     s.AmountFunded,
		DonorCount:       s.DonorCount,
		DonationCount:    s.DonationCount,
		ApplicationCount: s.ApplicationCount,
		CreatedAt:        s.CreatedAt,
	}
}

type summaryPayload struct {
	ScholarshipID string          `json:"scholarshipId"`
	Title         string          `json:"title"`
	Status        string          `json:"status"`
	Deadline      time.Time       `json:"deadline"`
	TotalFunds    decimal.Decimal `json:"totalFunds"`
	FundsRaised   decimal.Decimal `json:"fundsRaised"`
}

func summary(s *domain.Scholarship) summaryPayload {
	return summaryPayload{
		ScholarshipID: s.ScholarshipID,
		Title:         s.Title,
		Status:        string(s.Status),
		Deadline:      s.Deadline,
		TotalFunds:    s.TotalFunds,
		FundsRaised:   s.FundsRaised,
	}
}

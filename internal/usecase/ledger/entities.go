package ledger

import "github.com/shopspring/decimal"

type StatsDTO struct {
	ScholarshipID string          `json:"scholarship_id"`
	DonationCount int64           `json:"donation_count"`
	DonorCount    int64           `json:"donor_count"`
	FundsRaised   decimal.Decimal `json:"funds_raised"`
	TotalFunds    decimal.Decimal `json:"total_funds"`
	Total         decimal.Decimal `json:"total"`
	Average       decimal.Decimal `json:"average"`
	Min           decimal.Decimal `json:"min"`
	Max           decimal.Decimal `json:"max"`
}

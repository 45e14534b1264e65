package application

import (
	"encoding/json"
	"time"

	domain "scholarfund-backend/internal/domain/application"

	"github.com/shopspring/decimal"
)

type SubmitInput struct {
	StudentID       string          `json:"student_id"`
	ScholarshipID   string          `json:"scholarship_id"`
	Essay           string          `json:"essay"`
	GPA             float64         `json:"gpa"`
	Major           string          `json:"major"`
	YearOfStudy     int             `json:"year_of_study"`
	Documents       []string        `json:"documents"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
}

// TransitionInput drives both the review and the decision paths.
type TransitionInput struct {
	ApplicationID string `json:"-"`
	ActorID       string `json:"-"`
	Status        string `json:"status"`
	Notes         string `json:"notes"`
}

type HistoryDTO struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

type ApplicationDTO struct {
	ApplicationID   string          `json:"application_id"`
	StudentID       string          `json:"student_id"`
	ScholarshipID   string          `json:"scholarship_id"`
	Status          string          `json:"status"`
	Essay           string          `json:"essay"`
	GPA             float64         `json:"gpa"`
	Major           string          `json:"major,omitempty"`
	YearOfStudy     int             `json:"year_of_study,omitempty"`
	Documents       []string        `json:"documents,omitempty"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	AwardedAmount   decimal.Decimal `json:"awarded_amount"`
	ReviewerID      *string         `json:"reviewer_id,omitempty"`
	ReviewerNotes   string          `json:"reviewer_notes,omitempty"`
	AdminNotes      string          `json:"admin_notes,omitempty"`
	StatusUpdatedAt time.Time       `json:"status_updated_at"`
	CreatedAt       time.Time       `json:"created_at"`
	History         []HistoryDTO    `json:"history"`
}

func toDTO(a *domain.Application) *ApplicationDTO {
	out := &ApplicationDTO{
		ApplicationID:   a.ApplicationID,
		StudentID:       a.StudentID,
		ScholarshipID:   a.ScholarshipID,
		Status:          string(a.Status),
		Essay:           a.Essay,
		GPA:             a.GPA,
		Major:           a.Major,
		YearOfStudy:     a.YearOfStudy,
		RequestedAmount: a.RequestedAmount,
		AwardedAmount:   a.AwardedAmount,
		ReviewerID:      a.ReviewerID,
		ReviewerNotes:   a.ReviewerNotes,
		AdminNotes:      a.AdminNotes,
		StatusUpdatedAt: a.StatusUpdatedAt,
		CreatedAt:       a.CreatedAt,
		History:         make([]HistoryDTO, 0, len(a.History)),
	}
	if len(a.Documents) > 0 {
		_ = json.Unmarshal(a.Documents, &out.Documents)
	}
	for _, h := range a.History {
		out.History = append(out.History, HistoryDTO{
			Status:    string(h.Status),
			ChangedBy: h.ChangedBy,
			Notes:     h.Notes,
			ChangedAt: h.ChangedAt,
		})
	}
	return out
}

// push payloads

type statusUpdatePayload struct {
	ApplicationID   string    `json:"applicationId"`
	ScholarshipName string    `json:"scholarshipName"`
	NewStatus       string    `json:"newStatus"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type reviewedPayload struct {
	ApplicationID   string    `json:"applicationId"`
	ScholarshipName string    `json:"scholarshipName"`
	StudentName     string    `json:"studentName"`
	NewStatus       string    `json:"newStatus"`
	Notes           string    `json:"notes,omitempty"`
	ChangedBy       string    `json:"changedBy"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type newApplicationPayload struct {
	ApplicationID   string    `json:"applicationId"`
	ScholarshipID   string    `json:"scholarshipId"`
	ScholarshipName string    `json:"scholarshipName"`
	StudentName     string    `json:"studentName"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// broker bodies

type submittedEvent struct {
	ApplicationID string    `json:"application_id"`
	StudentID     string    `json:"student_id"`
	StudentEmail  string    `json:"student_email,omitempty"`
	ScholarshipID string    `json:"scholarship_id"`
	Scholarship   string    `json:"scholarship_title"`
	At            time.Time `json:"at"`
}

type statusChangedEvent struct {
	ApplicationID string          `json:"application_id"`
	StudentID     string          `json:"student_id"`
	StudentEmail  string          `json:"student_email,omitempty"`
	ScholarshipID string          `json:"scholarship_id"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	ChangedBy     string          `json:"changed_by"`
	Notes         string          `json:"notes,omitempty"`
	AwardedAmount decimal.Decimal `json:"awarded_amount"`
	At            time.Time       `json:"at"`
}

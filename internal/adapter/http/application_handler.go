package http

import (
	"net/http"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/usecase/application"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ApplicationHandler struct {
	uc  *application.Usecase
	log zerolog.Logger
}

func NewApplicationHandler(uc *application.Usecase, log zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, log: log}
}

type submitApplicationReq struct {
	ScholarshipID   string          `json:"scholarship_id" validate:"required,hex32"`
	Essay           string          `json:"essay" validate:"required,max=10000"`
	GPA             float64         `json:"gpa" validate:"gte=0,lte=4"`
	Major           string          `json:"major" validate:"max=120"`
	YearOfStudy     int             `json:"year_of_study" validate:"gte=0,lte=10"`
	Documents       []string        `json:"documents" validate:"max=20,dive,max=500"`
	RequestedAmount decimal.Decimal `json:"requested_amount" validate:"money0"`
}

type reviewApplicationReq struct {
	Status        string `json:"status" validate:"required,oneof=under_review shortlisted rejected"`
	ReviewerNotes string `json:"reviewer_notes" validate:"max=5000"`
}

type decideApplicationReq struct {
	Status     string `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes string `json:"admin_notes" validate:"max=5000"`
}

func (h *ApplicationHandler) Submit(c echo.Context) error {
	actor, err := requireActor(c, notify.RoleStudent)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req submitApplicationReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Submit(c.Request().Context(), application.SubmitInput{
		StudentID:       actor.ID,
		ScholarshipID:   req.ScholarshipID,
		Essay:           req.Essay,
		GPA:             req.GPA,
		Major:           req.Major,
		YearOfStudy:     req.YearOfStudy,
		Documents:       req.Documents,
		RequestedAmount: req.RequestedAmount,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("application_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if dto.StudentID != actor.ID && !actor.Is(notify.RoleReviewer, notify.RoleAdmin) {
		return writeError(c, h.log, errRoleDenied)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApplicationHandler) Review(c echo.Context) error {
	actor, err := requireActor(c, notify.RoleReviewer, notify.RoleAdmin)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req reviewApplicationReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Review(c.Request().Context(), application.TransitionInput{
		ApplicationID: c.Param("application_id"),
		ActorID:       actor.ID,
		Status:        req.Status,
		Notes:         req.ReviewerNotes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApplicationHandler) Decide(c echo.Context) error {
	actor, err := requireActor(c, notify.RoleAdmin)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req decideApplicationReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Decide(c.Request().Context(), application.TransitionInput{
		ApplicationID: c.Param("application_id"),
		ActorID:       actor.ID,
		Status:        req.Status,
		Notes:         req.AdminNotes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

package http

import (
	"net/http"
	"time"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/usecase/scholarship"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ScholarshipHandler struct {
	uc  *scholarship.Usecase
	log zerolog.Logger
}

func NewScholarshipHandler(uc *scholarship.Usecase, log zerolog.Logger) *ScholarshipHandler {
	return &ScholarshipHandler{uc: uc, log: log}
}

type createScholarshipReq struct {
	Title       string          `json:"title" validate:"required,max=200"`
	TotalFunds  decimal.Decimal `json:"total_funds" validate:"money"`
	AwardAmount decimal.Decimal `json:"award_amount" validate:"money0"`
	Deadline    time.Time       `json:"deadline" validate:"required"`
	Status      string          `json:"status" validate:"omitempty,oneof=draft active inactive archived"`
}

type setScholarshipStatusReq struct {
	Status string `json:"status" validate:"required,oneof=draft active inactive archived"`
}

func (h *ScholarshipHandler) Create(c echo.Context) error {
	actor, err := requireActor(c, notify.RoleAdmin)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req createScholarshipReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Create(c.Request().Context(), scholarship.CreateInput{
		AdminID:     actor.ID,
		Title:       req.Title,
		TotalFunds:  req.TotalFunds,
		AwardAmount: req.AwardAmount,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ScholarshipHandler) Get(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("scholarship_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ScholarshipHandler) SetStatus(c echo.Context) error {
	if _, err := requireActor(c, notify.RoleAdmin); err != nil {
		return writeError(c, h.log, err)
	}
	var req setScholarshipStatusReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.SetStatus(c.Request().Context(), c.Param("scholarship_id"), req.Status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ScholarshipHandler) Stats(c echo.Context) error {
	dto, err := h.uc.Stats(c.Request().Context(), c.Param("scholarship_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

package http

import (
	"net/http"

	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/usecase/donation"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type DonationHandler struct {
	uc  *donation.Usecase
	log zerolog.Logger
}

func NewDonationHandler(uc *donation.Usecase, log zerolog.Logger) *DonationHandler {
	return &DonationHandler{uc: uc, log: log}
}

type submitDonationReq struct {
	ScholarshipID  string          `json:"scholarship_id" validate:"omitempty,hex32"`
	Amount         decimal.Decimal `json:"amount" validate:"money"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=card bank_transfer paypal"`
	PaymentDetails map[string]any  `json:"payment_details"`
}

type captureDonationReq struct {
	TransactionID string `json:"transaction_id" validate:"required,max=128"`
	Outcome       string `json:"outcome" validate:"required,oneof=completed failed"`
	Message       string `json:"message" validate:"max=500"`
}

func (h *DonationHandler) Submit(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req submitDonationReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Submit(c.Request().Context(), donation.SubmitInput{
		DonorID:        actor.ID,
		ScholarshipID:  req.ScholarshipID,
		Amount:         req.Amount,
		PaymentMethod:  req.PaymentMethod,
		PaymentDetails: req.PaymentDetails,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// Capture is the gateway callback for payments that settle later.
func (h *DonationHandler) Capture(c echo.Context) error {
	var req captureDonationReq
	if ok, resp := bindAndValidate(c, &req); !ok {
		return resp
	}
	dto, err := h.uc.Capture(c.Request().Context(), donation.CaptureInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DonationHandler) Refund(c echo.Context) error {
	if _, err := requireActor(c, notify.RoleAdmin); err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Refund(c.Request().Context(), c.Param("donation_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DonationHandler) Get(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Get(c.Request().Context(), c.Param("donation_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if dto.DonorID != actor.ID && !actor.Is(notify.RoleAdmin) {
		return writeError(c, h.log, errRoleDenied)
	}
	return c.JSON(http.StatusOK, dto)
}

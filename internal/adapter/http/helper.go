package http

import (
	"errors"
	"net/http"
	"strings"

	"scholarfund-backend/internal/domain/apperr"
	"scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/domain/notify"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	HeaderActorID   = "Ax-Actor-Id"
	HeaderActorRole = "Ax-Actor-Role"
)

var (
	errMissingActor = apperr.New(apperr.ErrUnauthorized, "missing or invalid actor headers")
	errRoleDenied   = apperr.New(apperr.ErrForbidden, "role is not allowed to perform this action")
)

// Actor is the caller as asserted by the auth layer in front of the API.
type Actor struct {
	ID   string
	Role notify.Role
}

func (a Actor) Is(roles ...notify.Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func actorFrom(c echo.Context) (Actor, error) {
	h := c.Request().Header
	actorID := strings.TrimSpace(h.Get(HeaderActorID))
	role, ok := notify.ParseRole(strings.ToLower(strings.TrimSpace(h.Get(HeaderActorRole))))
	if !ok || !reHex32.MatchString(actorID) {
		return Actor{}, errMissingActor
	}
	return Actor{ID: actorID, Role: role}, nil
}

// requireActor resolves the caller and checks its role when roles are given.
func requireActor(c echo.Context, roles ...notify.Role) (Actor, error) {
	a, err := actorFrom(c)
	if err != nil {
		return Actor{}, err
	}
	if len(roles) > 0 && !a.Is(roles...) {
		return Actor{}, errRoleDenied
	}
	return a, nil
}

func statusFor(err error) int {
	if errors.Is(err, donation.ErrPaymentDeclined) {
		return http.StatusPaymentRequired
	}
	switch apperr.Kind(err) {
	case apperr.ErrValidation, apperr.ErrInsufficientFunds:
		return http.StatusBadRequest
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrUnauthorized:
		return http.StatusUnauthorized
	case apperr.ErrForbidden:
		return http.StatusForbidden
	case apperr.ErrConflict:
		return http.StatusConflict
	case apperr.ErrUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err; internal detail only reaches the log.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
			Msg("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal server error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}

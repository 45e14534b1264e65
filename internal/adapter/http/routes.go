package http

import "github.com/labstack/echo/v4"

type Routes struct {
	Health       *Handler
	Scholarships *ScholarshipHandler
	Donations    *DonationHandler
	Applications *ApplicationHandler

	// optional
	Push        echo.HandlerFunc
	Metrics     echo.HandlerFunc
	Idempotency echo.MiddlewareFunc
}

// Register mounts the API. The capture callback stays outside the
// idempotency middleware; it is deduplicated per transaction id instead.
func (r Routes) Register(e *echo.Echo) {
	var mw []echo.MiddlewareFunc
	if r.Idempotency != nil {
		mw = append(mw, r.Idempotency)
	}

	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", r.Metrics)
	}
	if r.Push != nil {
		e.GET("/ws", r.Push)
	}

	e.POST("/scholarships", r.Scholarships.Create, mw...)
	e.GET("/scholarships/:scholarship_id", r.Scholarships.Get)
	e.PUT("/scholarships/:scholarship_id/status", r.Scholarships.SetStatus, mw...)
	e.GET("/scholarships/:scholarship_id/stats", r.Scholarships.Stats)

	e.POST("/donations", r.Donations.Submit, mw...)
	e.POST("/donations/capture", r.Donations.Capture)
	e.POST("/donations/:donation_id/refund", r.Donations.Refund, mw...)
	e.GET("/donations/:donation_id", r.Donations.Get)

	e.POST("/applications", r.Applications.Submit, mw...)
	e.GET("/applications/:application_id", r.Applications.Get)
	e.PUT("/applications/:application_id/review", r.Applications.Review, mw...)
	e.PUT("/applications/:application_id/decision", r.Applications.Decide, mw...)
}

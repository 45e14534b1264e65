// Package donation is the donation processor: it validates a gift, charges
// the gateway, persists the record and applies completed gifts to the
// ledger exactly once.
package donation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"scholarfund-backend/internal/domain/apperr"
	domain "scholarfund-backend/internal/domain/donation"
	"scholarfund-backend/internal/domain/notify"
	"scholarfund-backend/internal/domain/payment"
	"scholarfund-backend/internal/domain/scholarship"
	"scholarfund-backend/internal/domain/uow"
	"scholarfund-backend/internal/infrastructure/metrics"
	"scholarfund-backend/internal/usecase/dispatch"
	"scholarfund-backend/internal/usecase/ledger"
	"scholarfund-backend/pkg/id"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

var errDonorRequired = apperr.New(apperr.ErrValidation, "donor_id is required")

// Locker keeps concurrent settlement attempts for one transaction apart.
type Locker interface {
	Acquire(ctx context.Context, key string) (bool, func(), error)
}

type Deps struct {
	UoW          uow.UnitOfWork
	Scholarships scholarship.Repository
	Donations    domain.Repository
	Ledger       *ledger.Ledger
	Gateway      payment.Gateway
	Locker       Locker
	Dispatcher   *dispatch.Dispatcher
	Metrics      *metrics.Metrics
	Log          zerolog.Logger
}

type Usecase struct {
	Deps
	now func() time.Time
}

func NewUsecase(d Deps) *Usecase {
	return &Usecase{Deps: d, now: func() time.Time { return time.Now().UTC() }}
}

// sensitive payment fields never reach the database
var redactedDetails = map[string]bool{"card_number": true, "cvv": true, "cvc": true, "pin": true}

func detailsJSON(details map[string]any) (datatypes.JSON, error) {
	if len(details) == 0 {
		return nil, nil
	}
	kept := make(map[string]any, len(details))
	for k, v := range details {
		if !redactedDetails[strings.ToLower(k)] {
			kept[k] = v
		}
	}
	b, err := json.Marshal(kept)
	return datatypes.JSON(b), err
}

func (u *Usecase) Submit(ctx context.Context, in SubmitInput) (*DonationDTO, error) {
	if strings.TrimSpace(in.DonorID) == "" {
		return nil, errDonorRequired
	}
	if !in.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	method := payment.Method(in.PaymentMethod)
	if !method.Known() {
		return nil, domain.ErrUnknownMethod
	}

	var scholarshipID *string
	if in.ScholarshipID != "" {
		s, err := u.Scholarships.GetByScholarshipID(ctx, in.ScholarshipID)
		if err != nil {
			return nil, err
		}
		if !s.IsActive() {
			return nil, scholarship.ErrInactive
		}
		scholarshipID = &s.ScholarshipID
	}

	details, err := detailsJSON(in.PaymentDetails)
	if err != nil {
		return nil, apperr.New(apperr.ErrValidation, "payment_details must be a JSON object")
	}

	d := &domain.Donation{
		DonationID:     id.NewID32(),
		DonorID:        in.DonorID,
		ScholarshipID:  scholarshipID,
		Amount:         in.Amount.Round(2),
		PaymentMethod:  string(method),
		PaymentDetails: details,
	}

	res, err := u.Gateway.Charge(ctx, payment.ChargeRequest{
		Reference: d.DonationID,
		DonorID:   d.DonorID,
		Amount:    d.Amount,
		Method:    method,
		Details:   in.PaymentDetails,
	})
	if err != nil {
		u.Log.Error().Err(err).Str("donation_id", d.DonationID).Msg("gateway charge failed")
		return nil, domain.ErrGatewayFailure
	}
	if res.TransactionID != "" {
		tx := res.TransactionID
		d.TransactionID = &tx
	}

	switch res.Outcome {
	case payment.OutcomeCompleted:
		var funded *scholarship.Scholarship
		now := u.now()
		d.PaymentStatus = domain.StatusCompleted
		d.CompletedAt = &now
		err = u.UoW.WithinTx(ctx, func(r uow.Repos) error {
			if err := r.Donations.Create(ctx, d); err != nil {
				return err
			}
			if d.ScholarshipID == nil {
				return nil
			}
			var err error
			funded, err = u.Ledger.ApplyDonation(ctx, r, *d.ScholarshipID, d.DonorID, d.Amount)
			return err
		})
		if err != nil {
			u.compensate(ctx, d, err, func(ctx context.Context, d *domain.Donation) error {
				d.ID = 0 // assigned by the rolled back insert
				return u.Donations.Create(ctx, d)
			})
			return nil, err
		}
		u.Metrics.DonationRecorded(string(d.PaymentStatus))
		u.afterCompleted(ctx, d, funded)
		return toDTO(d), nil

	case payment.OutcomePending:
		d.PaymentStatus = domain.StatusPending
		d.RedirectURL = res.RedirectURL
		if err := u.Donations.Create(ctx, d); err != nil {
			return nil, err
		}
		u.Metrics.DonationRecorded(string(d.PaymentStatus))
		return toDTO(d), nil

	default:
		d.PaymentStatus = domain.StatusFailed
		d.FailureReason = res.Message
		if err := u.Donations.Create(ctx, d); err != nil {
			return nil, err
		}
		u.Metrics.DonationRecorded(string(d.PaymentStatus))
		u.Log.Info().Str("donation_id", d.DonationID).Str("reason", res.Message).Msg("payment declined")
		if res.Message != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, res.Message)
		}
		return nil, domain.ErrPaymentDeclined
	}
}

// Capture settles a pending donation from the gateway callback. Replays for
// an already settled transaction return the current record unchanged, as does
// a failed callback for a donation the stale sweep already cancelled. A
// completed callback still settles a cancelled donation.
func (u *Usecase) Capture(ctx context.Context, in CaptureInput) (*DonationDTO, error) {
	var target domain.PaymentStatus
	switch payment.Outcome(in.Outcome) {
	case payment.OutcomeCompleted:
		target = domain.StatusCompleted
	case payment.OutcomeFailed:
		target = domain.StatusFailed
	default:
		return nil, domain.ErrInvalidOutcome
	}
	if strings.TrimSpace(in.TransactionID) == "" {
		return nil, apperr.New(apperr.ErrValidation, "transaction_id is required")
	}

	release, err := u.lock(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		d         *domain.Donation
		funded    *scholarship.Scholarship
		settled   bool
		ledgerErr error
	)
	err = u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		d, err = r.Donations.GetByTransactionIDForUpdate(ctx, in.TransactionID)
		if err != nil {
			return err
		}
		if d.PaymentStatus == target {
			return nil
		}
		if d.PaymentStatus == domain.StatusCancelled && target == domain.StatusFailed {
			return nil
		}
		if !d.PaymentStatus.CapturableAs(target) {
			return domain.ErrNotCapturable
		}

		d.PaymentStatus = target
		if target == domain.StatusFailed {
			d.FailureReason = in.Message
			settled = true
			return r.Donations.UpdateStatus(ctx, d)
		}
		now := u.now()
		d.CompletedAt = &now
		d.FailureReason = ""
		if err := r.Donations.UpdateStatus(ctx, d); err != nil {
			return err
		}
		settled = true
		if d.ScholarshipID == nil {
			return nil
		}
		funded, ledgerErr = u.Ledger.ApplyDonation(ctx, r, *d.ScholarshipID, d.DonorID, d.Amount)
		return ledgerErr
	})
	if ledgerErr != nil {
		u.compensate(ctx, d, ledgerErr, u.Donations.UpdateStatus)
		return nil, ledgerErr
	}
	if err != nil {
		return nil, err
	}

	if !settled {
		u.Log.Info().Str("transaction_id", in.TransactionID).Msg("duplicate capture ignored")
		return toDTO(d), nil
	}
	u.Metrics.DonationRecorded(string(d.PaymentStatus))
	if d.PaymentStatus == domain.StatusCompleted {
		u.afterCompleted(ctx, d, funded)
	}
	return toDTO(d), nil
}

// Refund reverses a completed donation at the gateway and in the ledger.
func (u *Usecase) Refund(ctx context.Context, donationID string) (*DonationDTO, error) {
	d, err := u.Donations.GetByDonationID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.PaymentStatus != domain.StatusCompleted {
		return nil, domain.ErrNotRefundable
	}

	lockKey := d.DonationID
	if d.TransactionID != nil {
		lockKey = *d.TransactionID
	}
	release, err := u.lock(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	defer release()

	var funded *scholarship.Scholarship
	err = u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		locked, err := r.Donations.GetByDonationIDForUpdate(ctx, donationID)
		if err != nil {
			return err
		}
		if locked.PaymentStatus != domain.StatusCompleted {
			return domain.ErrNotRefundable
		}
		if locked.TransactionID != nil {
			if err := u.Gateway.Refund(ctx, *locked.TransactionID, locked.Amount); err != nil {
				u.Log.Error().Err(err).Str("donation_id", donationID).Msg("gateway refund failed")
				return domain.ErrGatewayFailure
			}
		}

		now := u.now()
		locked.PaymentStatus = domain.StatusRefunded
		locked.RefundedAt = &now
		if err := r.Donations.UpdateStatus(ctx, locked); err != nil {
			return err
		}
		d = locked
		if d.ScholarshipID == nil {
			return nil
		}
		funded, err = u.Ledger.ReverseDonation(ctx, r, *d.ScholarshipID, d.DonorID, d.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.Metrics.DonationRecorded(string(d.PaymentStatus))
	if funded != nil {
		u.Dispatcher.Push(notify.ToEveryone(notify.TypeScholarshipUpdated, fundingPayload(funded)))
	}
	u.Dispatcher.Publish(ctx, notify.KeyDonationRefunded, eventBody(d, *d.RefundedAt))
	return toDTO(d), nil
}

func (u *Usecase) Get(ctx context.Context, donationID string) (*DonationDTO, error) {
	d, err := u.Donations.GetByDonationID(ctx, donationID)
	if err != nil {
		return nil, err
	}
	return toDTO(d), nil
}

// CancelStale cancels donations still awaiting capture after olderThan.
func (u *Usecase) CancelStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	n, err := u.Donations.CancelStalePending(ctx, u.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.Log.Info().Int64("cancelled", n).Msg("stale pending donations cancelled")
	}
	return n, nil
}

// lock returns ErrCaptureInFlight when another settlement holds the key. A
// redis outage degrades to the row lock alone.
func (u *Usecase) lock(ctx context.Context, key string) (func(), error) {
	if u.Locker == nil {
		return func() {}, nil
	}
	ok, release, err := u.Locker.Acquire(ctx, key)
	if err != nil {
		u.Log.Warn().Err(err).Str("key", key).Msg("settlement lock unavailable; relying on row lock")
		return func() {}, nil
	}
	if !ok {
		return nil, domain.ErrCaptureInFlight
	}
	return release, nil
}

// compensate handles a charge the ledger refused. The donor's money goes
// back through the gateway and the donation is persisted as failed so the
// transaction id stays traceable.
func (u *Usecase) compensate(ctx context.Context, d *domain.Donation, cause error, persist func(context.Context, *domain.Donation) error) {
	reason := "could not be applied to the ledger: " + cause.Error()
	if d.TransactionID != nil {
		if err := u.Gateway.Refund(ctx, *d.TransactionID, d.Amount); err != nil {
			u.Log.Error().Err(err).Str("donation_id", d.DonationID).Str("transaction_id", *d.TransactionID).
				Msg("compensating refund failed; manual refund required")
			reason += "; refund failed"
		} else {
			reason += "; charge refunded"
		}
	}

	d.PaymentStatus = domain.StatusFailed
	d.CompletedAt = nil
	d.FailureReason = reason
	if err := persist(ctx, d); err != nil {
		u.Log.Error().Err(err).Str("donation_id", d.DonationID).Msg("could not record compensated donation")
		return
	}
	u.Metrics.DonationRecorded(string(d.PaymentStatus))
	u.Log.Warn().Err(cause).Str("donation_id", d.DonationID).Msg("charged donation rejected by ledger; compensated")
}

// afterCompleted runs only once the ledger mutation has committed.
func (u *Usecase) afterCompleted(ctx context.Context, d *domain.Donation, funded *scholarship.Scholarship) {
	if funded != nil {
		u.Dispatcher.Push(notify.ToEveryone(notify.TypeScholarshipUpdated, fundingPayload(funded)))
	}
	u.Dispatcher.Push(notify.ToIdentity(d.DonorID, notify.TypeDonationCompleted, donationCompletedPayload{
		DonationID:    d.DonationID,
		ScholarshipID: d.ScholarshipID,
		Amount:        d.Amount,
		CompletedAt:   d.CompletedAt,
	}))
	u.Dispatcher.Publish(ctx, notify.KeyDonationCompleted, eventBody(d, *d.CompletedAt))
}

func fundingPayload(s *scholarship.Scholarship) scholarshipFundingPayload {
	return scholarshipFundingPayload{
		ScholarshipID: s.ScholarshipID,
		Title:         s.Title,
		FundsRaised:   s.FundsRaised,
		TotalFunds:    s.TotalFunds,
		DonorCount:    s.DonorCount,
		DonationCount: s.DonationCount,
	}
}

func eventBody(d *domain.Donation, at time.Time) donationEvent {
	return donationEvent{
		DonationID:    d.DonationID,
		DonorID:       d.DonorID,
		ScholarshipID: d.ScholarshipID,
		Amount:        d.Amount,
		PaymentMethod: d.PaymentMethod,
		TransactionID: d.TransactionID,
		At:            at,
	}
}

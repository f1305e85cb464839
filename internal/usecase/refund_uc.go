// File: internal/usecase/refund_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	adapterport "refund-orchestration/internal/domain/ports/adapter"
	"refund-orchestration/internal/domain/ports/repository"
	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/infra/metrics"
)

// Compile-time check
var _ RefundOrchestrator = (*refundOrchestrator)(nil)

// Locker is the per-order submission lock. It is a fast-path serializer only;
// the ledger's transaction remains the correctness authority, so a lock that
// cannot be acquired downgrades to proceeding without one.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// SubmitRefundInput is the inbound request shape from the API layer. The
// caller's authorization has already been checked by the access guard.
type SubmitRefundInput struct {
	OrderID     string
	Amount      int64
	Currency    string
	Destination model.RefundDestination
	Reason      string
	Notes       string
	RequestedBy string
}

type SubmitRefundResult struct {
	Request *model.RefundRequest
	Result  adapterport.RefundResult
}

// RefundOrchestrator drives one refund attempt through
// CREATED -> DISPATCHING -> {COMPLETED | REJECTED}.
type RefundOrchestrator interface {
	Submit(ctx context.Context, in SubmitRefundInput) (*SubmitRefundResult, error)
	ListByOrder(ctx context.Context, orderID string) ([]*model.RefundRequest, error)
}

type refundOrchestrator struct {
	ledger          RefundLedger
	router          *ProviderRouter
	payments        repository.PaymentRepository
	reconciler      OrderReconciler
	locker          Locker
	dispatchTimeout time.Duration
	log             *zerolog.Logger
}

func NewRefundOrchestrator(
	ledger RefundLedger,
	router *ProviderRouter,
	payments repository.PaymentRepository,
	reconciler OrderReconciler,
	locker Locker,
	dispatchTimeout time.Duration,
	logger *zerolog.Logger,
) *refundOrchestrator {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 30 * time.Second
	}
	return &refundOrchestrator{
		ledger:          ledger,
		router:          router,
		payments:        payments,
		reconciler:      reconciler,
		locker:          locker,
		dispatchTimeout: dispatchTimeout,
		log:             logger,
	}
}

// Submit settles one refund attempt end to end. The request reaches a terminal
// ledger state before Submit returns, with one exception: if persistence fails
// after the provider already moved the money, the failure is logged for manual
// repair and the success is still reported, because re-invoking the adapter
// could refund twice.
func (u *refundOrchestrator) Submit(ctx context.Context, in SubmitRefundInput) (*SubmitRefundResult, error) {
	defer logging.TraceDuration(u.log, "RefundOrchestrator.Submit")()

	// Shape validation: failures here never create a ledger entry.
	if err := validateSubmit(in); err != nil {
		return nil, err
	}

	ctx = logging.WithOrderID(ctx, in.OrderID)
	log := logging.With(ctx, u.log)

	if u.locker != nil {
		key := "refund:order:" + in.OrderID
		token, err := u.locker.TryLock(ctx, key, u.dispatchTimeout+5*time.Second)
		if err != nil {
			// The serializable create transaction still arbitrates correctly;
			// the lock only existed to avoid conflict retries.
			log.Warn().Err(err).Msg("order lock not acquired, proceeding unlocked")
		} else {
			defer func() {
				if uerr := u.locker.Unlock(context.WithoutCancel(ctx), key, token); uerr != nil {
					log.Warn().Err(uerr).Msg("order lock release failed, will expire by TTL")
				}
			}()
		}
	}

	// Open the pending ledger entry under the serialized balance check. The
	// wallet destination fixes the rail up front; payment-method refunds
	// resolve it after the record exists.
	var provider *model.SettlementRail
	if in.Destination == model.DestinationWallet {
		rail := model.RailWallet
		provider = &rail
	}
	req, order, err := u.ledger.Create(ctx, CreateRefundInput{
		OrderID:     in.OrderID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Destination: in.Destination,
		RequestedBy: in.RequestedBy,
		Reason:      in.Reason,
		Notes:       in.Notes,
		Provider:    provider,
	})
	if err != nil {
		return nil, err
	}
	ctx = logging.WithRefundID(ctx, req.ID)
	log = logging.With(ctx, u.log)

	adp, rail, dispatch, err := u.resolve(ctx, order, in.Destination)
	if err != nil {
		// Routing failed after the record was created: make it terminal
		// before surfacing, preserving the audit trail of the attempt.
		if lerr := u.ledger.MarkRejected(ctx, req.ID, nil, err.Error()); lerr != nil {
			log.Error().Err(lerr).Msg("failed to reject unroutable refund request")
		}
		metrics.IncRefund("rejected", "")
		return nil, err
	}

	dispatch.RefundRequestID = req.ID
	dispatch.Amount = req.Amount
	dispatch.Reason = req.Reason

	// Exactly one adapter call per RefundRequest. The adapter is not
	// idempotent; a timeout is a definite failure, never a silent retry.
	dctx, cancel := context.WithTimeout(ctx, u.dispatchTimeout)
	defer cancel()
	res, err := adp.Refund(dctx, dispatch)
	if err != nil || !res.Success {
		notes := res.Error
		if err != nil {
			notes = err.Error()
		}
		if lerr := u.ledger.MarkRejected(ctx, req.ID, &rail, notes); lerr != nil {
			log.Error().Err(lerr).Msg("failed to reject dispatched refund request")
		}
		metrics.IncRefund("rejected", string(rail))
		log.Info().Str("rail", string(rail)).Str("provider_error", notes).Msg("refund dispatch failed")
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderDispatch, notes)
	}

	// Money has moved. From here on every failure is repair-and-report,
	// never a second adapter call.
	if err := u.ledger.MarkCompleted(ctx, req.ID, rail, res.RefundID); err != nil {
		log.Error().Err(err).
			Str("rail", string(rail)).
			Str("provider_refund_id", res.RefundID).
			Msg("provider refund succeeded but ledger write failed, needs manual repair")
	} else if err := u.reconciler.ApplyRefund(ctx, order.ID); err != nil {
		// The repair worker re-runs reconciliation from ledger data.
		log.Error().Err(err).Msg("order reconciliation failed, repair worker will converge")
	}

	metrics.IncRefund("completed", string(rail))
	metrics.AddRefundedAmount(req.Currency, req.Amount)
	log.Info().
		Str("rail", string(rail)).
		Int64("amount", req.Amount).
		Str("provider_refund_id", res.RefundID).
		Msg("refund completed")

	req.Status = model.RefundStatusCompleted
	req.Provider = &rail
	req.ProviderRefundID = &res.RefundID
	now := time.Now().UTC()
	req.ProcessedAt = &now
	return &SubmitRefundResult{Request: req, Result: res}, nil
}

func (u *refundOrchestrator) ListByOrder(ctx context.Context, orderID string) ([]*model.RefundRequest, error) {
	return u.ledger.ListByOrder(ctx, orderID)
}

// resolve picks the adapter for the request's destination and assembles the
// outbound dispatch input.
func (u *refundOrchestrator) resolve(ctx context.Context, order *model.Order, dest model.RefundDestination) (adapterport.ProviderAdapter, model.SettlementRail, adapterport.RefundInput, error) {
	in := adapterport.RefundInput{
		OrderID:        order.ID,
		OrganizationID: order.OrganizationID,
		Currency:       order.Currency,
	}

	if dest == model.DestinationWallet {
		adp, err := u.router.ByRail(model.RailWallet)
		if err != nil {
			return nil, "", in, err
		}
		return adp, model.RailWallet, in, nil
	}

	p, err := u.payments.FindByID(ctx, repository.NoTX, order.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", in, domain.ErrUnsupportedProvider
		}
		return nil, "", in, err
	}
	adp, rail, err := u.router.Resolve(ctx, p)
	if err != nil {
		return nil, "", in, err
	}
	in.PaymentID = p.ID
	in.ProviderPaymentID = p.ProviderPaymentID
	return adp, rail, in, nil
}

func validateSubmit(in SubmitRefundInput) error {
	if in.OrderID == "" {
		return domain.ErrValidation
	}
	if in.Amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if len(in.Currency) != 3 {
		return domain.ErrValidation
	}
	if in.Destination != model.DestinationPaymentMethod && in.Destination != model.DestinationWallet {
		return domain.ErrValidation
	}
	return nil
}

// File: internal/usecase/refund_ledger.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/repository"
	"refund-orchestration/internal/infra/logging"
)

// Compile-time check
var _ RefundLedger = (*refundLedger)(nil)

// CreateRefundInput is everything needed to open a pending ledger entry.
type CreateRefundInput struct {
	OrderID     string
	Amount      int64
	Currency    string
	Destination model.RefundDestination
	RequestedBy string
	Reason      string
	Notes       string
	// Provider is the settlement rail when already known at creation time
	// (wallet refunds); payment-method refunds resolve it at dispatch.
	Provider *model.SettlementRail
}

// RefundLedger owns the refund_requests audit trail and its state machine.
// Create performs the serialized remaining-balance check; MarkCompleted and
// MarkRejected are the only two transitions out of pending, each applied at
// most once.
type RefundLedger interface {
	Create(ctx context.Context, in CreateRefundInput) (*model.RefundRequest, *model.Order, error)
	MarkCompleted(ctx context.Context, id string, rail model.SettlementRail, providerRefundID string) error
	MarkRejected(ctx context.Context, id string, rail *model.SettlementRail, notes string) error
	ListByOrder(ctx context.Context, orderID string) ([]*model.RefundRequest, error)
}

type refundLedger struct {
	orders  repository.OrderRepository
	refunds repository.RefundRequestRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewRefundLedger(orders repository.OrderRepository, refunds repository.RefundRequestRepository, tm repository.TransactionManager, logger *zerolog.Logger) *refundLedger {
	return &refundLedger{orders: orders, refunds: refunds, tm: tm, log: logger}
}

// Create validates the request against the order and, if it passes, persists a
// pending record inside the same transaction so concurrent submissions observe
// it. The order row is locked FOR UPDATE for the duration: two concurrent
// full-amount requests cannot both pass the balance check.
//
// Validation failures never leave a ledger entry behind.
func (l *refundLedger) Create(ctx context.Context, in CreateRefundInput) (*model.RefundRequest, *model.Order, error) {
	defer logging.TraceDuration(l.log, "RefundLedger.Create")()

	var (
		req   *model.RefundRequest
		order *model.Order
	)
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := l.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		o, err := l.orders.FindByID(ctx, tx, in.OrderID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrOrderNotFound
			}
			return err
		}
		if !o.Refundable() {
			return domain.ErrOrderNotRefundable
		}
		if in.Currency != o.Currency {
			return domain.ErrCurrencyMismatch
		}

		r, err := model.NewRefundRequest(o.ID, o.OrganizationID, in.Amount, in.Currency, in.Destination, in.RequestedBy, in.Reason, in.Notes)
		if err != nil {
			return err
		}
		r.Provider = in.Provider

		// Pending attempts reserve balance too: an in-flight refund that has
		// not reached a terminal state yet must block a racing submission for
		// the same money. Rejection releases the reservation.
		reserved, err := l.refunds.SumReservedByOrder(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if in.Amount > o.Amount-reserved {
			return domain.ErrInsufficientRemainingBalance
		}

		if err := l.refunds.Save(ctx, tx, r); err != nil {
			return domain.ErrPersistence
		}
		req, order = r, o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return req, order, nil
}

// MarkCompleted transitions pending -> completed. A request already terminal is
// left untouched with a warning: duplicate completion signals happen on retried
// deliveries, and reconciliation must never be applied twice for one of them.
func (l *refundLedger) MarkCompleted(ctx context.Context, id string, rail model.SettlementRail, providerRefundID string) error {
	changed, err := l.refunds.MarkCompleted(ctx, repository.NoTX, id, rail, providerRefundID, time.Now().UTC())
	if err != nil {
		return domain.ErrPersistence
	}
	if !changed {
		logging.With(ctx, l.log).Warn().
			Str("refund_id", id).
			Msg("markCompleted on a terminal refund request, ignoring")
	}
	return nil
}

// MarkRejected transitions pending -> rejected, recording the failure detail.
func (l *refundLedger) MarkRejected(ctx context.Context, id string, rail *model.SettlementRail, notes string) error {
	changed, err := l.refunds.MarkRejected(ctx, repository.NoTX, id, rail, notes, time.Now().UTC())
	if err != nil {
		return domain.ErrPersistence
	}
	if !changed {
		logging.With(ctx, l.log).Warn().
			Str("refund_id", id).
			Msg("markRejected on a terminal refund request, ignoring")
	}
	return nil
}

func (l *refundLedger) ListByOrder(ctx context.Context, orderID string) ([]*model.RefundRequest, error) {
	return l.refunds.ListByOrder(ctx, repository.NoTX, orderID)
}

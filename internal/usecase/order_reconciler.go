package usecase

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/repository"
	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/infra/metrics"
)

var _ OrderReconciler = (*orderReconciler)(nil)

// OrderReconciler recomputes an order's status from the ledger's completed
// entries. It reads only ledger data, so re-running it after a crash converges
// to the correct status no matter how far a previous run got.
type OrderReconciler interface {
	ApplyRefund(ctx context.Context, orderID string) error
}

type orderReconciler struct {
	orders  repository.OrderRepository
	refunds repository.RefundRequestRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewOrderReconciler(orders repository.OrderRepository, refunds repository.RefundRequestRepository, tm repository.TransactionManager, logger *zerolog.Logger) *orderReconciler {
	return &orderReconciler{orders: orders, refunds: refunds, tm: tm, log: logger}
}

// ApplyRefund sums completed refunds for the order and marks it refunded once
// the sum covers the full amount. Partial refunds leave the status alone.
func (r *orderReconciler) ApplyRefund(ctx context.Context, orderID string) error {
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return r.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		o, err := r.orders.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		refunded, err := r.refunds.SumCompletedByOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if refunded < o.Amount || o.Status == model.OrderStatusRefunded {
			return nil
		}
		if err := r.orders.UpdateStatus(ctx, tx, orderID, model.OrderStatusRefunded); err != nil {
			return err
		}
		metrics.IncOrderReconciled()
		logging.With(ctx, r.log).Info().
			Str("order_id", orderID).
			Int64("refunded_total", refunded).
			Msg("order fully refunded")
		return nil
	})
}

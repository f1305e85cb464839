package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain/ports/repository"
	"refund-orchestration/internal/infra/metrics"
	"refund-orchestration/internal/usecase"
)

// RefundReconciler is the out-of-band repair loop. It covers the narrow crash
// window between a provider refund succeeding and the ledger write landing:
// it re-runs order reconciliation from ledger data for orders whose status
// lags their completed refunds, and surfaces refund requests stuck pending
// past the stale cutoff for manual review. It never invokes a provider
// adapter; re-dispatching could refund twice.
type RefundReconciler struct {
	reconciler usecase.OrderReconciler
	orders     repository.OrderRepository
	refunds    repository.RefundRequestRepository
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewRefundReconciler(
	reconciler usecase.OrderReconciler,
	orders repository.OrderRepository,
	refunds repository.RefundRequestRepository,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *RefundReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &RefundReconciler{
		reconciler: reconciler,
		orders:     orders,
		refunds:    refunds,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *RefundReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *RefundReconciler) tick(ctx context.Context) {
	lagging, err := w.orders.ListWithCompletedRefunds(ctx, repository.NoTX, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("refund-reconciler: list lagging orders failed")
	} else {
		for _, orderID := range lagging {
			if err := w.reconciler.ApplyRefund(ctx, orderID); err != nil {
				w.log.Error().Err(err).Str("order_id", orderID).Msg("refund-reconciler: reconcile failed")
			}
		}
	}

	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.refunds.ListPendingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("refund-reconciler: list stale pending failed")
		return
	}
	metrics.SetStalePendingRefunds(len(stale))
	for _, r := range stale {
		// A request this old either crashed before dispatch or its terminal
		// write was lost. Only a human can tell whether money moved.
		w.log.Warn().
			Str("refund_id", r.ID).
			Str("order_id", r.OrderID).
			Int64("amount", r.Amount).
			Time("created_at", r.CreatedAt).
			Msg("refund-reconciler: stale pending refund request, needs manual review")
	}
}

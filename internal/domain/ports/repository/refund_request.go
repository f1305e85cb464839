package repository

import (
	"context"
	"time"

	"refund-orchestration/internal/domain/model"
)

type RefundRequestRepository interface {
	Save(ctx context.Context, tx Tx, r *model.RefundRequest) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.RefundRequest, error)
	ListByOrder(ctx context.Context, tx Tx, orderID string) ([]*model.RefundRequest, error)
	// SumCompletedByOrder is the single source of truth for how much of an
	// order has already been refunded.
	SumCompletedByOrder(ctx context.Context, tx Tx, orderID string) (int64, error)
	// SumReservedByOrder is the stricter sum used by the balance check at
	// creation time: pending attempts count too, so a second submission racing
	// an in-flight one cannot pass. Rejection releases the reservation.
	SumReservedByOrder(ctx context.Context, tx Tx, orderID string) (int64, error)
	// MarkCompleted and MarkRejected are conditional updates: they only touch
	// rows still pending and report whether a row changed, so duplicate
	// terminal signals degrade to a no-op instead of a double transition.
	MarkCompleted(ctx context.Context, tx Tx, id string, rail model.SettlementRail, providerRefundID string, processedAt time.Time) (bool, error)
	MarkRejected(ctx context.Context, tx Tx, id string, rail *model.SettlementRail, notes string, processedAt time.Time) (bool, error)
	// ListPendingOlderThan surfaces requests stuck pending past the crash
	// window for manual review.
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.RefundRequest, error)
}

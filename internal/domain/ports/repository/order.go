package repository

import (
	"context"

	"refund-orchestration/internal/domain/model"
)

// OrderRepository reads orders and writes nothing but their status. Within a
// transaction FindByID locks the row, which is what serializes concurrent
// refund submissions against the same order.
type OrderRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.OrderStatus) error
	// ListWithCompletedRefunds returns ids of orders that have at least one
	// completed refund; used by the repair worker to re-run reconciliation.
	ListWithCompletedRefunds(ctx context.Context, tx Tx, limit int) ([]string, error)
}

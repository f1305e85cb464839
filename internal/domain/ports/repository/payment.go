package repository

import (
	"context"

	"refund-orchestration/internal/domain/model"
)

// PaymentRepository is read-only: payments belong to the payment-recording
// subsystem and are only consulted here for rail classification.
type PaymentRepository interface {
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
}

package repository

import (
	"context"

	"refund-orchestration/internal/domain/model"
)

type WalletRepository interface {
	Save(ctx context.Context, tx Tx, wt *model.WalletTransaction) error
	BalanceByOrganization(ctx context.Context, tx Tx, orgID string) (int64, error)
}

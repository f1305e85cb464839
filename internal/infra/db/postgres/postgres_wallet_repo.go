package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/repository"
)

var _ repository.WalletRepository = (*walletRepo)(nil)

type walletRepo struct{ pool *pgxpool.Pool }

func NewWalletRepo(pool *pgxpool.Pool) *walletRepo {
	return &walletRepo{pool: pool}
}

// Save inserts the credit row. Wallet transactions are immutable; there is no
// update path.
func (r *walletRepo) Save(ctx context.Context, tx repository.Tx, wt *model.WalletTransaction) error {
	const q = `
INSERT INTO wallet_transactions (id, organization_id, amount, currency, refund_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, wt.ID, wt.OrganizationID, wt.Amount, wt.Currency, wt.RefundID, wt.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *walletRepo) BalanceByOrganization(ctx context.Context, tx repository.Tx, orgID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM wallet_transactions WHERE organization_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, orgID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

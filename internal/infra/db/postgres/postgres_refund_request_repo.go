package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/repository"
)

var _ repository.RefundRequestRepository = (*refundRequestRepo)(nil)

type refundRequestRepo struct{ pool *pgxpool.Pool }

func NewRefundRequestRepo(pool *pgxpool.Pool) *refundRequestRepo {
	return &refundRequestRepo{pool: pool}
}

const refundCols = `id, order_id, organization_id, amount, currency, destination, status, provider, provider_refund_id, reason, notes, requested_by, created_at, processed_at`

func scanRefund(row pgx.Row) (*model.RefundRequest, error) {
	r := &model.RefundRequest{}
	err := row.Scan(&r.ID, &r.OrderID, &r.OrganizationID, &r.Amount, &r.Currency, &r.Destination, &r.Status, &r.Provider, &r.ProviderRefundID, &r.Reason, &r.Notes, &r.RequestedBy, &r.CreatedAt, &r.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return r, nil
}

// Save only ever inserts: ledger rows are append-only, their two terminal
// transitions go through MarkCompleted/MarkRejected.
func (r *refundRequestRepo) Save(ctx context.Context, tx repository.Tx, req *model.RefundRequest) error {
	const q = `
INSERT INTO refund_requests (` + refundCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14);`
	_, err := execSQL(ctx, r.pool, tx, q,
		req.ID, req.OrderID, req.OrganizationID, req.Amount, req.Currency, req.Destination,
		req.Status, req.Provider, req.ProviderRefundID, req.Reason, req.Notes, req.RequestedBy,
		req.CreatedAt, req.ProcessedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *refundRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.RefundRequest, error) {
	q := `SELECT ` + refundCols + ` FROM refund_requests WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanRefund(row)
}

func (r *refundRequestRepo) ListByOrder(ctx context.Context, tx repository.Tx, orderID string) ([]*model.RefundRequest, error) {
	const q = `SELECT ` + refundCols + ` FROM refund_requests WHERE order_id=$1 ORDER BY id ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, orderID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.RefundRequest
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

func (r *refundRequestRepo) SumCompletedByOrder(ctx context.Context, tx repository.Tx, orderID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM refund_requests WHERE order_id=$1 AND status='completed';`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

func (r *refundRequestRepo) SumReservedByOrder(ctx context.Context, tx repository.Tx, orderID string) (int64, error) {
	const q = `SELECT COALESCE(SUM(amount),0) FROM refund_requests WHERE order_id=$1 AND status IN ('pending','completed');`
	row, err := pickRow(ctx, r.pool, tx, q, orderID)
	if err != nil {
		return 0, err
	}
	var sum int64
	if err := row.Scan(&sum); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return sum, nil
}

// MarkCompleted atomically transitions pending -> completed. Rows already
// terminal are untouched; the caller decides how loudly to report that.
func (r *refundRequestRepo) MarkCompleted(ctx context.Context, tx repository.Tx, id string, rail model.SettlementRail, providerRefundID string, processedAt time.Time) (bool, error) {
	const q = `
UPDATE refund_requests
   SET status = 'completed',
       provider = $2,
       provider_refund_id = $3,
       processed_at = $4
 WHERE id = $1
   AND status = 'pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(rail), providerRefundID, processedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

// MarkRejected atomically transitions pending -> rejected, appending the
// failure detail to notes.
func (r *refundRequestRepo) MarkRejected(ctx context.Context, tx repository.Tx, id string, rail *model.SettlementRail, notes string, processedAt time.Time) (bool, error) {
	const q = `
UPDATE refund_requests
   SET status = 'rejected',
       provider = COALESCE($2, provider),
       notes = TRIM(BOTH ' ' FROM notes || ' ' || $3),
       processed_at = $4
 WHERE id = $1
   AND status = 'pending';`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, rail, notes, processedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *refundRequestRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.RefundRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + refundCols + ` FROM refund_requests WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.RefundRequest
	for rows.Next() {
		req, err := scanRefund(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, nil
}

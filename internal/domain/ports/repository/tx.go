package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// NoTX marks the non-transactional path explicitly at call sites.
var NoTX Tx

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via `tx`.
//
// Repository methods accept the same `tx Tx` and detect a live transaction
// implementation-side (SELECT ... FOR UPDATE, tx-bound Exec/Query). The
// concrete type is infra-defined (pgx.Tx for Postgres); repositories must
// gracefully accept nil and fall back to the pool.
//
// The serialized remaining-balance check in the refund ledger depends on this:
// reading the order row, summing completed refunds and inserting the pending
// request all happen under one WithTx call.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}

// File: internal/infra/adapters/wallet/wallet_ledger.go
package wallet

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
	"refund-orchestration/internal/domain/ports/repository"
	"refund-orchestration/internal/infra/logging"
)

var _ adapter.ProviderAdapter = (*LedgerAdapter)(nil)

// LedgerAdapter settles a refund to the organization's internal credits
// balance instead of an external backend. The credit is a single row insert
// inside one transaction: either the full amount is recorded or nothing is.
type LedgerAdapter struct {
	wallets repository.WalletRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewLedgerAdapter(wallets repository.WalletRepository, tm repository.TransactionManager, logger *zerolog.Logger) *LedgerAdapter {
	return &LedgerAdapter{wallets: wallets, tm: tm, log: logger}
}

func (a *LedgerAdapter) Rail() model.SettlementRail { return model.RailWallet }

func (a *LedgerAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	wt := model.NewWalletTransaction(in.OrganizationID, in.Amount, in.Currency, in.RefundRequestID)

	err := a.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return a.wallets.Save(ctx, tx, wt)
	})
	if err != nil {
		return adapter.RefundResult{}, err
	}

	logging.With(ctx, a.log).Info().
		Str("wallet_tx_id", wt.ID).
		Str("org_id", in.OrganizationID).
		Int64("amount", in.Amount).
		Msg("wallet credited")
	return adapter.RefundResult{
		Success:    true,
		RefundID:   wt.ID,
		RefundTime: time.Now(),
	}, nil
}

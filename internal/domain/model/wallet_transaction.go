package model

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransaction is an immutable credit to an organization's internal
// balance, written when a refund settles to the wallet.
type WalletTransaction struct {
	ID             string // UUID
	OrganizationID string
	Amount         int64
	Currency       string
	RefundID       string // RefundRequest that produced the credit
	CreatedAt      time.Time
}

func NewWalletTransaction(orgID string, amount int64, currency, refundID string) *WalletTransaction {
	return &WalletTransaction{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		Amount:         amount,
		Currency:       currency,
		RefundID:       refundID,
		CreatedAt:      time.Now().UTC(),
	}
}

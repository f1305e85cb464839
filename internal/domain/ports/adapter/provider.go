package adapter

import (
	"context"
	"time"

	"refund-orchestration/internal/domain/model"
)

// RefundInput is the fixed outbound contract to every settlement backend.
type RefundInput struct {
	RefundRequestID   string
	OrderID           string
	PaymentID         string
	ProviderPaymentID string
	OrganizationID    string
	Amount            int64 // minor units
	Currency          string
	Reason            string
}

// RefundResult captures a minimal, provider-agnostic outcome.
type RefundResult struct {
	Success    bool
	RefundID   string // provider refund/transaction id when Success
	Error      string // provider failure detail when !Success
	RefundTime time.Time
}

// ProviderAdapter wraps one settlement rail behind a uniform refund contract.
//
// Adapters are NOT idempotent: calling Refund twice for the same logical
// request may move money twice. The orchestrator enforces at-most-once
// structurally, by making each pending ledger row terminal before returning.
// A transport error or timeout is a definite failure, never "unknown, retry".
type ProviderAdapter interface {
	Rail() model.SettlementRail
	Refund(ctx context.Context, in RefundInput) (RefundResult, error)
}

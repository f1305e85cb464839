package provider

import (
	"context"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*LocalNetworkSessionAdapter)(nil)

// LocalNetworkSessionAdapter refunds session-based local-network payments:
// the refund is addressed by the session token the original transaction ran
// under.
type LocalNetworkSessionAdapter struct {
	core localNetworkCore
}

func NewLocalNetworkSessionAdapter(baseURL, commerceCode, apiKeyID, apiKeySecret string) (*LocalNetworkSessionAdapter, error) {
	core, err := newLocalNetworkCore(baseURL, commerceCode, apiKeyID, apiKeySecret)
	if err != nil {
		return nil, err
	}
	return &LocalNetworkSessionAdapter{core: core}, nil
}

func (a *LocalNetworkSessionAdapter) Rail() model.SettlementRail {
	return model.RailLocalNetworkSession
}

func (a *LocalNetworkSessionAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	payload := map[string]any{
		"amount": in.Amount,
	}
	env, err := a.core.post(ctx, "/api/session/v1/transactions/"+in.ProviderPaymentID+"/refunds", payload)
	if err != nil {
		return adapter.RefundResult{}, err
	}
	return env.toResult(), nil
}

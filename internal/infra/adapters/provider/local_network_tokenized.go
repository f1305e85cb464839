package provider

import (
	"context"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*LocalNetworkTokenizedAdapter)(nil)

// LocalNetworkTokenizedAdapter refunds tokenized-recurring local-network
// payments. This mode addresses the transaction by commerce code and buy
// order instead of a session token.
type LocalNetworkTokenizedAdapter struct {
	core localNetworkCore
}

func NewLocalNetworkTokenizedAdapter(baseURL, commerceCode, apiKeyID, apiKeySecret string) (*LocalNetworkTokenizedAdapter, error) {
	core, err := newLocalNetworkCore(baseURL, commerceCode, apiKeyID, apiKeySecret)
	if err != nil {
		return nil, err
	}
	return &LocalNetworkTokenizedAdapter{core: core}, nil
}

func (a *LocalNetworkTokenizedAdapter) Rail() model.SettlementRail {
	return model.RailLocalNetworkTokenized
}

func (a *LocalNetworkTokenizedAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	payload := map[string]any{
		"commerce_code":    a.core.commerceCode,
		"buy_order":        in.ProviderPaymentID,
		"detail_buy_order": in.RefundRequestID,
		"amount":           in.Amount,
	}
	env, err := a.core.post(ctx, "/api/tokenized/v1/transactions/refunds", payload)
	if err != nil {
		return adapter.RefundResult{}, err
	}
	return env.toResult(), nil
}

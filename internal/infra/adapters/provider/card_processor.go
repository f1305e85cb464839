// File: internal/infra/adapters/provider/card_processor.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
)

var _ adapter.ProviderAdapter = (*CardProcessorAdapter)(nil)

// CardProcessorAdapter refunds through the international card processor's
// REST API. One call may move money; the orchestrator guarantees it is made
// at most once per refund request.
type CardProcessorAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCardProcessorAdapter(baseURL, apiKey string) (*CardProcessorAdapter, error) {
	if baseURL == "" {
		return nil, errors.New("card processor base url empty")
	}
	if apiKey == "" {
		return nil, errors.New("card processor api key empty")
	}
	return &CardProcessorAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (a *CardProcessorAdapter) Rail() model.SettlementRail { return model.RailCardProcessor }

func (a *CardProcessorAdapter) Refund(ctx context.Context, in adapter.RefundInput) (adapter.RefundResult, error) {
	payload := map[string]any{
		"charge":          in.ProviderPaymentID,
		"amount":          in.Amount,
		"currency":        in.Currency,
		"reason":          in.Reason,
		"idempotency_ref": in.RefundRequestID,
	}
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/refunds", bytes.NewReader(b))
	if err != nil {
		return adapter.RefundResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return adapter.RefundResult{}, err
	}
	defer resp.Body.Close()

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"` // succeeded | failed
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return adapter.RefundResult{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := out.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("card processor http %d", resp.StatusCode)
		}
		return adapter.RefundResult{Success: false, Error: msg}, nil
	}
	if out.Status != "succeeded" || out.ID == "" {
		return adapter.RefundResult{Success: false, Error: "card processor refund not accepted: " + out.Status}, nil
	}
	return adapter.RefundResult{Success: true, RefundID: out.ID, RefundTime: time.Now()}, nil
}

// File: internal/infra/adapters/provider/local_network.go
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"refund-orchestration/internal/domain/ports/adapter"
)

// localNetworkCore holds what both local-network operating modes share: the
// commerce credentials and the HTTP plumbing. The two modes refund against
// different endpoints with different payload shapes, which is exactly why the
// router must not confuse them — each settlement API rejects the other's
// transactions.
type localNetworkCore struct {
	baseURL      string
	commerceCode string
	apiKeyID     string
	apiKeySecret string
	client       *http.Client
}

func newLocalNetworkCore(baseURL, commerceCode, apiKeyID, apiKeySecret string) (localNetworkCore, error) {
	if baseURL == "" {
		return localNetworkCore{}, errors.New("local network base url empty")
	}
	if commerceCode == "" {
		return localNetworkCore{}, errors.New("local network commerce code empty")
	}
	return localNetworkCore{
		baseURL:      baseURL,
		commerceCode: commerceCode,
		apiKeyID:     apiKeyID,
		apiKeySecret: apiKeySecret,
		client:       &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// refundEnvelope is the local network's response shape, shared by both modes.
type refundEnvelope struct {
	Type         string `json:"type"` // REVERSED | NULLIFIED
	AuthCode     string `json:"authorization_code"`
	ResponseCode int    `json:"response_code"` // 0 means accepted
	ErrorMessage string `json:"error_message"`
}

func (c *localNetworkCore) post(ctx context.Context, path string, payload any) (refundEnvelope, error) {
	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return refundEnvelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key-Id", c.apiKeyID)
	req.Header.Set("Api-Key-Secret", c.apiKeySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return refundEnvelope{}, err
	}
	defer resp.Body.Close()

	var out refundEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return refundEnvelope{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.ErrorMessage == "" {
			out.ErrorMessage = fmt.Sprintf("local network http %d", resp.StatusCode)
		}
	}
	return out, nil
}

func (e refundEnvelope) toResult() adapter.RefundResult {
	if e.ResponseCode != 0 || e.ErrorMessage != "" {
		msg := e.ErrorMessage
		if msg == "" {
			msg = fmt.Sprintf("local network response code %d", e.ResponseCode)
		}
		return adapter.RefundResult{Success: false, Error: msg}
	}
	return adapter.RefundResult{Success: true, RefundID: e.AuthCode, RefundTime: time.Now()}
}

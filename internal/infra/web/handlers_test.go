//go:build !integration

package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/domain/ports/adapter"
	"refund-orchestration/internal/infra/web"
	"refund-orchestration/internal/usecase"
)

// stubOrchestrator scripts the orchestrator's answers and records the last
// submitted input so handlers can be tested in isolation.
type stubOrchestrator struct {
	submitRes *usecase.SubmitRefundResult
	submitErr error
	listRes   []*model.RefundRequest
	listErr   error

	lastSubmit usecase.SubmitRefundInput
}

func (s *stubOrchestrator) Submit(ctx context.Context, in usecase.SubmitRefundInput) (*usecase.SubmitRefundResult, error) {
	s.lastSubmit = in
	return s.submitRes, s.submitErr
}

func (s *stubOrchestrator) ListByOrder(ctx context.Context, orderID string) ([]*model.RefundRequest, error) {
	return s.listRes, s.listErr
}

type webFixture struct {
	stub  *stubOrchestrator
	guard *web.AccessGuard
	srv   *httptest.Server
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	stub := &stubOrchestrator{}
	guard := web.NewAccessGuard("test-secret", time.Minute)
	srv := httptest.NewServer(web.NewServer(stub, guard, &logger).Router())
	t.Cleanup(srv.Close)
	return &webFixture{stub: stub, guard: guard, srv: srv}
}

func (f *webFixture) do(t *testing.T, method, path string, body any, authorized bool) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if authorized {
		tok, err := f.guard.Mint("op-1", "support")
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func completedRequest() *model.RefundRequest {
	rail := model.RailWallet
	refID := "wtx-1"
	now := time.Now().UTC()
	return &model.RefundRequest{
		ID:               "01J8ZX5R3NT2M4Q6V8B0D1F2G3",
		OrderID:          "order-1",
		OrganizationID:   "org-1",
		Amount:           50000,
		Currency:         "CLP",
		Destination:      model.DestinationWallet,
		Status:           model.RefundStatusCompleted,
		Provider:         &rail,
		ProviderRefundID: &refID,
		RequestedBy:      "op-1",
		CreatedAt:        now,
		ProcessedAt:      &now,
	}
}

func TestSubmitRefundHandler(t *testing.T) {
	body := map[string]any{
		"amount":             50000,
		"currency":           "CLP",
		"refund_destination": "wallet",
		"reason":             "customer request",
	}

	t.Run("successful refund returns 201", func(t *testing.T) {
		f := newWebFixture(t)
		f.stub.submitRes = &usecase.SubmitRefundResult{
			Request: completedRequest(),
			Result:  adapter.RefundResult{Success: true, RefundID: "wtx-1", RefundTime: time.Now()},
		}

		resp := f.do(t, http.MethodPost, "/api/v1/orders/order-1/refunds", body, true)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
		got := decodeBody(t, resp)
		if got["success"] != true {
			t.Error("response must report success")
		}
		rr, ok := got["refund_result"].(map[string]any)
		if !ok || rr["refund_id"] != "wtx-1" {
			t.Errorf("refund_result = %v, want refund_id wtx-1", got["refund_result"])
		}

		// The handler wires the path, token subject, and body into the input.
		in := f.stub.lastSubmit
		if in.OrderID != "order-1" || in.RequestedBy != "op-1" || in.Amount != 50000 || in.Destination != model.DestinationWallet {
			t.Errorf("submit input = %+v", in)
		}
	})

	t.Run("error kinds map to the status contract", func(t *testing.T) {
		cases := []struct {
			name   string
			err    error
			status int
			kind   string
		}{
			{"order not found", domain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
			{"order not refundable", domain.ErrOrderNotRefundable, http.StatusBadRequest, "order_not_refundable"},
			{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
			{"currency mismatch", domain.ErrCurrencyMismatch, http.StatusBadRequest, "validation_error"},
			{"insufficient balance", domain.ErrInsufficientRemainingBalance, http.StatusConflict, "insufficient_remaining_balance"},
			{"unsupported provider", domain.ErrUnsupportedProvider, http.StatusUnprocessableEntity, "unsupported_provider"},
			{"provider dispatch", domain.ErrProviderDispatch, http.StatusBadGateway, "provider_dispatch_failed"},
			{"persistence", domain.ErrPersistence, http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				f := newWebFixture(t)
				f.stub.submitErr = tc.err

				resp := f.do(t, http.MethodPost, "/api/v1/orders/order-1/refunds", body, true)
				if resp.StatusCode != tc.status {
					t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
				}
				got := decodeBody(t, resp)
				if got["error"] != tc.kind {
					t.Errorf("error kind = %v, want %s", got["error"], tc.kind)
				}
				if got["message"] == "" {
					t.Error("error responses carry a human-readable message")
				}
			})
		}
	})

	t.Run("malformed body is a 400 before the orchestrator runs", func(t *testing.T) {
		f := newWebFixture(t)
		tok, _ := f.guard.Mint("op-1", "support")
		req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/api/v1/orders/order-1/refunds", bytes.NewBufferString("{not json"))
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if f.stub.lastSubmit.OrderID != "" {
			t.Error("malformed body must not reach the orchestrator")
		}
	})

	t.Run("missing token is a 401", func(t *testing.T) {
		f := newWebFixture(t)
		resp := f.do(t, http.MethodPost, "/api/v1/orders/order-1/refunds", body, false)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("token signed with another secret is a 401", func(t *testing.T) {
		f := newWebFixture(t)
		other := web.NewAccessGuard("wrong-secret", time.Minute)
		tok, _ := other.Mint("op-1", "support")
		req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/api/v1/orders/order-1/refunds", bytes.NewBufferString("{}"))
		req.Header.Set("Authorization", "Bearer "+tok)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do request: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})
}

func TestListRefundsHandler(t *testing.T) {
	t.Run("lists the order's full audit trail", func(t *testing.T) {
		f := newWebFixture(t)
		f.stub.listRes = []*model.RefundRequest{completedRequest()}

		resp := f.do(t, http.MethodGet, "/api/v1/orders/order-1/refunds", nil, true)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		got := decodeBody(t, resp)
		entries, ok := got["refund_requests"].([]any)
		if !ok || len(entries) != 1 {
			t.Fatalf("refund_requests = %v, want one entry", got["refund_requests"])
		}
	})

	t.Run("listing failure is an opaque 500", func(t *testing.T) {
		f := newWebFixture(t)
		f.stub.listErr = domain.ErrPersistence

		resp := f.do(t, http.MethodGet, "/api/v1/orders/order-1/refunds", nil, true)
		if resp.StatusCode != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", resp.StatusCode)
		}
		got := decodeBody(t, resp)
		if got["error"] != "internal_error" {
			t.Errorf("error kind = %v, want internal_error", got["error"])
		}
	})
}

func TestHealthAndMetricsBypassGuard(t *testing.T) {
	f := newWebFixture(t)

	resp := f.do(t, http.MethodGet, "/healthz", nil, false)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d, want 200", resp.StatusCode)
	}

	resp2 := f.do(t, http.MethodGet, "/metrics", nil, false)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d, want 200", resp2.StatusCode)
	}
}

package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"refund-orchestration/internal/domain"
	"refund-orchestration/internal/domain/model"
	"refund-orchestration/internal/infra/logging"
	"refund-orchestration/internal/usecase"
)

// submitRefundRequest is the inbound shape from the (out-of-scope) UI layer.
type submitRefundRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Destination string `json:"refund_destination"` // payment_method | wallet
	Reason      string `json:"reason,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) submitRefundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID := chi.URLParam(r, "orderID")

		var req submitRefundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "invalid request body")
			return
		}

		result, err := s.refunds.Submit(ctx, usecase.SubmitRefundInput{
			OrderID:     orderID,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Destination: model.RefundDestination(req.Destination),
			Reason:      req.Reason,
			Notes:       req.Notes,
			RequestedBy: Operator(ctx),
		})
		if err != nil {
			kind, status := classifyError(err)
			writeError(w, status, kind, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":        true,
			"refund_request": result.Request,
			"refund_result": map[string]any{
				"refund_id":   result.Result.RefundID,
				"refund_time": result.Result.RefundTime,
			},
		})
	}
}

func (s *Server) listRefundsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		orderID := chi.URLParam(r, "orderID")

		refunds, err := s.refunds.ListByOrder(ctx, orderID)
		if err != nil {
			logging.With(ctx, s.log).Error().Err(err).Msg("list refunds failed")
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to list refunds")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"refund_requests": refunds})
	}
}

// classifyError maps domain sentinels onto the API contract: a stable
// machine-readable kind and an HTTP status. Provider payloads and stack
// detail never leave this process for non-privileged callers.
func classifyError(err error) (kind string, status int) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		return "order_not_found", http.StatusNotFound
	case errors.Is(err, domain.ErrOrderNotRefundable):
		return "order_not_refundable", http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrValidation):
		return "validation_error", http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientRemainingBalance):
		return "insufficient_remaining_balance", http.StatusConflict
	case errors.Is(err, domain.ErrOrderBusy):
		return "order_busy", http.StatusConflict
	case errors.Is(err, domain.ErrUnsupportedProvider):
		return "unsupported_provider", http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrProviderDispatch):
		return "provider_dispatch_failed", http.StatusBadGateway
	default:
		return "internal_error", http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: kind, Message: msg})
}

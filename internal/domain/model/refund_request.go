package model

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"refund-orchestration/internal/domain"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusRejected  RefundStatus = "rejected"
)

type RefundDestination string

const (
	DestinationPaymentMethod RefundDestination = "payment_method"
	DestinationWallet        RefundDestination = "wallet"
)

// RefundRequest is one row of the permanent refund audit trail. It is created
// pending, transitions exactly once to completed or rejected, and is never
// deleted or reversed.
type RefundRequest struct {
	ID               string // ULID, sortable by creation time
	OrderID          string
	OrganizationID   string
	Amount           int64
	Currency         string
	Destination      RefundDestination
	Status           RefundStatus
	Provider         *SettlementRail // resolved rail, nil until dispatch
	ProviderRefundID *string
	Reason           string
	Notes            string
	RequestedBy      string
	CreatedAt        time.Time
	ProcessedAt      *time.Time
}

// NewRefundRequest builds a pending request. Balance checks belong to the
// ledger; this only rejects shapes that are wrong on their face.
func NewRefundRequest(orderID, orgID string, amount int64, currency string, dest RefundDestination, requestedBy, reason, notes string) (*RefundRequest, error) {
	if orderID == "" || orgID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if len(currency) != 3 {
		return nil, domain.ErrValidation
	}
	if dest != DestinationPaymentMethod && dest != DestinationWallet {
		return nil, domain.ErrValidation
	}
	return &RefundRequest{
		ID:             ulid.MustNew(ulid.Now(), rand.Reader).String(),
		OrderID:        orderID,
		OrganizationID: orgID,
		Amount:         amount,
		Currency:       currency,
		Destination:    dest,
		Status:         RefundStatusPending,
		Reason:         reason,
		Notes:          notes,
		RequestedBy:    requestedBy,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// Terminal reports whether the request already reached its final state.
func (r *RefundRequest) Terminal() bool {
	return r.Status == RefundStatusCompleted || r.Status == RefundStatusRejected
}

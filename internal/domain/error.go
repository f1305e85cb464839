package domain

import "errors"

var (
	// Refund request validation errors. None of these may leave a ledger entry behind.
	ErrValidation                   = errors.New("invalid refund request")
	ErrOrderNotFound                = errors.New("order not found")
	ErrOrderNotRefundable           = errors.New("order status forbids refunds")
	ErrInvalidAmount                = errors.New("refund amount must be positive")
	ErrInsufficientRemainingBalance = errors.New("refund amount exceeds remaining refundable balance")
	ErrCurrencyMismatch             = errors.New("refund currency does not match order currency")

	// Dispatch errors. Both produce a terminal rejected ledger entry before surfacing.
	ErrUnsupportedProvider = errors.New("no settlement rail matches the payment")
	ErrProviderDispatch    = errors.New("provider refused or failed the refund")

	// Infrastructure errors.
	ErrPersistence        = errors.New("ledger persistence failed")
	ErrNotFound           = errors.New("entity not found")
	ErrOrderBusy          = errors.New("another refund is in flight for this order")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

package domain

import "errors"

var (
	// Not-found family. Fatal to the single operation, never retried.
	ErrBalanceNotFound = errors.New("balance not found for user")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")

	// Business-rule rejections, surfaced to the caller as-is.
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyExhausted  = errors.New("coupon quantity exhausted")

	// Precondition violations.
	ErrCouponExpired = errors.New("coupon is outside its validity window")
	ErrNotReleased   = errors.New("product is not released yet")
	ErrAlreadyIssued = errors.New("coupon already issued to this user")
	ErrNotIssued     = errors.New("coupon was not issued to this user")
	ErrInvalidAmount = errors.New("amount must be positive")

	// Concurrency outcomes. A conflict is retried internally by the
	// balance service; exhaustion of the retry budget escalates.
	ErrConcurrencyConflict  = errors.New("concurrent modification detected")
	ErrConcurrencyExhausted = errors.New("retry attempts exhausted")
	ErrLockTimeout          = errors.New("row lock wait timed out")

	// A compensating restock failed after a committed stock decrement.
	// Implies a stock-accounting leak that needs operator attention.
	ErrCompensationFailed = errors.New("stock compensation failed")
)

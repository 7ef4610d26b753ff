package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound = errors.New("bank account not found")
	ErrAccountDeleted  = errors.New("bank account is deleted")
	ErrAccountInactive = errors.New("bank account is inactive")

	// Statement errors
	ErrInvalidDateRange = errors.New("date range start must not be after end")
	ErrInvalidCategory  = errors.New("unsupported ledger category")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrSameAccount         = errors.New("cannot transfer to same account")
	ErrInvalidStatus       = errors.New("unsupported transaction status")

	// Auth errors
	ErrUnauthorized = errors.New("missing or invalid company scope")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

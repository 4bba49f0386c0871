package vaultbank

import (
	"errors"
	"fmt"

	"github.com/xraph/vaultbank/ledger"
)

// Sentinel errors for common failure scenarios. The accounting sentinels
// are owned by the ledger package and re-exported here so callers only
// ever import vaultbank.
var (
	// Accounting errors (raised by ledger.Credit / ledger.Debit)
	ErrZeroAmount          = ledger.ErrZeroAmount
	ErrCapacityExceeded    = ledger.ErrCapacityExceeded
	ErrInsufficientBalance = ledger.ErrInsufficientBalance
	ErrThresholdExceeded   = ledger.ErrThresholdExceeded
	ErrSnapshotInvalid     = ledger.ErrSnapshotInvalid

	// Pipeline errors
	ErrSwapFailed         = errors.New("vaultbank: swap failed")
	ErrZeroOutputReceived = errors.New("vaultbank: conversion yielded zero output")
	ErrTransferFailed     = errors.New("vaultbank: asset transfer failed")
	ErrInvalidAddress     = errors.New("vaultbank: invalid address")
	ErrInvalidAsset       = errors.New("vaultbank: invalid asset for operation")

	// Access errors
	ErrUnauthorized = errors.New("vaultbank: unauthorized")

	// Configuration errors
	ErrInvalidConfig = errors.New("vaultbank: invalid configuration")

	// Journal errors
	ErrJournalBufferFull = errors.New("vaultbank: journal buffer full")

	// Store errors
	ErrNotFound    = errors.New("vaultbank: not found")
	ErrStoreClosed = errors.New("vaultbank: store is closed")
)

// DepositError carries the failure context of a deposit whose conversion
// or accounting was rejected. The wrapped sentinel identifies the cause.
type DepositError struct {
	Account string
	Asset   string
	Err     error
}

func (e *DepositError) Error() string {
	return fmt.Sprintf("vaultbank: deposit of %s for %s: %v", e.Asset, e.Account, e.Err)
}

func (e *DepositError) Unwrap() error { return e.Err }

// IsAccountingError reports whether the error is one of the ledger's
// precondition failures, as opposed to an external-transfer failure.
func IsAccountingError(err error) bool {
	return errors.Is(err, ErrZeroAmount) ||
		errors.Is(err, ErrCapacityExceeded) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrThresholdExceeded)
}

// IsRetryable reports whether the failure is transient and the caller may
// retry the operation as-is. Accounting rejections are terminal; gateway
// and transfer failures may clear on a later attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSwapFailed) ||
		errors.Is(err, ErrZeroOutputReceived) ||
		errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrJournalBufferFull)
}

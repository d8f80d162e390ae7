package vault

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized           = errors.New("vault: registry not initialized")
	ErrAlreadyInitialized       = errors.New("vault: registry already initialized")
	ErrVaultAlreadyActive       = errors.New("vault: funds collected, configuration is locked")
	ErrDepositWindowClosed      = errors.New("vault: deposit window closed")
	ErrBelowMinimum             = errors.New("vault: amount below minimum deposit")
	ErrCapacityExceeded         = errors.New("vault: amount exceeds vault capacity")
	ErrUnauthorized             = errors.New("vault: signer does not have authorisation")
	ErrWithdrawTooEarly         = errors.New("vault: withdraw timeframe not reached")
	ErrPositionNotFound         = errors.New("vault: position not found")
	ErrInsufficientVaultBalance = errors.New("vault: insufficient vault balance")
	ErrInvalidConfiguration     = errors.New("vault: invalid configuration")
	ErrVaultNotFound            = errors.New("vault: vault not found")
	ErrIncorrectVaultCount      = errors.New("vault: incorrect vault count")
	ErrPositionsOutstanding     = errors.New("vault: positions still open")
	ErrInvalidAmount            = errors.New("vault: invalid amount")
	ErrOverflow                 = errors.New("vault: overflow detected")

	// ErrMissingParams is an ErrInvalidConfiguration raised when a vault is
	// created without every required field.
	ErrMissingParams = fmt.Errorf("%w: missing params", ErrInvalidConfiguration)
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrNotInitialized, "not_initialized"},
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrVaultAlreadyActive, "vault_already_active"},
	{ErrDepositWindowClosed, "deposit_window_closed"},
	{ErrBelowMinimum, "below_minimum"},
	{ErrCapacityExceeded, "capacity_exceeded"},
	{ErrUnauthorized, "unauthorized"},
	{ErrWithdrawTooEarly, "withdraw_too_early"},
	{ErrPositionNotFound, "position_not_found"},
	{ErrInsufficientVaultBalance, "insufficient_vault_balance"},
	{ErrMissingParams, "missing_params"},
	{ErrInvalidConfiguration, "invalid_configuration"},
	{ErrVaultNotFound, "vault_not_found"},
	{ErrIncorrectVaultCount, "incorrect_vault_count"},
	{ErrPositionsOutstanding, "positions_outstanding"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrOverflow, "overflow"},
}

// Kind returns a short snake_case label for err, or "error" when err is not
// one of the engine errors.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "error"
}

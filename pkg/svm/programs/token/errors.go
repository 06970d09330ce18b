package token

import (
	"errors"
	"fmt"
)

// TokenError is a token program failure with its numeric code.
type TokenError uint32

// Coded failures. Gaps are codes this implementation never raises.
const (
	ErrNotRentExempt      TokenError = 0
	ErrInsufficientFunds  TokenError = 1
	ErrInvalidMint        TokenError = 2
	ErrMintMismatch       TokenError = 3
	ErrOwnerMismatch      TokenError = 4
	ErrFixedSupply        TokenError = 5
	ErrAlreadyInitialized TokenError = 6
	ErrNotInitialized     TokenError = 9
	ErrInvalidInstruction TokenError = 12
	ErrOverflow           TokenError = 14
	ErrAccountFrozen      TokenError = 17
	ErrDecimalsMismatch   TokenError = 18
)

var tokenErrorText = map[TokenError]string{
	ErrNotRentExempt:      "lamport balance below rent-exempt threshold",
	ErrInsufficientFunds:  "insufficient funds",
	ErrInvalidMint:        "invalid mint",
	ErrMintMismatch:       "mint mismatch",
	ErrOwnerMismatch:      "owner mismatch",
	ErrFixedSupply:        "fixed supply",
	ErrAlreadyInitialized: "already initialized",
	ErrNotInitialized:     "not initialized",
	ErrInvalidInstruction: "invalid instruction",
	ErrOverflow:           "overflow",
	ErrAccountFrozen:      "account is frozen",
	ErrDecimalsMismatch:   "decimals mismatch",
}

func (e TokenError) Error() string {
	if text, ok := tokenErrorText[e]; ok {
		return text
	}
	return fmt.Sprintf("token error %d", uint32(e))
}

// Code returns the numeric error code.
func (e TokenError) Code() uint32 {
	return uint32(e)
}

// Runtime-level failures without a token error code.
var (
	ErrInvalidAccountData      = errors.New("invalid account data")
	ErrInvalidInstructionData  = errors.New("invalid instruction data")
	ErrInvalidAccountOwner     = errors.New("invalid account owner")
	ErrAccountNotSigner        = errors.New("account is not a signer")
	ErrAccountNotWritable      = errors.New("account is not writable")
	ErrInvalidNumberOfAccounts = errors.New("invalid number of accounts")

	// ErrAuthorityMismatch is returned when the signing authority is not
	// the one recorded on the mint or account.
	ErrAuthorityMismatch = errors.New("authority mismatch")
)

package system

import "errors"

var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrAccountNotSigner       = errors.New("account is not a signer")
	ErrAccountNotWritable     = errors.New("account is not writable")
	ErrInvalidAccountOwner    = errors.New("invalid account owner")

	// ErrAccountAlreadyExists is returned when the target address already
	// holds lamports or data, or is owned by another program.
	ErrAccountAlreadyExists = errors.New("account already exists")

	ErrAccountNotRentExempt    = errors.New("account not rent exempt")
	ErrAccountDataTooLarge     = errors.New("account data too large")
	ErrInsufficientFunds       = errors.New("insufficient funds for operation")
	ErrTransferFromDataAccount = errors.New("from must not carry data")
)

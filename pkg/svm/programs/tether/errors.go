package tether

import "errors"

// ProgramError is a tether failure with a stable numeric code, reported
// to clients as a custom program error.
type ProgramError struct {
	code uint32
	msg  string
}

func (e *ProgramError) Error() string {
	return e.msg
}

// Code returns the custom program error code.
func (e *ProgramError) Code() uint32 {
	return e.code
}

// Program errors, in code order.
var (
	ErrNotSigner              = &ProgramError{0, "account is not a signer"}
	ErrWriteOverflow          = &ProgramError{1, "arithmetic overflow"}
	ErrInvalidInstructionData = &ProgramError{2, "invalid instruction data"}
	ErrInvalidAccountData     = &ProgramError{3, "invalid account data"}
	ErrPdaMismatch            = &ProgramError{4, "program derived address mismatch"}
	ErrInvalidOwner           = &ProgramError{5, "invalid account owner"}
	ErrInvalidAddress         = &ProgramError{6, "invalid account address"}
	ErrNotActive              = &ProgramError{7, "claim is not active yet"}
	ErrInsufficientFunds      = &ProgramError{8, "insufficient funds"}
)

// ErrNotEnoughAccountKeys is returned when an instruction is given fewer
// accounts than it requires.
var ErrNotEnoughAccountKeys = errors.New("not enough account keys")

// ErrorCode extracts the program error code from err, if it carries one.
func ErrorCode(err error) (uint32, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.code, true
	}
	return 0, false
}

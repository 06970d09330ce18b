package bank

import (
	"errors"
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Bank errors
var (
	// ErrProgramNotFound indicates the program is not registered.
	ErrProgramNotFound = errors.New("program not found")

	// ErrNilTransaction indicates a nil transaction was submitted.
	ErrNilTransaction = errors.New("nil transaction")

	// ErrEmptyTransaction indicates a transaction without instructions.
	ErrEmptyTransaction = errors.New("transaction has no instructions")

	// ErrProgramAccount indicates a native program's account cannot be
	// modified outside of genesis.
	ErrProgramAccount = errors.New("program account is read-only")

	// ErrLamportsOverflow indicates a faucet credit would overflow a balance.
	ErrLamportsOverflow = errors.New("lamports overflow")

	// ErrNotTokenAccount indicates an account exists at an associated token
	// address but is not a token account of the expected mint.
	ErrNotTokenAccount = errors.New("not a token account")
)

// InstructionError records which instruction of a transaction failed.
type InstructionError struct {
	Index     int
	ProgramID types.Pubkey
	Err       error
}

// Error implements the error interface.
func (e *InstructionError) Error() string {
	return fmt.Sprintf("instruction %d (program %s) failed: %v",
		e.Index, e.ProgramID.String(), e.Err)
}

// Unwrap returns the underlying error.
func (e *InstructionError) Unwrap() error {
	return e.Err
}

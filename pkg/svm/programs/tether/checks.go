package tether

import (
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/programs/token"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Account role checks. Each Check is side-effect free apart from compute
// metering and runs before the instruction mutates anything.

// SignerAccount must have signed the transaction.
type SignerAccount struct{}

func (SignerAccount) Check(acc *syscall.AccountInfo) error {
	if !acc.IsSigner {
		return fmt.Errorf("%w: %s", ErrNotSigner, acc.Pubkey.String())
	}
	return nil
}

// SystemAccount must be owned by the system program.
type SystemAccount struct{}

func (SystemAccount) Check(acc *syscall.AccountInfo) error {
	if !acc.IsOwnedBy(types.SystemProgramID) {
		return fmt.Errorf("%w: %s owned by %s", ErrInvalidOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	return nil
}

// ProgramAccount must be owned by the running program.
type ProgramAccount struct {
	ProgramID types.Pubkey
}

func (p ProgramAccount) Check(acc *syscall.AccountInfo) error {
	if !acc.IsOwnedBy(p.ProgramID) {
		return fmt.Errorf("%w: %s owned by %s", ErrInvalidOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	return nil
}

// ParticipantAccount must be an active participant record.
type ParticipantAccount struct {
	ProgramID types.Pubkey
}

func (p ParticipantAccount) Check(acc *syscall.AccountInfo) error {
	if err := (ProgramAccount{ProgramID: p.ProgramID}).Check(acc); err != nil {
		return err
	}
	if acc.DataLen() != ParticipantLen {
		return fmt.Errorf("%w: %s holds %d bytes", ErrInvalidAccountData, acc.Pubkey.String(), acc.DataLen())
	}
	return nil
}

// MintAccount must be owned by the token program.
type MintAccount struct{}

func (MintAccount) Check(acc *syscall.AccountInfo) error {
	if !acc.IsOwnedBy(TokenProgramID) {
		return fmt.Errorf("%w: mint %s owned by %s", ErrInvalidOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	return nil
}

// AssociatedTokenAccount must be the token account derived for
// (authority, token program, mint).
type AssociatedTokenAccount struct{}

func (AssociatedTokenAccount) Check(ctx *syscall.ExecutionContext, acc, authority, mint *syscall.AccountInfo) error {
	if !acc.IsOwnedBy(TokenProgramID) {
		return fmt.Errorf("%w: token account %s owned by %s", ErrInvalidOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	if acc.DataLen() != token.TokenAccountSize {
		return fmt.Errorf("%w: token account %s holds %d bytes", ErrInvalidAccountData, acc.Pubkey.String(), acc.DataLen())
	}
	seeds := [][]byte{authority.Pubkey[:], TokenProgramID[:], mint.Pubkey[:]}
	expected, _, err := syscall.FindProgramAddress(seeds, types.AssociatedTokenProgramID, ctx)
	if err != nil {
		return err
	}
	if expected != acc.Pubkey {
		return fmt.Errorf("%w: token account %s, expected %s", ErrInvalidAddress, acc.Pubkey.String(), expected.String())
	}
	return nil
}

// checkProgramAccount rejects a program account whose key is not the
// program the instruction will invoke.
func checkProgramAccount(acc *syscall.AccountInfo, expected types.Pubkey) error {
	if acc.Pubkey != expected {
		return fmt.Errorf("%w: program %s, expected %s", ErrInvalidAddress, acc.Pubkey.String(), expected.String())
	}
	return nil
}

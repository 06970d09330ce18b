package tether

import (
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/associated_token"
	"github.com/Devansh-Aage/Tether/pkg/svm/programs/system"
	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// Init creates account as a rent-exempt account of space bytes owned by
// the program. seeds, bump included, must derive account's address: the
// address signs the allocation through them.
func (p ProgramAccount) Init(ctx *syscall.ExecutionContext, account, payer *syscall.AccountInfo, seeds [][]byte, space uint64) error {
	lamports := ctx.MinimumBalance(space)
	create := system.CreateAccount(payer.Pubkey, account.Pubkey, lamports, space, p.ProgramID)
	return ctx.InvokeSigned(create, syscall.Signer(seeds...))
}

// Close retires a participant record: the first byte becomes
// ClosedSentinel, every lamport moves to destination, the data shrinks to
// one byte and the account is handed back to the system program.
func (p ParticipantAccount) Close(ctx *syscall.ExecutionContext, account, destination *syscall.AccountInfo) error {
	if err := p.Check(account); err != nil {
		return err
	}

	account.Data[0] = ClosedSentinel
	if err := ctx.TransferLamports(account, destination, *account.Lamports); err != nil {
		return err
	}
	if err := ctx.ResizeAccountData(account, 1); err != nil {
		return err
	}
	account.Owner = types.SystemProgramID
	return nil
}

// InitIfNeeded leaves a valid associated token account alone and
// otherwise creates it through the associated token program.
func (a AssociatedTokenAccount) InitIfNeeded(ctx *syscall.ExecutionContext, account, mint, payer, owner *syscall.AccountInfo) error {
	if err := a.Check(ctx, account, owner, mint); err == nil {
		return nil
	}
	return ctx.Invoke(associated_token.CreateWithAddress(payer.Pubkey, account.Pubkey, owner.Pubkey, mint.Pubkey, TokenProgramID))
}

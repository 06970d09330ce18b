package system

import (
	"fmt"

	"github.com/Devansh-Aage/Tether/pkg/svm/syscall"
	"github.com/Devansh-Aage/Tether/pkg/types"
)

// MaxAccountDataSize is the largest allocation the System Program accepts.
const MaxAccountDataSize = syscall.MaxAccountDataSize

// accountAt returns the account at idx, requiring a signature and write
// access as asked. role names the account in errors.
func accountAt(ctx *syscall.ExecutionContext, idx int, role string, signer, writable bool) (*syscall.AccountInfo, error) {
	acc, err := ctx.GetAccountByIndex(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidInstructionData, role)
	}
	if signer && !acc.IsSigner {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotSigner, role)
	}
	if writable && !acc.IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotWritable, role)
	}
	return acc, nil
}

// unallocated requires acc to be a bare system account: no lamports, no
// data, owned by the System Program.
func unallocated(acc *syscall.AccountInfo) error {
	if *acc.Lamports > 0 || len(acc.Data) > 0 || acc.Owner != types.SystemProgramID {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyExists, acc.Pubkey.String())
	}
	return nil
}

func checkSpace(space uint64) error {
	if space > MaxAccountDataSize {
		return fmt.Errorf("%w: %d > %d", ErrAccountDataTooLarge, space, MaxAccountDataSize)
	}
	return nil
}

// createAccount funds accounts[1] from accounts[0], allocates Space bytes
// and assigns it to Owner. Both accounts sign.
func createAccount(ctx *syscall.ExecutionContext, inst *Instruction) error {
	from, err := accountAt(ctx, 0, "funding account", true, true)
	if err != nil {
		return err
	}
	to, err := accountAt(ctx, 1, "new account", true, true)
	if err != nil {
		return err
	}
	if err := unallocated(to); err != nil {
		return err
	}
	if err := checkSpace(inst.Space); err != nil {
		return err
	}
	if min := ctx.MinimumBalance(inst.Space); inst.Lamports < min {
		return fmt.Errorf("%w: need %d lamports for %d bytes", ErrAccountNotRentExempt, min, inst.Space)
	}
	if *from.Lamports < inst.Lamports {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, inst.Lamports, *from.Lamports)
	}

	*from.Lamports -= inst.Lamports
	*to.Lamports += inst.Lamports
	to.Data = make([]byte, inst.Space)
	to.Owner = inst.Owner
	return nil
}

func assign(ctx *syscall.ExecutionContext, inst *Instruction) error {
	acc, err := accountAt(ctx, 0, "account to assign", true, true)
	if err != nil {
		return err
	}
	if acc.Owner != types.SystemProgramID {
		return fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccountOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	acc.Owner = inst.Owner
	return nil
}

// transfer moves lamports between accounts. The source must sign and may
// not carry data.
func transfer(ctx *syscall.ExecutionContext, inst *Instruction) error {
	from, err := accountAt(ctx, 0, "source account", true, false)
	if err != nil {
		return err
	}
	to, err := accountAt(ctx, 1, "destination account", false, false)
	if err != nil {
		return err
	}
	if len(from.Data) > 0 {
		return ErrTransferFromDataAccount
	}
	if *from.Lamports < inst.Lamports {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, inst.Lamports, *from.Lamports)
	}
	return ctx.TransferLamports(from, to, inst.Lamports)
}

func allocate(ctx *syscall.ExecutionContext, inst *Instruction) error {
	acc, err := accountAt(ctx, 0, "account to allocate", true, true)
	if err != nil {
		return err
	}
	if acc.Owner != types.SystemProgramID {
		return fmt.Errorf("%w: %s is owned by %s", ErrInvalidAccountOwner, acc.Pubkey.String(), acc.Owner.String())
	}
	if len(acc.Data) > 0 {
		return fmt.Errorf("%w: %s already has data", ErrAccountAlreadyExists, acc.Pubkey.String())
	}
	if err := checkSpace(inst.Space); err != nil {
		return err
	}
	acc.Data = make([]byte, inst.Space)
	return nil
}
